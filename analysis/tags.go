package analysis

import (
	"reflect"
	"strconv"
	"strings"
)

// Struct tag keys the engine understands.
const (
	tagJSON       = "json"        // external property name, json:"-" ignores, format:X option
	tagSchema     = "schema"      // gorilla/schema binding: rename, required, default:X
	tagNaming     = "naming"      // per-member naming strategy
	tagValidate   = "validate"    // go-playground/validator rules
	tagTimeFormat = "time_format" // explicit date/time layout
	tagPattern    = "pattern"     // regular expression
	tagDeprecated = "deprecated"  // deprecation marker
	tagAPIDoc     = "apidoc"      // "-" hides, "body" marks a request body parameter
)

// tagName returns the name part of a comma-separated tag such as json or schema.
func tagName(tag reflect.StructTag, key string) string {
	v, ok := tag.Lookup(key)
	if !ok {
		return ""
	}
	if v == "-" {
		return ""
	}
	name, _, _ := strings.Cut(v, ",")
	return name
}

// tagOption returns the value of a "key:value" option of a comma-separated
// tag, or reports whether a bare option is present.
func tagOption(tag reflect.StructTag, key, option string) (string, bool) {
	v, ok := tag.Lookup(key)
	if !ok {
		return "", false
	}
	_, opts, _ := strings.Cut(v, ",")
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == option {
			return "", true
		}
		if val, found := strings.CutPrefix(opt, option+":"); found {
			return val, true
		}
	}
	return "", false
}

// ignored reports whether a field is excluded from documentation.
func ignored(tag reflect.StructTag) bool {
	return tag.Get(tagJSON) == "-" || tag.Get(tagAPIDoc) == "-" || tag.Get(tagSchema) == "-"
}

// hasBodyMarker reports whether a parameter is bound from the request body.
func hasBodyMarker(tag reflect.StructTag) bool {
	for _, v := range strings.Split(tag.Get(tagAPIDoc), ",") {
		if v == "body" {
			return true
		}
	}
	return false
}

// rule is one validator rule, e.g. {"min", "3"}.
type rule struct {
	name  string
	param string
}

// validateRules parses a validate tag, keeping only the rules that apply to
// the value itself: anything after "dive" applies to elements.
func validateRules(tag reflect.StructTag) []rule {
	v := tag.Get(tagValidate)
	if v == "" {
		return nil
	}
	var rules []rule
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "dive" {
			break
		}
		if part == "" || strings.Contains(part, "|") {
			continue
		}
		name, param, _ := strings.Cut(part, "=")
		rules = append(rules, rule{name: name, param: param})
	}
	return rules
}

func parseBound(s string) (*float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, false
	}
	return &f, true
}
