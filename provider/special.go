// Package provider implements the hosts that convert Go types into the ir type
// graph: ReflectionProvider works from runtime reflect.Type values and
// SourceProvider works from go/packages source analysis.
package provider

import "github.com/broady/apidoc/ir"

// specialTypes are standard types documented as opaque values. Their fields
// are never expanded.
var specialTypes = map[[2]string]ir.Traits{
	{"time", "Time"}:                       ir.TraitDate,
	{"time", "Duration"}:                   ir.TraitDuration,
	{"time", "Location"}:                   ir.TraitTimeZone,
	{"math/big", "Int"}:                    ir.TraitBigInt,
	{"math/big", "Float"}:                  ir.TraitBigFloat,
	{"math/big", "Rat"}:                    ir.TraitBigFloat,
	{"encoding/json", "Number"}:            ir.TraitNumber,
	{"encoding/json", "RawMessage"}:        ir.TraitRaw,
	{"os", "File"}:                         ir.TraitFile,
	{"mime/multipart", "FileHeader"}:       ir.TraitFile,
	{"mime/multipart", "File"}:             ir.TraitFile,
	{"golang.org/x/text/language", "Tag"}:  ir.TraitLocale,
	{"golang.org/x/text/language", "Base"}: ir.TraitLocale,
}

// special returns the traits of a well-known opaque type.
func special(pkgPath, name string) (ir.Traits, bool) {
	t, ok := specialTypes[[2]string{pkgPath, name}]
	return t, ok
}
