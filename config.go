package apidoc

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/broady/apidoc/analysis"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the analysis configuration. It is validated once and copied
// into an Analyzer, which never modifies it.
type Config struct {
	// Title names the generated document.
	Title string `yaml:"title"`

	// IncludeNamePrefixes selects the compound parameter types that are
	// flattened into operation parameters, by qualified name prefix
	// (e.g. "example.com/api.").
	IncludeNamePrefixes []string `yaml:"include" validate:"dive,required"`

	// EnableNameCaseConversion converts member names to snake_case when no
	// explicit name or naming strategy applies.
	EnableNameCaseConversion bool `yaml:"snake_case"`

	// Workers bounds the number of operations analysed concurrently.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int `yaml:"workers" validate:"gte=0"`

	// Locale is the BCP 47 tag used for locale examples. Default en-US.
	Locale string `yaml:"locale" validate:"omitempty,bcp47_language_tag"`

	// TimeZone is the IANA zone used for date and time zone examples.
	// Default UTC.
	TimeZone string `yaml:"timezone" validate:"omitempty,timezone"`
}

// Validate checks c for invalid settings.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, c.Validate()
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// options converts c into builder options.
func (c Config) options() (analysis.Options, error) {
	opts := analysis.Options{
		IncludeNamePrefixes:      append([]string(nil), c.IncludeNamePrefixes...),
		EnableNameCaseConversion: c.EnableNameCaseConversion,
	}
	if c.Locale != "" {
		tag, err := language.Parse(c.Locale)
		if err != nil {
			return opts, fmt.Errorf("locale %q: %w", c.Locale, err)
		}
		opts.Locale = tag
	}
	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			return opts, fmt.Errorf("time zone %q: %w", c.TimeZone, err)
		}
		opts.Location = loc
	}
	return opts, nil
}
