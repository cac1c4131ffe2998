package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"brandcss/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

// Duration makes time.Duration usable in YAML configuration: values are
// written and read in the "3s"/"24h" form rather than nanosecond integers.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("failed to parse duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

type (
	OptimizeConfig struct {
		Enabled bool     `yaml:"enabled"`
		Passes  []string `yaml:"passes" validate:"dive,oneof=dedupe shorthand selectors zeros"`
	}

	EnhanceConfig struct {
		MaxChanges         int            `yaml:"max_changes" validate:"min=0"`
		Tolerance          float64        `yaml:"tolerance" validate:"gte=0.0,lte=0.5"`
		AutoApply          string         `yaml:"auto_apply" validate:"required,oneof=safe off"`
		OnUnresolved       string         `yaml:"on_unresolved" validate:"required,oneof=degrade strict"`
		RootFontSize       float64        `yaml:"root_font_size" validate:"gt=0.0"`
		NameTemplate       string         `yaml:"name_template,omitempty"`
		TransliterateNames bool           `yaml:"transliterate_names"`
		Optimize           OptimizeConfig `yaml:"optimize"`
		Exclude            []string       `yaml:"exclude" validate:"dive,required"`
	}

	TokensConfig struct {
		Pack    string   `yaml:"pack,omitempty" sanitize:"assure_file_access" validate:"omitempty,filepath"`
		Search  []string `yaml:"search" validate:"dive,required"`
		Timeout Duration `yaml:"timeout"`
	}

	CacheConfig struct {
		Backend     string   `yaml:"backend" validate:"required,oneof=memory sqlite off"`
		Destination string   `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
		MaxEntries  int      `yaml:"max_entries" validate:"min=0"`
		TTL         Duration `yaml:"ttl"`
		Coalesce    bool     `yaml:"coalesce"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Enhance   EnhanceConfig  `yaml:"enhance"`
		Tokens    TokensConfig   `yaml:"tokens"`
		Cache     CacheConfig    `yaml:"cache"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// TemplateFieldName marks configuration fields holding Go templates. Those
// are expanded at processing time, not when the configuration is read.
type TemplateFieldName string

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// AutoApplyMode converts the already validated string form. Unvalidated
// values fall back to the safe mode rather than panic.
func (c *EnhanceConfig) AutoApplyMode() common.AutoApplyMode {
	m, err := common.ParseAutoApplyMode(c.AutoApply)
	if err != nil {
		return common.AutoApplyModeSafe
	}
	return m
}

// ResolveMode converts the already validated string form. Unvalidated
// values fall back to degrade, never silently to strict.
func (c *EnhanceConfig) ResolveMode() common.ResolveMode {
	m, err := common.ParseResolveMode(c.OnUnresolved)
	if err != nil {
		return common.ResolveModeDegrade
	}
	return m
}

// BackendKind converts the already validated string form.
func (c *CacheConfig) BackendKind() CacheBackend {
	b, err := ParseCacheBackend(c.Backend)
	if err != nil {
		return CacheBackendMemory
	}
	return b
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
