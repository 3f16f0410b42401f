package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/jcdickinson/symdoc/internal/lang"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type BundleConfig struct {
	Identifier      string        `mapstructure:"identifier"`
	DisplayName     string        `mapstructure:"display_name"`
	PrimaryLanguage lang.Language `mapstructure:"primary_language"`
}

type CurationConfig struct {
	OutputDir     string `mapstructure:"output_dir"`
	DepthLimit    int    `mapstructure:"depth_limit"`
	StartingPoint string `mapstructure:"starting_point"`
	GroupByKind   bool   `mapstructure:"group_by_kind"`
}

// Depth returns the depth limit, nil when unbounded (any negative value).
func (c CurationConfig) Depth() *int {
	if c.DepthLimit < 0 {
		return nil
	}
	d := c.DepthLimit
	return &d
}

type SymbolGraphConfig struct {
	Patterns []string `mapstructure:"patterns"`
	Dirs     []string `mapstructure:"dirs"`
}

// FeatureFlags gate optional behavior. They are passed explicitly to the
// components that read them.
type FeatureFlags struct {
	DeviceFrames                   bool `mapstructure:"device_frames"`
	LinkHierarchySerialization     bool `mapstructure:"link_hierarchy_serialization"`
	OverloadedSymbolPresentation   bool `mapstructure:"overloaded_symbol_presentation"`
	MentionedIn                    bool `mapstructure:"mentioned_in"`
	ParametersAndReturnsValidation bool `mapstructure:"parameters_and_returns_validation"`
}

// DefaultFeatureFlags returns the flags used when nothing is configured.
func DefaultFeatureFlags() FeatureFlags {
	return FeatureFlags{
		MentionedIn:                    true,
		ParametersAndReturnsValidation: true,
	}
}

type IndexConfig struct {
	Path string `mapstructure:"path"`
}

type Config struct {
	Bundle       BundleConfig      `mapstructure:"bundle"`
	Curation     CurationConfig    `mapstructure:"curation"`
	SymbolGraphs SymbolGraphConfig `mapstructure:"symbol_graphs"`
	Features     FeatureFlags      `mapstructure:"features"`
	Index        IndexConfig       `mapstructure:"index"`

	// CatalogDir is the documentation catalog the config was loaded for.
	CatalogDir string `mapstructure:"-"`
}

// cacheBase returns the base cache directory for symdoc.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/symdoc as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "symdoc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "symdoc")
	}
	return filepath.Join(os.TempDir(), "symdoc")
}

// IndexPath returns the default path of the link hierarchy database.
func IndexPath() string {
	return filepath.Join(cacheBase(), "index.db")
}

// LogPath returns the log file used by long-running commands whose
// standard streams carry a protocol.
func LogPath() string {
	return filepath.Join(cacheBase(), "symdoc.log")
}

// bundleName derives a display name from a catalog directory such as
// "MyKit.docc".
func bundleName(catalogDir string) string {
	if catalogDir == "" {
		return "Documentation"
	}
	base := filepath.Base(filepath.Clean(catalogDir))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newViper(catalogDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("Info")
	v.SetConfigType("toml")

	if catalogDir != "" {
		v.AddConfigPath(catalogDir)
	}
	v.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "symdoc"))
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "symdoc"))
	}

	outputDir := "Generated.docc"
	if catalogDir != "" {
		outputDir = catalogDir
	}
	flags := DefaultFeatureFlags()

	v.SetDefault("bundle.identifier", "org.symdoc.documentation")
	v.SetDefault("bundle.display_name", bundleName(catalogDir))
	v.SetDefault("bundle.primary_language", string(lang.Swift))
	v.SetDefault("curation.output_dir", outputDir)
	v.SetDefault("curation.depth_limit", -1)
	v.SetDefault("curation.starting_point", "")
	v.SetDefault("curation.group_by_kind", true)
	v.SetDefault("symbol_graphs.patterns", []string{"**/*.symbols.jsonl", "**/*.symbols.jsonl.zst"})
	v.SetDefault("symbol_graphs.dirs", []string{})
	v.SetDefault("features.device_frames", flags.DeviceFrames)
	v.SetDefault("features.link_hierarchy_serialization", flags.LinkHierarchySerialization)
	v.SetDefault("features.overloaded_symbol_presentation", flags.OverloadedSymbolPresentation)
	v.SetDefault("features.mentioned_in", flags.MentionedIn)
	v.SetDefault("features.parameters_and_returns_validation", flags.ParametersAndReturnsValidation)
	v.SetDefault("index.path", IndexPath())

	v.SetEnvPrefix("SYMDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func stringToLanguageHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(lang.Language("")) {
			return data, nil
		}
		if f.Kind() == reflect.String {
			return lang.Parse(data.(string)), nil
		}
		return data, nil
	}
}

// Load reads Info.toml from the catalog directory (or the working or user
// config directory) and applies SYMDOC_* environment overrides.
func Load(catalogDir string) (*Config, error) {
	v := newViper(catalogDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToLanguageHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.CatalogDir = catalogDir

	if strings.HasPrefix(config.Index.Path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			config.Index.Path = filepath.Join(home, config.Index.Path[2:])
		}
	}
	return &config, nil
}
