// Package config loads run settings from defaults, an optional config file,
// UNROLL_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"mu-bmd-unroll/internal/crypto"
	"mu-bmd-unroll/internal/gridmap"
	"mu-bmd-unroll/internal/island"
	"mu-bmd-unroll/internal/preview"
)

// EnvPrefix prefixes every environment variable, e.g. UNROLL_WORKERS.
const EnvPrefix = "UNROLL"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all configurable paths and unroll settings.
type Config struct {
	// Paths
	OutputDir   string   `mapstructure:"output_dir"`
	TextureDirs []string `mapstructure:"texture_dirs"`

	// Output
	OutputVersion int    `mapstructure:"output_version"`
	LEAKey        string `mapstructure:"lea_key"`
	PreviewFormat string `mapstructure:"preview_format"`
	PreviewSize   int    `mapstructure:"preview_size"`
	Supersample   int    `mapstructure:"supersample"`
	Bake          bool   `mapstructure:"bake"`
	BakePadding   int    `mapstructure:"bake_padding"`

	// Mapping
	Metric    string `mapstructure:"metric"`
	Widths    string `mapstructure:"widths"`
	ScaleToUV bool   `mapstructure:"scale_to_uv"`
	MaxSteps  int    `mapstructure:"max_steps"`
	Meshes    []int  `mapstructure:"meshes"`
	// SkipOverlays leaves effect and character body meshes alone.
	SkipOverlays bool  `mapstructure:"skip_overlays"`
	Faces        []int `mapstructure:"faces"`

	// Runtime
	Workers  int    `mapstructure:"workers"`
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// SetDefaults registers every key with viper so that environment variables
// are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", "unrolled")
	v.SetDefault("texture_dirs", []string{})
	v.SetDefault("output_version", 0)
	v.SetDefault("lea_key", "")
	v.SetDefault("preview_format", string(preview.FormatWebP))
	v.SetDefault("preview_size", 512)
	v.SetDefault("supersample", 2)
	v.SetDefault("bake", false)
	v.SetDefault("bake_padding", 2)
	v.SetDefault("metric", gridmap.MetricSurface.String())
	v.SetDefault("widths", gridmap.WidthsFirstRow.String())
	v.SetDefault("scale_to_uv", false)
	v.SetDefault("max_steps", island.DefaultMaxSteps)
	v.SetDefault("meshes", []int{})
	v.SetDefault("faces", []int{})
	v.SetDefault("skip_overlays", true)
	v.SetDefault("workers", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// RegisterFlags adds one flag per key to fs, named like the key.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Configuration file (json, yaml or toml). Overridden by environment variables and flags.")
	fs.String("output_dir", "unrolled", "Directory for rewritten models, previews and report.json.")
	fs.StringSlice("texture_dirs", nil, "Directories searched recursively for textures.")
	fs.Int("output_version", 0, "BMD version to write (10, 12 or 15); 0 keeps the input version.")
	fs.String("lea_key", "", "LEA-256 key for version 15 files, 64 hex characters.")
	fs.String("preview_format", string(preview.FormatWebP), "Preview image format: webp, tga, png or none.")
	fs.Int("preview_size", 512, "Preview edge length in pixels.")
	fs.Int("supersample", 2, "Preview supersampling factor.")
	fs.Bool("bake", false, "Bake a texture matching the unrolled layout.")
	fs.Int("bake_padding", 2, "Pixels to grow baked regions by.")
	fs.String("metric", gridmap.MetricSurface.String(), "Step length metric: surface or uv.")
	fs.String("widths", gridmap.WidthsFirstRow.String(), "Column width policy: first-row or average.")
	fs.Bool("scale_to_uv", false, "Rescale surface-metric grids to their original UV extent.")
	fs.Int("max_steps", island.DefaultMaxSteps, "Step ceiling for every lattice walk.")
	fs.IntSlice("meshes", nil, "Mesh indices to unroll; empty means all.")
	fs.IntSlice("faces", nil, "Face indices selected in each unrolled mesh; empty means all.")
	fs.Bool("skip_overlays", true, "Leave effect and character body meshes alone.")
	fs.Int("workers", 0, "Worker count; 0 uses the number of CPUs.")
	fs.String("log_level", "info", "Log level: debug, info, warn or error.")
	fs.Bool("log_json", false, "Log JSON instead of console text.")
}

// Load merges defaults, the config file named by the "config" key (if
// any), the environment and fs, then resolves and validates the result.
// fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, errors.Wrap(err, "config: bind flags")
		}
	}
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "config: read %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: decode")
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve fills in empty fields with defaults and cleans paths.
func (c *Config) Resolve() {
	if c.OutputDir == "" {
		c.OutputDir = "unrolled"
	}
	c.OutputDir = filepath.Clean(c.OutputDir)
	for i, d := range c.TextureDirs {
		c.TextureDirs[i] = filepath.Clean(d)
	}
	if c.PreviewFormat == "" {
		c.PreviewFormat = string(preview.FormatWebP)
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = island.DefaultMaxSteps
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate rejects values the run cannot use.
func (c Config) Validate() error {
	switch c.OutputVersion {
	case 0, 10, 12:
	case 15:
		if c.LEAKey == "" {
			return errors.Wrap(ErrInvalid, "output_version 15 needs lea_key")
		}
	default:
		return errors.Wrapf(ErrInvalid, "output_version %d", c.OutputVersion)
	}
	if c.LEAKey != "" {
		if _, err := crypto.ParseLEAKey(c.LEAKey); err != nil {
			return errors.Wrapf(ErrInvalid, "lea_key: %v", err)
		}
	}
	if _, err := preview.ParseFormat(c.PreviewFormat); err != nil {
		return errors.Wrapf(ErrInvalid, "preview_format: %v", err)
	}
	if _, err := c.MapperOptions(); err != nil {
		return errors.Wrapf(ErrInvalid, "%v", err)
	}
	if c.BakePadding < 0 {
		return errors.Wrapf(ErrInvalid, "bake_padding %d", c.BakePadding)
	}
	for _, idx := range append(append([]int(nil), c.Meshes...), c.Faces...) {
		if idx < 0 {
			return errors.Wrapf(ErrInvalid, "negative index %d in meshes/faces", idx)
		}
	}
	return nil
}

// MapperOptions converts the mapping settings.
func (c Config) MapperOptions() (gridmap.Options, error) {
	opts := gridmap.DefaultOptions()
	var err error
	if opts.Metric, err = gridmap.ParseMetric(c.Metric); err != nil {
		return opts, err
	}
	if opts.Widths, err = gridmap.ParseWidthPolicy(c.Widths); err != nil {
		return opts, err
	}
	opts.ScaleToUV = c.ScaleToUV
	if c.MaxSteps > 0 {
		opts.MaxSteps = c.MaxSteps
	}
	return opts, nil
}

// Key returns the decoded LEA key, or nil when none is configured.
func (c Config) Key() ([]byte, error) {
	if c.LEAKey == "" {
		return nil, nil
	}
	key, err := crypto.ParseLEAKey(c.LEAKey)
	if err != nil {
		return nil, err
	}
	return key[:], nil
}

// Format returns the preview format. Call after Validate.
func (c Config) Format() preview.Format {
	f, _ := preview.ParseFormat(c.PreviewFormat)
	return f
}
