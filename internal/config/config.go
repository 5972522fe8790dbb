// Package config provides configuration management for stamp using Viper
// for loading from files, environment variables and command-line flags.
//
// The configuration names the project layout (source file, dist
// directory, metadata files), the external lint and minify commands, the
// license banner template and the substitution settings. Values come from
// .stamp.yml and can be overridden with STAMP_ prefixed environment
// variables such as STAMP_METADATA_PRIMARY.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultBanner is the license banner used when banner.template is unset.
const DefaultBanner = `/**
 * @license %(name)s %(version)s Copyright (c) %(date:"2006")s
 * Available via the %(license)s license.
 */
`

type Config struct {
	ProjectDir   string             `mapstructure:"project_dir" yaml:"project_dir"`
	Src          string             `mapstructure:"src" yaml:"src"`
	Dist         string             `mapstructure:"dist" yaml:"dist"`
	Metadata     MetadataConfig     `mapstructure:"metadata" yaml:"metadata"`
	Lint         LintConfig         `mapstructure:"lint" yaml:"lint"`
	Minify       MinifyConfig       `mapstructure:"minify" yaml:"minify"`
	Banner       BannerConfig       `mapstructure:"banner" yaml:"banner"`
	Bump         BumpConfig         `mapstructure:"bump" yaml:"bump"`
	VersionCheck VersionCheckConfig `mapstructure:"versioncheck" yaml:"versioncheck"`
	Substitution SubstitutionConfig `mapstructure:"substitution" yaml:"substitution"`
	Watch        WatchConfig        `mapstructure:"watch" yaml:"watch"`
}

type MetadataConfig struct {
	Primary string   `mapstructure:"primary" yaml:"primary"`
	Mirrors []string `mapstructure:"mirrors" yaml:"mirrors"`
}

type LintConfig struct {
	Command string   `mapstructure:"command" yaml:"command"`
	Files   []string `mapstructure:"files" yaml:"files"`
}

type MinifyConfig struct {
	Command string `mapstructure:"command" yaml:"command"`
	Output  string `mapstructure:"output" yaml:"output"`
}

type BannerConfig struct {
	Template string `mapstructure:"template" yaml:"template"`
}

type BumpConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type VersionCheckConfig struct {
	Headers []string `mapstructure:"headers" yaml:"headers"`
}

type SubstitutionConfig struct {
	Strict  bool     `mapstructure:"strict" yaml:"strict"`
	Sources []string `mapstructure:"sources" yaml:"sources"`
	BaseDir string   `mapstructure:"base_dir" yaml:"base_dir"`
}

type WatchConfig struct {
	Paths    []string      `mapstructure:"paths" yaml:"paths"`
	Ignore   []string      `mapstructure:"ignore" yaml:"ignore"`
	Tasks    []string      `mapstructure:"tasks" yaml:"tasks"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates
// the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Workaround for viper slice handling when values are set programmatically
	for key, dst := range map[string]*[]string{
		"metadata.mirrors":     &config.Metadata.Mirrors,
		"lint.files":           &config.Lint.Files,
		"versioncheck.headers": &config.VersionCheck.Headers,
		"substitution.sources": &config.Substitution.Sources,
		"watch.paths":          &config.Watch.Paths,
		"watch.ignore":         &config.Watch.Ignore,
		"watch.tasks":          &config.Watch.Tasks,
	} {
		if v.IsSet(key) && len(*dst) == 0 {
			*dst = v.GetStringSlice(key)
		}
	}

	applyDefaults(&config, v)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	abs, err := filepath.Abs(config.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: project_dir: %w", err)
	}
	config.ProjectDir = abs

	return &config, nil
}

func applyDefaults(config *Config, v *viper.Viper) {
	if config.ProjectDir == "" {
		config.ProjectDir = "."
	}
	if config.Dist == "" {
		config.Dist = "dist"
	}
	if config.Metadata.Primary == "" {
		config.Metadata.Primary = "bower.json"
	}
	if !v.IsSet("metadata.mirrors") && len(config.Metadata.Mirrors) == 0 {
		config.Metadata.Mirrors = []string{"package.json"}
	}
	if len(config.Lint.Files) == 0 && config.Src != "" {
		config.Lint.Files = []string{filepath.ToSlash(filepath.Join(filepath.Dir(config.Src), "*"))}
	}
	if config.Minify.Output == "" && config.Src != "" {
		base := filepath.Base(config.Src)
		ext := filepath.Ext(base)
		config.Minify.Output = filepath.ToSlash(filepath.Join(config.Dist, base[:len(base)-len(ext)]+".min"+ext))
	}
	if config.Banner.Template == "" {
		config.Banner.Template = DefaultBanner
	}
	if config.Bump.Level == "" {
		config.Bump.Level = "patch"
	}
	if !v.IsSet("versioncheck.headers") && len(config.VersionCheck.Headers) == 0 {
		config.VersionCheck.Headers = defaultHeaders(config)
	}
	if config.Substitution.BaseDir == "" {
		config.Substitution.BaseDir = "."
	}
	if len(config.Watch.Paths) == 0 && config.Src != "" {
		config.Watch.Paths = []string{filepath.ToSlash(filepath.Dir(config.Src))}
	}
	if len(config.Watch.Ignore) == 0 {
		config.Watch.Ignore = []string{"**/.git/**", "**/node_modules/**", "**/*~", "**/*.swp"}
	}
	if len(config.Watch.Tasks) == 0 {
		config.Watch.Tasks = []string{"build"}
	}
	if config.Watch.Debounce <= 0 {
		config.Watch.Debounce = 300 * time.Millisecond
	}
}

// defaultHeaders lists the artifacts the build produces that carry a
// version banner.
func defaultHeaders(config *Config) []string {
	var headers []string
	if config.Src != "" {
		headers = append(headers, config.DistCopy())
	}
	if config.Minify.Command != "" && config.Minify.Output != "" {
		headers = append(headers, config.Minify.Output)
	}
	return headers
}

// DistCopy is the project-relative path of the substituted copy of Src.
func (c *Config) DistCopy() string {
	return filepath.ToSlash(filepath.Join(c.Dist, filepath.Base(c.Src)))
}

// Path resolves a project-relative path against ProjectDir.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.ProjectDir, filepath.FromSlash(rel))
}
