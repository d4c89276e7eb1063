// Package config provides configuration management for assetpipe using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// Every path is relative to the project root. The configuration covers the
// dev server address, the source and output directories of each pipeline,
// the browser targets used for vendor prefixing, the script exclusion list,
// watcher debounce and logging.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Root    string        `mapstructure:"root" yaml:"root"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Paths   PathsConfig   `mapstructure:"paths" yaml:"paths"`
	Styles  StylesConfig  `mapstructure:"styles" yaml:"styles"`
	Scripts ScriptsConfig `mapstructure:"scripts" yaml:"scripts"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port" yaml:"port"`
	Host string `mapstructure:"host" yaml:"host"`
}

// Addr returns the host:port the dev server binds.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type PathsConfig struct {
	Styles     string `mapstructure:"styles" yaml:"styles"`
	StylesOut  string `mapstructure:"styles_out" yaml:"styles_out"`
	Scripts    string `mapstructure:"scripts" yaml:"scripts"`
	Vendor     string `mapstructure:"vendor" yaml:"vendor"`
	Modules    string `mapstructure:"modules" yaml:"modules"`
	Descriptor string `mapstructure:"descriptor" yaml:"descriptor"`
}

type StylesConfig struct {
	Sass      string   `mapstructure:"sass" yaml:"sass"`
	Targets   []string `mapstructure:"targets" yaml:"targets"`
	LoadPaths []string `mapstructure:"load_paths" yaml:"load_paths"`
}

type ScriptsConfig struct {
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
	Ignore   []string      `mapstructure:"ignore" yaml:"ignore"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default values. The browser targets approximate "last 2 versions" of the
// major engines.
var (
	DefaultTargets       = []string{"chrome120", "edge120", "firefox121", "safari16", "ios16"}
	DefaultScriptExclude = []string{"*.min.js", "contact_me.js", "jqBootstrapValidation.js"}
	DefaultWatchIgnore   = []string{"node_modules", "vendor", ".git"}
)

const DefaultDebounce = 100 * time.Millisecond

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals, defaults and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Persistent flags are bound under flat keys and win over the file.
	if v.IsSet("dir") {
		config.Root = v.GetString("dir")
	}
	if v.IsSet("log-level") {
		config.Log.Level = v.GetString("log-level")
	}
	if v.IsSet("log-format") {
		config.Log.Format = v.GetString("log-format")
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// RegisterDefaults records the scalar defaults in v so that environment
// variables such as ASSETPIPE_PATHS_STYLES apply even when no config file
// mentions the key.
func RegisterDefaults(v *viper.Viper) {
	d := Default(".")
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("paths.styles", d.Paths.Styles)
	v.SetDefault("paths.styles_out", d.Paths.StylesOut)
	v.SetDefault("paths.scripts", d.Paths.Scripts)
	v.SetDefault("paths.vendor", d.Paths.Vendor)
	v.SetDefault("paths.modules", d.Paths.Modules)
	v.SetDefault("paths.descriptor", d.Paths.Descriptor)
	v.SetDefault("styles.sass", d.Styles.Sass)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Default returns a fully defaulted configuration rooted at root.
func Default(root string) *Config {
	config := &Config{Root: root}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.Root == "" {
		config.Root = "."
	}

	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}

	if config.Paths.Styles == "" {
		config.Paths.Styles = "scss"
	}
	if config.Paths.StylesOut == "" {
		config.Paths.StylesOut = "css"
	}
	if config.Paths.Scripts == "" {
		config.Paths.Scripts = "js"
	}
	if config.Paths.Vendor == "" {
		config.Paths.Vendor = "vendor"
	}
	if config.Paths.Modules == "" {
		config.Paths.Modules = "node_modules"
	}
	if config.Paths.Descriptor == "" {
		config.Paths.Descriptor = "package.json"
	}

	if config.Styles.Sass == "" {
		config.Styles.Sass = "sass"
	}
	if len(config.Styles.Targets) == 0 {
		config.Styles.Targets = append([]string(nil), DefaultTargets...)
	}
	if len(config.Styles.LoadPaths) == 0 {
		config.Styles.LoadPaths = []string{config.Paths.Modules}
	}

	if config.Scripts.Exclude == nil {
		config.Scripts.Exclude = append([]string(nil), DefaultScriptExclude...)
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = DefaultDebounce
	}
	if config.Watch.Ignore == nil {
		config.Watch.Ignore = append([]string(nil), DefaultWatchIgnore...)
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	paths := map[string]string{
		"paths.styles":     config.Paths.Styles,
		"paths.styles_out": config.Paths.StylesOut,
		"paths.scripts":    config.Paths.Scripts,
		"paths.vendor":     config.Paths.Vendor,
		"paths.modules":    config.Paths.Modules,
		"paths.descriptor": config.Paths.Descriptor,
	}
	for key, path := range paths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	// The vendor tree is deleted on every vendor run.
	if filepath.Clean(config.Paths.Vendor) == "." {
		return fmt.Errorf("paths.vendor must not be the project root")
	}

	for _, target := range config.Styles.Targets {
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("styles.targets contains an empty entry")
		}
	}

	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative: %s", config.Watch.Debounce)
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", config.Log.Format)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(config.Host, char) {
			return fmt.Errorf("host contains dangerous character: %s", char)
		}
	}

	return nil
}

// validatePath validates a project-relative path
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if filepath.IsAbs(cleanPath) {
		return fmt.Errorf("path must be relative to the project root: %s", path)
	}

	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	return nil
}
