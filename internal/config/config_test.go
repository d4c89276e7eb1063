package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "localhost:3000", cfg.Server.Addr())
	assert.Equal(t, "scss", cfg.Paths.Styles)
	assert.Equal(t, "css", cfg.Paths.StylesOut)
	assert.Equal(t, "js", cfg.Paths.Scripts)
	assert.Equal(t, "vendor", cfg.Paths.Vendor)
	assert.Equal(t, "node_modules", cfg.Paths.Modules)
	assert.Equal(t, "package.json", cfg.Paths.Descriptor)
	assert.Equal(t, "sass", cfg.Styles.Sass)
	assert.Equal(t, DefaultTargets, cfg.Styles.Targets)
	assert.Equal(t, []string{"node_modules"}, cfg.Styles.LoadPaths)
	assert.Equal(t, DefaultScriptExclude, cfg.Scripts.Exclude)
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("server.port", 8081)
	v.Set("server.host", "0.0.0.0")
	v.Set("paths.styles", "sass")
	v.Set("styles.targets", []string{"chrome100"})
	v.Set("watch.debounce", "250ms")
	v.Set("dir", "site")
	v.Set("log-level", "debug")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Addr())
	assert.Equal(t, "sass", cfg.Paths.Styles)
	assert.Equal(t, []string{"chrome100"}, cfg.Styles.Targets)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "site", cfg.Root)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".assetpipe.yml")
	content := `
server:
  port: 4000
paths:
  styles_out: dist/css
scripts:
  exclude: ["*.min.js"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "dist/css", cfg.Paths.StylesOut)
	assert.Equal(t, []string{"*.min.js"}, cfg.Scripts.Exclude)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"port out of range", "server.port", 70000},
		{"host injection", "server.host", "localhost;rm"},
		{"absolute path", "paths.styles", "/etc"},
		{"traversal", "paths.vendor", "../outside"},
		{"vendor is root", "paths.vendor", "."},
		{"empty target", "styles.targets", []string{"chrome100", " "}},
		{"negative debounce", "watch.debounce", "-1s"},
		{"bad log format", "log.format", "xml"},
		{"unparseable port", "server.port", "invalid_port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)

			cfg, err := LoadFrom(v)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("/srv/site")

	assert.Equal(t, "/srv/site", cfg.Root)
	assert.Equal(t, 3000, cfg.Server.Port)
	require.NoError(t, validateConfig(cfg))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, validatePath("scss"))
	assert.NoError(t, validatePath("./assets/scss"))
	assert.NoError(t, validatePath("..hidden"))
	assert.Error(t, validatePath(""))
	assert.Error(t, validatePath(".."))
	assert.Error(t, validatePath("a/../../b"))
}

func TestRegisterDefaultsEnablesEnvOverrides(t *testing.T) {
	t.Setenv("ASSETPIPE_PATHS_STYLES", "styles")
	t.Setenv("ASSETPIPE_WATCH_DEBOUNCE", "1s")

	v := viper.New()
	RegisterDefaults(v)
	v.SetEnvPrefix("ASSETPIPE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "styles", cfg.Paths.Styles)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "css", cfg.Paths.StylesOut)
	assert.Equal(t, 3000, cfg.Server.Port)
}
