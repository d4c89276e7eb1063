package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// GlobalFlags are accepted by every command.
type GlobalFlags struct {
	Dir       string
	LogLevel  string
	LogFormat string
}

// ServerFlags override the dev server address for watch.
type ServerFlags struct {
	Port int
	Host string
}

var (
	globalFlags GlobalFlags
	serverFlags ServerFlags
)

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .assetpipe.yml, can also use ASSETPIPE_CONFIG_FILE env var)")
	flags.StringVarP(&globalFlags.Dir, "dir", "C", "", "project root (default is the working directory)")
	flags.StringVarP(&globalFlags.LogLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&globalFlags.LogFormat, "log-format", "text", "log format (text, json)")
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&serverFlags.Port, "port", "p", 3000, "Port to serve on")
	cmd.Flags().StringVar(&serverFlags.Host, "host", "localhost", "Host to bind to")
}

// flagBindings maps viper keys to the flags that set them. The flat keys are
// folded into the config sections by config.LoadFrom.
var flagBindings = map[string]string{
	"dir":         "dir",
	"log-level":   "log-level",
	"log-format":  "log-format",
	"server.port": "port",
	"server.host": "host",
}

// bindFlags binds every known flag of cmd and its subcommands to viper.
func bindFlags(root *cobra.Command) {
	lookup := func(name string) *pflag.Flag {
		if f := root.PersistentFlags().Lookup(name); f != nil {
			return f
		}
		for _, c := range root.Commands() {
			if f := c.Flags().Lookup(name); f != nil {
				return f
			}
		}
		return nil
	}

	for key, name := range flagBindings {
		if f := lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}
