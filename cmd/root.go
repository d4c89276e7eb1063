// Package cmd provides the command-line interface for assetpipe.
//
// Configuration System:
//
//	Settings are resolved from several sources with clear precedence:
//	1. Command-line flags (--dir, --port, --log-level, etc.) - highest priority
//	2. Individual environment variables (ASSETPIPE_SERVER_PORT, etc.)
//	3. Configuration file (--config, ASSETPIPE_CONFIG_FILE or .assetpipe.yml)
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	ASSETPIPE_CONFIG_FILE: Path to custom configuration file
//	ASSETPIPE_SERVER_PORT: Override dev server port
//	ASSETPIPE_SERVER_HOST: Override dev server host
//	And more following the ASSETPIPE_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/assetpipe/internal/config"
	"github.com/conneroisu/assetpipe/internal/task"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "assetpipe",
	Short: "Asset build pipeline and live-reload dev server for static sites",
	Long: `assetpipe builds the front-end assets of a static site: it copies
third-party libraries from node_modules into vendor/, compiles SCSS into
prefixed and minified CSS, minifies scripts, and serves the site with live
reload while watching for changes.

Running assetpipe without a task runs "build".

Tasks:
  assetpipe clean                 Delete the vendor directory
  assetpipe vendor                Clean and copy third-party assets
  assetpipe css                   Compile, prefix and minify stylesheets
  assetpipe js                    Minify scripts
  assetpipe build                 vendor, then css and js in parallel
  assetpipe watch                 build, then serve and rebuild on change`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(cmd, task.Default)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	addGlobalFlags(rootCmd)
}

// initConfig initializes the configuration system.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. ASSETPIPE_CONFIG_FILE environment variable
//  3. .assetpipe.yml in the project directory (--dir) or the working directory
//
// Every value can also be set through the environment with the ASSETPIPE_
// prefix, e.g. ASSETPIPE_SERVER_PORT=8080.
func initConfig() {
	bindFlags(rootCmd)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("ASSETPIPE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		if dir := viper.GetString("dir"); dir != "" {
			viper.AddConfigPath(dir)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".assetpipe")
	}

	config.RegisterDefaults(viper.GetViper())
	viper.SetEnvPrefix("ASSETPIPE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// A missing config file is fine; defaults apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
