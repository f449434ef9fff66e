package cmd

import (
	"fmt"
	"os"
	"strings"

	"statement-extraction-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	verbose   bool
	quiet     bool
	logFormat string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "extractor",
	Short: "Bank statement transaction extraction tool",
	Long: `Extractor reconstructs structured transaction records from bank
statement documents. It reads PDF or plain-text statements, parses the
transaction lines with a cascade of format strategies, applies data
quality fixes, validates the result, and writes CSV and validation
report artifacts.

Examples:
  extractor extract --input statement.pdf --output-dir output
  extractor extract --input data/ --output-dir output --report-format json
  extractor serve --port 8080
  extractor generate --layout paired --count 50 --output-dir samples`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only report errors")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")

	bindFlags(rootCmd.PersistentFlags())
}

// bindFlags mirrors every flag into viper so config files and
// environment variables can override them
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viper.BindPFlag(f.Name, f)
	})
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not read config file %s: %v; using defaults\n", cfgFile, err)
		} else if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("EXTRACTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configureLogging()
}

// loggingConfig picks the logger configuration from the persistent
// flags. Quiet wins over verbose.
func loggingConfig() *logger.Config {
	logConfig := logger.DefaultConfig()
	switch {
	case viper.GetBool("quiet"):
		logConfig = logger.QuietConfig()
	case viper.GetBool("verbose"):
		logConfig = logger.DebugConfig()
	}
	if format := viper.GetString("log-format"); format != "" {
		logConfig.Format = logger.Format(format)
	}
	return logConfig
}

// configureLogging replaces the global logger according to the
// persistent flags
func configureLogging() {
	log, err := logger.NewLogger(loggingConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid logging configuration: %v\n", err)
		return
	}
	logger.SetGlobalLogger(log)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
