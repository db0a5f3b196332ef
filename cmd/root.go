package cmd

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anneal-bench/anneal-bench/internal/config"
)

var (
	cfgFile  string // Config file path
	logLevel string // Log verbosity level
	debug    bool   // Live-reload mode

	appViper  *viper.Viper
	appConfig *config.Config
)

// rootCmd serves the comparison UI.
var rootCmd = &cobra.Command{
	Use:   "anneal-bench",
	Short: "Compare Advantage and Advantage2 QPUs on matched spin-glass problems",
	Long: `anneal-bench generates random spin-glass problems on the Chimera lattice that
an Advantage and an Advantage2 system have in common, runs each problem on both
with identical anneal parameters and compares the returned energies.

Without a subcommand it serves the web UI on server.addr.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              serve,
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./anneal-bench.yaml or ~/.config/anneal-bench/anneal-bench.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Reload templates and config on change; implies --log debug")
}

// setup configures logging and loads the configuration for every command.
func setup(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	if debug {
		level = logrus.DebugLevel
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logrus.SetLevel(level)

	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	appViper, appConfig = v, cfg
	return nil
}
