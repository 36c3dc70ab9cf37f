package cmd

import (
	"fmt"
	"os"

	"github.com/leoprim/ranked-tracker-web/internal/config"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	Cfg      *config.Config
	Version  string
)

var RootCmd = &cobra.Command{
	Use:   "ranked-tracker-web",
	Short: "Ranked Tracker web - download page for the SR Tracker OBS plugin",
	Long: `Serves the SR Tracker download page and a redirect endpoint that
points at the installer of the newest tagged plugin release on GitHub.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(version string) error {
	Version = version
	return RootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config file)")
}

func initConfig() {
	var err error

	Cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Printf("Fatal: Configuration could not be loaded: %v\n", err)
		os.Exit(1)
	}

	// Override log level if provided via command line flag
	if logLevel != "" {
		Cfg.Logging.Level = logLevel
	}

	if err := logger.Init(Cfg.LoggerConfig("root")); err != nil {
		fmt.Printf("Fatal: Logger could not be initialized: %v\n", err)
		os.Exit(1)
	}
}
