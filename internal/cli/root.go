package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aissistant/config"
	"aissistant/internal/logging"
)

var (
	cfgFile     string
	dataDir     string
	personaFlag string
	modelFlag   string
	cfg         *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "aissistant",
	Short: "AI assistant for code and general questions, grounded in your documents",
	Long: `aissistant wraps a hosted model behind a local CLI. It keeps
conversations in a local database, ingests your documents into a
knowledge store and grounds answers in them, all under a strict
token budget.

Example usage:
  aissistant ask "how do I read a file in Go?"
  aissistant ingest ./docs          # build the knowledge store
  aissistant chat                   # interactive session
  aissistant usage                  # token and cost report`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if dataDir == "" {
			dataDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(dataDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if personaFlag != "" {
			cfg.Chat.Persona = personaFlag
		}
		if modelFlag != "" {
			cfg.Provider.Model = modelFlag
		}
		logging.SetLevel(cfg.Logging.Level)

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./aissistant.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default is current directory)")
	rootCmd.PersistentFlags().StringVarP(&personaFlag, "persona", "p", "", "persona to answer as")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "model override")
}

func GetConfig() *config.Config {
	return cfg
}

func GetDataDir() string {
	return dataDir
}
