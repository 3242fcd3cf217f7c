package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "prosumer",
	Short: "Rolling horizon battery dispatch for prosumers",
	Long: `prosumer optimizes the battery schedule of every configured agent window
after window, carrying the state of charge from one window to the next.
Without a subcommand it behaves like "prosumer run".`,
	PersistentPreRunE: loadEnv,
	RunE:              runDispatch,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file with K_ overrides")
	addRunFlags(rootCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadEnv reads the dotenv file when present. Variables already set in the
// environment win.
func loadEnv(_ *cobra.Command, _ []string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}
