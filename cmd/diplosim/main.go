// Command diplosim runs the diplomacy engine against a generated sandbox world.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	dbPath     string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "diplosim",
	Short: "Faction diplomacy simulator",
	Long: `diplosim generates a small hex world of rival factions and lets them
declare war, make peace, and form or break alliances and pacts, printing
the reasoning behind every move.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite file to resume from and save to (empty: in-memory run)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML file overriding engine tunables")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
