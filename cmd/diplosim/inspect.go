package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/talgya/crossroads-diplomacy/internal/engine"
	"github.com/talgya/crossroads-diplomacy/internal/sandbox"
	"github.com/talgya/crossroads-diplomacy/internal/social"
)

var eventLimit int

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show factions, borders and recent events without advancing time",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSim()
		if err != nil {
			return err
		}
		defer s.close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Session %s, %s\n\n", s.session.ID, engine.SimDate(s.start))
		printSummary(out, s.world)

		snap := s.session.Loop().Refresh(s.start)
		fmt.Fprintln(out, "\nBorders:")
		for _, id := range snap.IDs() {
			var names []string
			for _, n := range snap.Neighbors().NeighborsOf(id) {
				names = append(names, snap.Name(n))
			}
			fmt.Fprintf(out, "  %-26s %v\n", snap.Name(id), names)
		}

		if s.db == nil || eventLimit <= 0 {
			return nil
		}
		events, err := s.db.RecentEvents(eventLimit)
		if err != nil {
			return fmt.Errorf("recent events: %w", err)
		}
		fmt.Fprintln(out, "\nRecent events:")
		for _, e := range events {
			fmt.Fprintf(out, "  [%s] %-11s %s\n", engine.SimDate(e.Day), e.Category, e.Description)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective engine tunables as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func init() {
	inspectCmd.Flags().IntVar(&eventLimit, "events", 20, "Recent events to list from --db")
}

// printSummary writes one line per faction: holdings, strength, treasury and stances.
func printSummary(out io.Writer, w *sandbox.World) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FACTION\tTERR\tSTRENGTH\tTREASURY\tWARS\tALLIES\tPACTS")
	l := w.Ledger()
	for _, f := range w.AllFactions() {
		name := f.Name
		if f.Minor {
			name += " (minor)"
		}
		if f.Eliminated {
			fmt.Fprintf(tw, "%s\t-\t-\t-\teliminated\t\t\n", name)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\t%d\n",
			name,
			len(w.Territories(f.ID)),
			humanize.CommafWithDigits(f.Strength, 0),
			humanize.Comma(int64(f.Wealth)),
			len(l.Partners(f.ID, social.StanceWar)),
			len(l.Partners(f.ID, social.StanceAlliance)),
			len(l.Partners(f.ID, social.StancePact)),
		)
	}
	tw.Flush()
}
