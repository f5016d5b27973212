package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/shift-roster/ingest"
	"github.com/warp/shift-roster/logging"
	"github.com/warp/shift-roster/schedule"
)

var (
	generateCSV  string
	generateSeed int64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate next week's roster from a CSV export",
	Long: `Generate next week's roster from a CSV export without starting the server.

The roster is not locked. Cumulative load includes every week already in
the configured history store.

Examples:
  roster generate --csv ./export.csv
  roster generate --csv ./export.csv --seed 42
`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateCSV, "csv", "", "Path to the availability CSV export (required)")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Tie-break seed (0 = roster.tie_break_seed from config)")
	_ = generateCmd.MarkFlagRequired("csv")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	data, err := os.ReadFile(generateCSV)
	if err != nil {
		return fmt.Errorf("read %s: %w", generateCSV, err)
	}

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	seed := generateSeed
	if seed == 0 {
		seed = cfg.Roster.TieBreakSeed
	}

	session := ingest.NewSession(ingest.StaticFetcher{}, schedule.NewDirectory(cfg.StaffDirectory()),
		ingest.WithLogger(logging.Component(logger, "ingest")))
	snap := session.LoadText(string(data), generateCSV)

	planner := schedule.NewPlanner(store, schedule.NewEngine(schedule.NewRandomTieBreaker(seed)),
		schedule.WithLogger(logging.Component(logger, "planner")))

	out, err := planner.Generate(cmd.Context(), snap.Registrations, snap.Employees)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	week := planner.Week()
	fmt.Fprintf(w, "Week %s\n\n", week.Key())
	printRoster(w, out.Roster, &week)

	if len(out.Underfilled) > 0 {
		names := make([]string, 0, len(out.Underfilled))
		for _, s := range out.Underfilled {
			names = append(names, s.String())
		}
		fmt.Fprintf(w, "\nUnder-filled: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintln(w)
	printLoad(w, planner.Load(cmd.Context(), session.Directory().Employees()))
	return nil
}

// printRoster writes one line per day. week may be nil when dates are unknown.
func printRoster(w io.Writer, r schedule.Roster, week *schedule.Week) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tSHIFT 1\tSHIFT 2\tSHIFT 3")
	for _, d := range schedule.Days {
		label := string(d)
		if week != nil {
			label += " " + week.Label(d)
		}
		cells := make([]string, 0, len(schedule.Shifts))
		for _, s := range schedule.Shifts {
			names := r.Cell(d, s)
			if len(names) == 0 {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, strings.Join(names, ", "))
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

func printLoad(w io.Writer, entries []schedule.LoadEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMPLOYEE\tTHIS WEEK\tTOTAL\tHOURS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", e.Name, e.Current, e.Total, e.Hours.String())
	}
	tw.Flush()
}
