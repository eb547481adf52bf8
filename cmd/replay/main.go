package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/halcyon-labs/attune/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to conversation fixture JSON")
	jsonOut := flag.Bool("json", false, "output results as JSON instead of text")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/conversation.json [--json]")
		os.Exit(2)
	}

	f, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(2)
	}

	results, summary, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(2)
	}

	if *jsonOut {
		out := struct {
			Results []replay.Result `json:"results"`
			Summary replay.Summary  `json:"summary"`
		}{results, summary}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(2)
		}
	} else {
		printText(f, results, summary)
	}

	if summary.Mismatched > 0 {
		os.Exit(1)
	}
}

// #endregion main

// #region text-output

func printText(f *replay.Fixture, results []replay.Result, summary replay.Summary) {
	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}
	for _, r := range results {
		status := "ok"
		if len(r.Mismatches) > 0 {
			status = "MISMATCH"
		}
		fmt.Printf("%-10s %-18s stance=%-12s pace=%-20s blocks=%v [%s]\n",
			r.TurnID, r.Source, orDash(r.Stance), orDash(r.Pace), r.BlocksUsed, status)
		for _, m := range r.Mismatches {
			fmt.Printf("           %s: want %s, got %s\n", m.Field, m.Want, m.Got)
		}
	}
	fmt.Printf("\n%d turns: %d matched, %d mismatched, %d routed. Final trust %.2f.\n",
		summary.TotalTurns, summary.Matched, summary.Mismatched, summary.RoutedTurns, summary.FinalTrust)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion text-output
