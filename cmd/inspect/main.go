package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/halcyon-labs/attune/internal/archive"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to attune.db")
	conversation := flag.String("conversation", "local", "conversation ID")
	last := flag.Int("last", 20, "show N most recent versions")
	version := flag.String("version", "", "show single version detail")
	turns := flag.Bool("turns", false, "show provenance log instead of versions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/attune.db [--conversation id] [--last N] [--version id] [--turns] [--json]")
		os.Exit(2)
	}

	store, err := archive.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *version != "":
		err = runDetailMode(store, *version, *jsonOut)
	case *turns:
		err = runTurnsMode(store, *conversation, *last, *jsonOut)
	default:
		err = runListMode(store, *conversation, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	VersionID string  `json:"version_id"`
	ParentID  string  `json:"parent_id,omitempty"`
	TurnCount int     `json:"turn_count"`
	Trust     float64 `json:"trust"`
	Stance    string  `json:"last_stance,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func runListMode(store *archive.Store, conversationID string, last int, jsonOut bool) error {
	records, err := store.ListVersions(conversationID, last)
	if err != nil {
		return err
	}

	rows := make([]listRow, 0, len(records))
	for _, rec := range records {
		row := listRow{
			VersionID: rec.VersionID,
			ParentID:  rec.ParentID,
			TurnCount: rec.State.TurnCount,
			CreatedAt: rec.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if n := len(rec.State.TrustArc); n > 0 {
			row.Trust = rec.State.TrustArc[n-1]
		}
		if n := len(rec.State.StanceArc); n > 0 {
			row.Stance = string(rec.State.StanceArc[n-1])
		}
		rows = append(rows, row)
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-38s %-6s %-6s %-14s %s\n", "VERSION", "TURNS", "TRUST", "STANCE", "CREATED")
	for _, row := range rows {
		fmt.Printf("%-38s %-6d %-6.2f %-14s %s\n",
			row.VersionID, row.TurnCount, row.Trust, orDash(row.Stance), row.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(store *archive.Store, versionID string, jsonOut bool) error {
	rec, err := store.GetVersion(versionID)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(rec)
	}

	s := rec.State
	fmt.Printf("Version:      %s\n", rec.VersionID)
	fmt.Printf("Parent:       %s\n", orDash(rec.ParentID))
	fmt.Printf("Conversation: %s\n", rec.ConversationID)
	fmt.Printf("Turns:        %d\n", s.TurnCount)
	fmt.Printf("Stance arc:   %s\n", joinArc(s.StanceArc))
	fmt.Printf("Pace arc:     %s\n", joinArc(s.PaceArc))
	fmt.Printf("Trust arc:    %s\n", joinFloats(s.TrustArc))
	fmt.Printf("Individuals:  %s\n", orDash(strings.Join(s.Individuals, ", ")))
	fmt.Printf("Contradictions: %d active\n", len(s.ActiveContradictions))
	for _, c := range s.ActiveContradictions {
		fmt.Printf("  surface=%q underlying=%q connector=%s (turn %d)\n",
			c.Surface, c.Underlying, c.Connector, c.LastSeenTurn)
	}
	return nil
}

// #endregion detail-mode

// #region turns-mode

func runTurnsMode(store *archive.Store, conversationID string, last int, jsonOut bool) error {
	entries, err := store.ListTurns(conversationID, last)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(entries)
	}

	fmt.Printf("%-5s %-18s %-12s %-20s %-7s %-7s %s\n",
		"TURN", "ROUTE", "STANCE", "PACE", "SAFETY", "ATTUNE", "BLOCKS")
	for _, e := range entries {
		fmt.Printf("%-5d %-18s %-12s %-20s %-7.2f %-7.2f %s\n",
			e.TurnIndex, e.Route, orDash(e.Stance), orDash(e.Pace),
			e.Safety, e.Attunement, orDash(e.BlocksUsed))
	}
	return nil
}

// #endregion turns-mode

// #region helpers

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinArc[T ~string](arc []T) string {
	if len(arc) == 0 {
		return "-"
	}
	parts := make([]string, len(arc))
	for i, v := range arc {
		parts[i] = string(v)
	}
	return strings.Join(parts, " -> ")
}

func joinFloats(arc []float64) string {
	if len(arc) == 0 {
		return "-"
	}
	parts := make([]string, len(arc))
	for i, v := range arc {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return strings.Join(parts, " -> ")
}

// #endregion helpers
