package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelly/fphoto/internal/plan"
	"github.com/kelly/fphoto/internal/util"
)

// printPlan renders the plan as a table or as JSON on stdout.
func printPlan(p *plan.Plan, format string) error {
	switch format {
	case "json":
		return printPlanJSON(p)
	case "table", "":
		printPlanTable(p)
		return nil
	}
	return fmt.Errorf("unknown output format: %s", format)
}

func printPlanJSON(p *plan.Plan) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func printPlanTable(p *plan.Plan) {
	if len(p.Candidates) == 0 {
		fmt.Println("No JPG files found.")
		return
	}

	// Three columns: original, target, source; paths get whatever width
	// the terminal leaves after the fixed source column.
	width := util.TerminalWidth()
	sourceWidth := 14
	pathWidth := (width - sourceWidth - 6) / 2
	if pathWidth < 20 {
		pathWidth = 20
	}

	fmt.Printf("%-*s  %-*s  %s\n", pathWidth, "ORIGINAL", pathWidth, "TARGET", "SOURCE")

	for _, cand := range p.Candidates {
		original := truncateLeft(filepath.Base(cand.OriginalPath), pathWidth)
		target := truncateLeft(filepath.Base(cand.TargetPath), pathWidth)

		switch {
		case cand.Error != "":
			fmt.Printf("%-*s  %-*s  %s\n", pathWidth, original, pathWidth, "!", cand.Error)
		case !cand.Changed:
			fmt.Printf("%-*s  %-*s  %s\n", pathWidth, original, pathWidth, "=", cand.Source)
		default:
			fmt.Printf("%-*s  %-*s  %s\n", pathWidth, original, pathWidth, target, cand.Source)
		}
	}

	fmt.Println()
	fmt.Printf("Scanned %d files: %d to rename, %d unchanged, %d conflicts\n",
		p.Stats.ScannedFiles, p.Stats.Planned, p.Stats.Unchanged, p.Stats.Conflicts)
	if p.Stats.SkippedNonJPG > 0 {
		fmt.Printf("Skipped %d non-JPG files\n", p.Stats.SkippedNonJPG)
	}
	if p.Stats.SkippedHidden > 0 {
		fmt.Printf("Skipped %d hidden entries\n", p.Stats.SkippedHidden)
	}
}

// truncateLeft keeps the tail of long names, the end is the part that
// distinguishes photos shot the same day.
func truncateLeft(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[len(runes)-max:])
	}
	return "…" + string(runes[len(runes)-max+1:])
}
