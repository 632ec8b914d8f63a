package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// PrintJSON outputs the report in JSON format.
func PrintJSON(report *Report, writer io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintTable outputs the report in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(report *Report, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintf(w, "\n%s\t(%s)\n", report.Path, report.State)

	if len(report.Largest) > 0 {
		fmt.Fprintln(w, "\nLargest entries:\t\t")
		for i, entry := range report.Largest {
			pct := 0.0
			if report.TotalSize > 0 {
				pct = 100.0 * float64(entry.Size) / float64(report.TotalSize)
			}
			marker := ""
			if entry.Dir {
				marker = "/"
			}
			fmt.Fprintf(w, "  %d) %s%s\t%s (%.1f%%)\n",
				i+1, entry.Name, marker, humanize.IBytes(uint64(entry.Size)), pct) //nolint:gosec // Sizes are non-negative
		}
	}

	if len(report.Rects) > 0 {
		fmt.Fprintln(w, "\nTreemap:\t\t")
		for _, r := range report.Rects {
			indent := ""
			for i := 0; i < r.Depth; i++ {
				indent += "  "
			}
			fmt.Fprintf(w, "  %s%s\t[%.1f %.1f %.1f %.1f]\t%s\n",
				indent, r.Name, r.Rect.X, r.Rect.Y, r.Rect.W, r.Rect.H,
				humanize.IBytes(uint64(r.Weight))) //nolint:gosec // Weights are non-negative
		}
	}

	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Total files:\t%d\n", report.Stats.Files)
	fmt.Fprintf(w, "Total directories:\t%d\n", report.Stats.Dirs)
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n",
		humanize.IBytes(uint64(report.TotalSize)), report.TotalSize) //nolint:gosec // Sizes are non-negative

	if report.Stats.Errors > 0 {
		fmt.Fprintf(w, "Errors:\t%d\n", report.Stats.Errors)
	}

	if report.Elapsed > 0 {
		fmt.Fprintf(w, "\nElapsed:\t%v\n", report.Elapsed)
	}

	return w.Flush()
}
