package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/idelchi/diskmap/internal/scan"
	"github.com/idelchi/diskmap/internal/tree"
	"github.com/idelchi/diskmap/internal/treemap"
)

// Report is the command's result: scan statistics plus, when requested,
// the treemap rectangle list.
type Report struct {
	Path      string                `json:"path"`
	State     string                `json:"state"`
	TotalSize int64                 `json:"totalSize"`
	Stats     scan.StatsView        `json:"stats"`
	Elapsed   time.Duration         `json:"elapsed"`
	Largest   []EntrySummary        `json:"largest,omitempty"`
	Rects     []treemap.TreeMapRect `json:"rects,omitempty"`
	Errors    []string              `json:"errors,omitempty"`
}

// EntrySummary is one row of the largest-entries table: a direct child
// of the root after small-item merging.
type EntrySummary struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Dir       bool   `json:"dir"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

func run(opts options) error {
	logger := zerolog.Nop()
	if opts.debug {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	if opts.loadPath != "" {
		return reportFromSnapshot(opts)
	}

	enableProgress := strings.ToLower(opts.output) != "json" &&
		!opts.debug &&
		isatty.IsTerminal(os.Stderr.Fd())

	// Ctrl-C cancels the task; partial results are still reported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := scan.DefaultConfig()
	cfg.Extensions = opts.extensions
	cfg.Excludes = opts.excludes
	cfg.MinSize = opts.minSize
	cfg.MaxSize = opts.maxSize
	cfg.Depth = opts.depth
	cfg.FollowSymlinks = opts.followSymlinks
	cfg.IncludeEmpty = opts.includeEmpty
	cfg.Logger = logger
	if opts.concurrency > 0 {
		cfg.Concurrency = opts.concurrency
	}

	if enableProgress {
		// Quick pre-pass so progress can show an ETA.
		_, estBytes := scan.Estimate(ctx, opts.path)
		cfg.EstimateBytes = estBytes
	}

	start := time.Now()
	task := scan.NewTask(opts.path, cfg)
	events, err := task.Start(ctx)
	if err != nil {
		return err
	}

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(os.Stderr, "\033[?25l")
		defer fmt.Fprint(os.Stderr, "\033[?25h")
	}

	for ev := range events {
		if ev.Kind == scan.EventProgress && enableProgress {
			printProgress(ev.Progress)
		}
	}

	if enableProgress {
		fmt.Fprint(os.Stderr, "\r\033[2K\r")
	}

	state := task.Wait()
	if state == scan.StateFailed {
		return task.Err()
	}

	if opts.savePath != "" {
		stats := task.Stats()
		snap := tree.NewSnapshot(task.Root(), state.String(), tree.SnapshotStats{
			Files:  stats.Files,
			Dirs:   stats.Dirs,
			Bytes:  stats.Bytes,
			Errors: stats.Errors,
		})
		if err := snap.SaveFile(opts.savePath); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
	}

	report := buildReport(task.Root(), state.String(), task.Stats(), time.Since(start), opts)
	for _, entryErr := range task.Errors() {
		report.Errors = append(report.Errors, entryErr.Error())
	}

	return output(report, opts)
}

// reportFromSnapshot replays a saved tree instead of scanning.
func reportFromSnapshot(opts options) error {
	snap, err := tree.LoadFile(opts.loadPath)
	if err != nil {
		return err
	}
	root, err := snap.Root()
	if err != nil {
		return err
	}

	report := buildReport(root, snap.TaskState, scan.StatsView{
		Files:  snap.Stats.Files,
		Dirs:   snap.Stats.Dirs,
		Bytes:  snap.Stats.Bytes,
		Errors: snap.Stats.Errors,
	}, 0, opts)

	return output(report, opts)
}

func buildReport(root *tree.Node, state string, stats scan.StatsView, elapsed time.Duration, opts options) *Report {
	mergeOpts := treemap.Options{
		MaxChildren: opts.cap,
		ExtraSlots:  opts.extraSlots,
		MinShare:    opts.minShare,
		MaxDepth:    opts.layoutDepth,
	}

	report := &Report{
		Path:      root.Path(),
		State:     state,
		TotalSize: root.TotalSize(),
		Stats:     stats,
		Elapsed:   elapsed,
	}

	for _, item := range treemap.MergeChildren(root, mergeOpts) {
		report.Largest = append(report.Largest, EntrySummary{
			Name:      item.Name,
			Size:      item.Weight,
			Dir:       item.Node != nil && item.Node.IsDir(),
			Synthetic: item.Synthetic(),
		})
	}

	if opts.layout != "" {
		w, h, _ := parseCanvas(opts.layout)
		engine := treemap.NewEngine(mergeOpts, treemap.NewCache(0))
		report.Rects = engine.Layout(root, treemap.Rect{W: w, H: h})
	}

	return report
}

func output(report *Report, opts options) error {
	switch strings.ToLower(opts.output) {
	case "json":
		return PrintJSON(report, os.Stdout)
	case "table":
		return PrintTable(report, os.Stdout)
	default:
		return fmt.Errorf("unknown output format: %s", opts.output)
	}
}

// printProgress rewrites the status line in place on stderr.
func printProgress(snap scan.Snapshot) {
	msg := fmt.Sprintf("Scanning… %d files, %s",
		snap.Files, humanize.IBytes(uint64(snap.Bytes))) //nolint:gosec // Bytes is always positive
	if snap.ETA > 0 {
		msg += fmt.Sprintf(" (ETA %s)", snap.ETA.Round(time.Second))
	}
	fmt.Fprintf(os.Stderr, "\r\033[2K%s\r", msg)
}
