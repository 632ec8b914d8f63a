package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/idelchi/diskmap/internal/integration"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// DefaultExcludes contains the default exclusion patterns.
//
//nolint:gochecknoglobals // Config constant
var DefaultExcludes = []string{`.*\.git/.*`, `.*node_modules/.*`}

// options carries the parsed flag values into the run logic.
type options struct {
	path           string
	extensions     []string
	excludes       []string
	minSizeStr     string
	maxSizeStr     string
	minSize        int64
	maxSize        int64
	depth          int
	followSymlinks bool
	includeEmpty   bool
	concurrency    int
	layout         string
	layoutDepth    int
	cap            int
	extraSlots     int
	minShare       float64
	output         string
	savePath       string
	loadPath       string
	debug          bool
	initScript     bool
}

// Execute runs the CLI with the provided arguments.
func (c CLI) Execute() error {
	return c.command().Execute()
}

func (c CLI) command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "diskmap [flags] [path]",
		Short: "Analyze disk usage and lay it out as a squarified treemap",
		Long: heredoc.Doc(`
			diskmap scans a directory subtree, aggregates sizes into a tree,
			and can project the result as a squarified treemap: a list of
			space-proportional rectangles with near-square aspect ratios.

			Positional Arguments:
			  path                   Directory to analyze. Defaults to the current directory.

			Zero-size files and symbolic links are excluded from size accounting
			by default, and hardlinked files count exactly once per scan.

			Use --layout WxH (e.g. --layout 1024x768) to emit the treemap
			rectangles for the scanned tree; small siblings beyond --cap are
			folded into one "other (k items)" entry.

			The '-i' flag prints a shell snippet that pipes diskmap output
			through 'fzf' for interactive browsing.
		`),
		Args:          cobra.MaximumNArgs(1),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.initScript {
				rendered, err := integration.Render()
				if err != nil {
					return fmt.Errorf("rendering integration script: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return nil
			}

			if err := validate(&opts); err != nil {
				return err
			}

			if len(args) > 0 {
				opts.path = args[0]
			} else {
				opts.path = "."
			}

			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.extensions, "ext", "x",
		nil, "File suffixes to include (e.g., .go,.md). Use '!' prefix to exclude (e.g., !.log)")
	flags.StringSliceVarP(&opts.excludes, "exclude", "e",
		DefaultExcludes, "Regex patterns to exclude")
	flags.StringVar(&opts.minSizeStr, "min-size", "0B", "Minimum file size (e.g., 1KB)")
	flags.StringVar(&opts.maxSizeStr, "max-size", "", "Maximum file size (e.g., 1GB, empty = no cap)")
	flags.IntVarP(&opts.depth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
	flags.BoolVar(&opts.followSymlinks, "follow-symlinks", false, "Follow symbolic links (cycles are detected)")
	flags.BoolVar(&opts.includeEmpty, "include-empty", false, "Keep zero-size files in the tree")
	flags.IntVarP(&opts.concurrency, "concurrency", "c", 0, "Worker limit across sibling directories (0=default)")
	flags.StringVarP(&opts.layout, "layout", "l", "", "Emit treemap rectangles for a WxH canvas (e.g. 1024x768)")
	flags.IntVar(&opts.layoutDepth, "layout-depth", 0, "Maximum treemap nesting depth (0=unlimited)")
	flags.IntVar(&opts.cap, "cap", 10, "Siblings shown individually before folding into 'other'")
	flags.IntVar(&opts.extraSlots, "extra", 4, "Extra siblings kept individually while above --min-share")
	flags.Float64Var(&opts.minShare, "min-share", 0.01, "Minimum share of the parent an extra sibling must hold")
	flags.StringVarP(&opts.output, "output", "o", "table", "Output format: json or table")
	flags.StringVar(&opts.savePath, "save", "", "Write a snapshot of the scanned tree to FILE")
	flags.StringVar(&opts.loadPath, "load", "", "Load a snapshot from FILE instead of scanning")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug output")
	flags.BoolVarP(&opts.initScript, "init", "i", false, "Output init script for shell usage")
	flags.SortFlags = false

	return cmd
}

func validate(opts *options) error {
	allowedOutputs := []string{"table", "json"}
	if !slices.Contains(allowedOutputs, strings.ToLower(opts.output)) {
		return fmt.Errorf("invalid output format %q: must be one of %v", opts.output, allowedOutputs)
	}

	if opts.depth < 0 {
		return errors.New("depth cannot be negative")
	}

	if opts.minSizeStr != "" {
		size, err := humanize.ParseBytes(opts.minSizeStr)
		if err != nil {
			return fmt.Errorf("invalid min-size: %w", err)
		}
		opts.minSize = int64(size) //nolint:gosec // Size conversion from humanize is safe
	}

	if opts.maxSizeStr != "" {
		size, err := humanize.ParseBytes(opts.maxSizeStr)
		if err != nil {
			return fmt.Errorf("invalid max-size: %w", err)
		}
		opts.maxSize = int64(size) //nolint:gosec // Size conversion from humanize is safe
	}

	if opts.layout != "" {
		if _, _, err := parseCanvas(opts.layout); err != nil {
			return err
		}
	}

	return nil
}

// parseCanvas splits a WxH argument like "1024x768" into dimensions.
func parseCanvas(arg string) (w, h float64, err error) {
	parts := strings.SplitN(strings.ToLower(arg), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid layout %q: expected WxH, e.g. 1024x768", arg)
	}
	if _, err := fmt.Sscanf(parts[0], "%g", &w); err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid layout width %q", parts[0])
	}
	if _, err := fmt.Sscanf(parts[1], "%g", &h); err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid layout height %q", parts[1])
	}
	return w, h, nil
}
