// diskmap analyzes disk usage and projects it as a squarified treemap.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/diskmap/internal/cli"
)

// version is set at build time via -ldflags.
//
//nolint:gochecknoglobals // Build-time variable
var version = "dev"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "diskmap: %v\n", err)
		os.Exit(1)
	}
}
