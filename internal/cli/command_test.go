package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCanvas(t *testing.T) {
	w, h, err := parseCanvas("1024x768")
	require.NoError(t, err)
	require.Equal(t, 1024.0, w)
	require.Equal(t, 768.0, h)

	w, h, err = parseCanvas("100.5X20.25")
	require.NoError(t, err)
	require.Equal(t, 100.5, w)
	require.Equal(t, 20.25, h)

	for _, bad := range []string{"", "1024", "x768", "1024x", "0x768", "1024x-1", "axb"} {
		_, _, err := parseCanvas(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestValidate(t *testing.T) {
	opts := options{output: "table"}
	require.NoError(t, validate(&opts))

	opts = options{output: "xml"}
	require.Error(t, validate(&opts))

	opts = options{output: "json", depth: -1}
	require.Error(t, validate(&opts))

	opts = options{output: "table", minSizeStr: "1 MiB", maxSizeStr: "2GB"}
	require.NoError(t, validate(&opts))
	require.EqualValues(t, 1<<20, opts.minSize)
	require.EqualValues(t, 2_000_000_000, opts.maxSize)

	opts = options{output: "table", minSizeStr: "lots"}
	require.Error(t, validate(&opts))

	opts = options{output: "table", layout: "800x600"}
	require.NoError(t, validate(&opts))

	opts = options{output: "table", layout: "800"}
	require.Error(t, validate(&opts))
}
