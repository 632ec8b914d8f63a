package scan

import (
	"context"
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// Estimate runs a quick parallel pre-pass over root and returns the
// regular-file count and byte total, which the progress reporter uses as
// the ETA denominator. It is best effort: entry errors are ignored and a
// cancelled walk returns whatever was counted so far. Symlinks are never
// followed and no filtering is applied, so the estimate is an upper
// bound on what the real scan will count.
func Estimate(ctx context.Context, root string) (files, bytes int64) {
	var fileCount, byteCount atomic.Int64

	conf := &fastwalk.Config{Follow: false}
	_ = fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return context.Canceled
		default:
		}

		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		fileCount.Add(1)
		byteCount.Add(info.Size())
		return nil
	})

	return fileCount.Load(), byteCount.Load()
}
