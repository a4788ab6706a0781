package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joeblew999/plat-carto/internal/logging"
	"github.com/joeblew999/plat-carto/internal/style"
)

// runStyle reads widget bins from args[0], or stdin when it is absent or
// "-", and writes the derived document to out.
func runStyle(ctx context.Context, opts *Options, args []string, stdin io.Reader, out io.Writer) error {
	cfg, err := loadStyle(opts)
	if err != nil {
		return err
	}

	var raw []byte
	if len(args) == 1 && args[0] != "-" {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(stdin)
	}
	if err != nil {
		return fmt.Errorf("reading bins: %w", err)
	}

	data, err := style.ParseBucketData(raw)
	if err != nil {
		return err
	}
	doc, assigned, err := cfg.Build(data.Bins)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Debug("style derived", "buckets", len(assigned), "etag", doc.ETag())

	_, err = io.WriteString(out, doc.String())
	return err
}
