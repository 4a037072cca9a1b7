package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"interview-backend/internal/extract"
	"interview-backend/internal/interviews"
	"interview-backend/internal/shared/config"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract FILE...",
		Short: "Print the text extracted from each file after the size and content checks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			gates := interviews.Gates{MaxUploadMB: cfg.MaxUploadMB, MinTextLength: cfg.MinTextLength}
			p := interviews.NewPipeline(extract.New(), nil, gates)

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				if err := previewFile(cmd.Context(), out, p, path); err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}

// previewFile checks the declared size before reading so oversized files
// are never loaded.
func previewFile(ctx context.Context, w io.Writer, p *interviews.Pipeline, path string) error {
	fmt.Fprintf(w, "==> %s\n", path)
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(w, "    error: %v\n", err)
		return err
	}

	up := interviews.Upload{FileName: filepath.Base(path), Size: info.Size()}
	if p.Gates().CheckSize(info.Size()) == nil {
		if up.Data, err = os.ReadFile(path); err != nil {
			fmt.Fprintf(w, "    error: %v\n", err)
			return err
		}
	}

	run, err := p.Preview(ctx, up)
	for _, b := range run.Banners {
		fmt.Fprintf(w, "    [%s] %s\n", b.Level, b.Message)
	}
	if run.ExtractedText != "" {
		fmt.Fprintf(w, "    (%s, %d chars)\n", run.Strategy, utf8.RuneCountInString(run.ExtractedText))
		fmt.Fprintln(w, run.ExtractedText)
	}
	return err
}
