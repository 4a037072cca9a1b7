package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"interview-backend/internal/bootstrap"
	"interview-backend/internal/interviews"
	"interview-backend/internal/shared/config"
)

const defaultConcurrency = 2

// buildApp is replaced in tests.
var buildApp = func(ctx context.Context, cfg config.Config) (*bootstrap.App, error) {
	return bootstrap.Build(ctx, cfg, bootstrap.WithoutRouter())
}

type fileResult struct {
	Path string                 `json:"path"`
	Run  interviews.RunResponse `json:"run"`
	err  error
}

func newGenerateCmd() *cobra.Command {
	var (
		concurrency int
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "generate FILE...",
		Short: "Generate interview questions for each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), config.Load())
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}

			results := generateAll(cmd.Context(), app.Pipeline, args, concurrency)
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				writeText(cmd.OutOrStdout(), results)
			}

			failed := 0
			for _, r := range results {
				if r.err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", defaultConcurrency, "Files processed in parallel")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

// generateAll runs every file through the pipeline and returns the
// results in input order.
func generateAll(ctx context.Context, p *interviews.Pipeline, paths []string, limit int) []fileResult {
	results := make([]fileResult, len(paths))
	var g errgroup.Group
	g.SetLimit(max(1, limit))
	for i, path := range paths {
		g.Go(func() error {
			results[i] = runFile(ctx, p, path)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func runFile(ctx context.Context, p *interviews.Pipeline, path string) fileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{Path: path, err: err}
	}
	run, err := p.Run(ctx, interviews.Upload{FileName: filepath.Base(path), Data: data})
	return fileResult{Path: path, Run: interviews.NewRunResponse(run), err: err}
}

func writeText(w io.Writer, results []fileResult) {
	for _, r := range results {
		fmt.Fprintf(w, "==> %s\n", r.Path)
		if r.Run.RunID == "" && r.err != nil {
			fmt.Fprintf(w, "    error: %v\n", r.err)
			continue
		}
		for _, b := range r.Run.Banners {
			fmt.Fprintf(w, "    [%s] %s\n", b.Level, b.Message)
		}
		if r.Run.Questions != "" {
			fmt.Fprintln(w, r.Run.Questions)
		}
	}
}

func writeJSON(w io.Writer, results []fileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
