package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"docsearch/backend/go/internal/rag_service/rag/schema"
	"docsearch/backend/go/internal/rag_service/service"
)

var ingestMatch string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-dir>...",
	Short: "Add local .txt and .pdf files to the index",
	Long: `Add local files to the index. Directories are walked recursively and every
file whose lower-cased name matches --match is ingested.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern, err := glob.Compile(ingestMatch)
		if err != nil {
			return fmt.Errorf("invalid --match pattern: %w", err)
		}
		files, err := collectFiles(args, pattern)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no files matching %s", ingestMatch)
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, os.Stderr, service.Limits{MinFiles: 1}, false)
		if err != nil {
			return err
		}
		ingested, err := a.svc.Ingest(ctx, files)
		if closeErr := a.close(context.Background()); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, f := range ingested {
			fmt.Fprintf(out, "%s\t%s\t%d chunks\n", f.ID, f.Name, f.Chunks)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestMatch, "match", "*.{txt,pdf}", "glob applied to file names inside directories")
	rootCmd.AddCommand(ingestCmd)
}

// collectFiles reads every path given. Files named explicitly are always
// read; files found inside directories must match pattern. Documents are
// named by their base name as an upload would be.
func collectFiles(paths []string, pattern glob.Glob) ([]schema.UploadedFile, error) {
	var files []schema.UploadedFile
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if !info.IsDir() {
			f, err := readUpload(p)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !pattern.Match(strings.ToLower(d.Name())) {
				return nil
			}
			f, err := readUpload(path)
			if err != nil {
				return err
			}
			files = append(files, f)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func readUpload(path string) (schema.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.UploadedFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return schema.UploadedFile{Name: filepath.Base(path), Data: data}, nil
}
