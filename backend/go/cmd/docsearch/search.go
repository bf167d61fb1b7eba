package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docsearch/backend/go/internal/rag_service/service"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank indexed chunks against a keyword query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, os.Stderr, service.Limits{}, true)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		results, err := a.svc.Search(strings.Join(args, " "), searchLimit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no results")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tDOCUMENT\tTEXT")
		for _, r := range results {
			fmt.Fprintf(tw, "%.3f\t%s\t%s\n", r.Score, r.DocumentName, oneLine(r.Text, 100))
		}
		return tw.Flush()
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, os.Stderr, service.Limits{}, true)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		answer, err := a.svc.Ask(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, answer.Answer)
		if len(answer.Citations) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Sources:")
			for _, c := range answer.Citations {
				fmt.Fprintf(out, "  - %s\n", oneLine(c, 0))
			}
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index sizes and document names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, os.Stderr, service.Limits{}, true)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		st := a.svc.Stats()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "documents: %d\nchunks:    %d\n", st.TotalDocuments, st.TotalChunks)
		for _, name := range st.Documents {
			fmt.Fprintf(out, "  %s\n", name)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	rootCmd.AddCommand(searchCmd, askCmd, statsCmd)
}

// oneLine collapses whitespace and cuts s to limit characters when limit > 3.
func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit > 3 {
		if r := []rune(s); len(r) > limit {
			return string(r[:limit-3]) + "..."
		}
	}
	return s
}
