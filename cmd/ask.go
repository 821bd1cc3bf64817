package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/citeseek/citeseek/internal/pipeline"
)

var askFlags struct {
	docID        string
	topK         int
	section      string
	pageStart    int
	pageEnd      int
	contextTypes []string
	jsonOutput   bool
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about an ingested document",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askFlags.docID, "doc", "", "document id to query (required)")
	askCmd.Flags().IntVar(&askFlags.topK, "top-k", 0, "retrieval candidate pool size (0 = configured default)")
	askCmd.Flags().StringVar(&askFlags.section, "section", "", "restrict to a document section")
	askCmd.Flags().IntVar(&askFlags.pageStart, "page-start", 0, "restrict to pages at or after this page")
	askCmd.Flags().IntVar(&askFlags.pageEnd, "page-end", 0, "restrict to pages at or before this page")
	askCmd.Flags().StringSliceVar(&askFlags.contextTypes, "context-type", nil, "restrict to block types (table, footnote, reference, clause)")
	askCmd.Flags().BoolVar(&askFlags.jsonOutput, "json", false, "emit the full result as JSON")
	_ = askCmd.MarkFlagRequired("doc")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, cleanup, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	req := pipeline.Request{
		DocID:         askFlags.docID,
		Question:      strings.Join(args, " "),
		TopK:          askFlags.topK,
		SectionFilter: askFlags.section,
		PageStart:     askFlags.pageStart,
		PageEnd:       askFlags.pageEnd,
		ContextTypes:  askFlags.contextTypes,
	}

	res, err := a.Pipeline.Answer(ctx, req)
	if err != nil {
		// An upstream failure still carries a printable result.
		if res.Answer == "" {
			return err
		}
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if askFlags.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		return nil
	}

	printResult(res)
	return nil
}

func printResult(res pipeline.Result) {
	fmt.Println(res.Answer)

	if len(res.Citations) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		byID := make(map[string]int, len(res.Evidence))
		for i, e := range res.Evidence {
			byID[e.ID] = i
		}
		for _, id := range res.Citations {
			i, ok := byID[id]
			if !ok {
				continue
			}
			e := res.Evidence[i]
			loc := fmt.Sprintf("pages %d-%d", e.PageStart, e.PageEnd)
			if e.Section != "" {
				loc += ", " + e.Section
			}
			fmt.Printf("  [%s] %s (%s)\n", e.ID, e.Source, loc)
		}
	}

	fmt.Printf("\ntrace: %s\n", res.Trace.ID)
}
