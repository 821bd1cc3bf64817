package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/citeseek/citeseek/internal/ingest"
)

var ingestFlags struct {
	docID        string
	docType      string
	namespace    string
	chunkChars   int
	overlapChars int
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Chunk, embed, and index a document",
	Long: `Ingest reads a document export and indexes it for retrieval.

Accepted formats:
  .json    array of blocks: {"page", "section", "text", "block_type"}
  .txt/.md plain text; form-feed separates pages, "# Heading" lines set
           the section

Re-ingesting a document id replaces its previous chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFlags.docID, "doc", "", "document id (default: content hash)")
	ingestCmd.Flags().StringVar(&ingestFlags.docType, "type", "", "document type: scholarly, financial, legal, scan (default: detected)")
	ingestCmd.Flags().StringVar(&ingestFlags.namespace, "namespace", "", "index namespace (default: configured)")
	ingestCmd.Flags().IntVar(&ingestFlags.chunkChars, "chunk-chars", 0, "chunk size override")
	ingestCmd.Flags().IntVar(&ingestFlags.overlapChars, "overlap-chars", 0, "chunk overlap override")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	blocks, err := ingest.ParseBlocks(path, data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	a, cleanup, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	namespace := ingestFlags.namespace
	if namespace == "" {
		namespace = a.Config.Namespace
	}

	res, err := a.Ingestor.Ingest(ctx, ingest.Request{
		DocID:        ingestFlags.docID,
		Filename:     filepath.Base(path),
		Namespace:    namespace,
		Blocks:       blocks,
		DocType:      ingestFlags.docType,
		ChunkChars:   ingestFlags.chunkChars,
		OverlapChars: ingestFlags.overlapChars,
	})
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	fmt.Printf("Ingested %s\n", res.Filename)
	fmt.Printf("  doc id:    %s\n", res.DocID)
	fmt.Printf("  doc type:  %s\n", res.DocType)
	fmt.Printf("  namespace: %s\n", res.Namespace)
	fmt.Printf("  pages:     %d\n", res.Pages)
	fmt.Printf("  chunks:    %d\n", res.Chunks)
	if res.Dropped > 0 {
		fmt.Printf("  dropped:   %d (suspicious content)\n", res.Dropped)
	}
	return nil
}
