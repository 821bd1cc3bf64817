package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var docsFlags struct {
	namespace string
	limit     int
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage ingested documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Remove a document and its chunks from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	docsCmd.PersistentFlags().StringVar(&docsFlags.namespace, "namespace", "", "index namespace (default: configured)")
	docsListCmd.Flags().IntVar(&docsFlags.limit, "limit", 50, "maximum documents to list")
	docsCmd.AddCommand(docsListCmd, docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, cleanup, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	namespace := docsFlags.namespace
	if namespace == "" {
		namespace = a.Config.Namespace
	}

	docs, err := a.Store.ListDocuments(ctx, namespace, docsFlags.limit)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Printf("No documents in namespace %q.\n", namespace)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOC ID\tFILE\tTYPE\tPAGES\tCHUNKS\tINGESTED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			d.DocID, d.Filename, d.DocType, d.Pages, d.ChunkCount,
			d.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, cleanup, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	namespace := docsFlags.namespace
	if namespace == "" {
		namespace = a.Config.Namespace
	}

	docID := args[0]
	if err := a.Store.DeleteDocument(ctx, namespace, docID); err != nil {
		return fmt.Errorf("deleting document %q: %w", docID, err)
	}
	fmt.Printf("Deleted %s from namespace %q.\n", docID, namespace)
	return nil
}
