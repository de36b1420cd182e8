package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cogex-mcp: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cogex-mcp",
		Short: "MCP server for the INDRA CoGEx biomedical knowledge graph",
		Long: `cogex-mcp exposes knowledge-graph queries (genes, diseases, drugs, pathways,
variants, cell lines, literature, ontologies and trials) as MCP tools over stdio.
Results are cached, paginated and rendered as Markdown or JSON within a
character budget.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cogex-mcp %s (%s)\n", Version, GitCommit)
			return err
		},
	}
}
