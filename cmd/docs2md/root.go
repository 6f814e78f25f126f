package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docs2md.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs2md",
		Short: "Convert a documentation website into Markdown for LLMs",
		Long: `docs2md crawls a documentation website, converts the main content of every
page linked from the entry page's navigation into Markdown and writes an
index file (llms.txt) listing each generated file with its page title.

Pages are processed concurrently. A page that fails is reported and never
stops the others; only an unreachable entry page or an entry page without
documentation links aborts the crawl.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
