// Repoqa indexes source repositories into a local vector store and
// answers questions about them with retrieval-augmented generation.
//
// Usage:
//
//	# Index a repository
//	repoqa index https://github.com/gin-gonic/gin
//
//	# Chat with an indexed repository
//	repoqa chat gin
//
//	# Interactive menu
//	repoqa
//
// Configuration is loaded from ~/.config/repoqa/config.yaml and
// REPOQA_* environment variables. The chat model key is read from
// GROQ_API_KEY when not set in the config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// configPath is the --config flag value; empty means the default
	// location under the user config directory.
	configPath string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "repoqa",
	Short: "Chat with any source repository",
	Long: `repoqa clones a repository, chunks its text files into a local vector
index, and answers questions about the code through an LLM with
conversational memory.

Run without arguments for an interactive menu.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMenu,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/repoqa/config.yaml)")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
}
