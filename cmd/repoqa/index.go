package main

import (
	"github.com/spf13/cobra"
)

// indexCmd clones and indexes a repository
var indexCmd = &cobra.Command{
	Use:   "index <repository-url>",
	Short: "Clone and index a repository",
	Long: `Clone a repository, chunk its text files, and index the chunks into the
local vector store. Re-indexing a repository replaces its previous index.

Examples:
  # Index a public repository
  repoqa index https://github.com/gin-gonic/gin

  # Index via SSH remote
  repoqa index git@github.com:gin-gonic/gin.git`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	_, err = a.indexRepository(cmd.Context(), args[0])
	return err
}
