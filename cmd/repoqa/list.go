package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/repoqa/internal/index"
)

// listCmd shows the indexed repositories
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed repositories",
	RunE:  runList,
}

// removeCmd deletes a repository's index
var removeCmd = &cobra.Command{
	Use:   "remove <repository>",
	Short: "Remove a repository's index",
	Long: `Delete a repository's vector collection and metadata record. The clone
on disk is left in place.

Examples:
  repoqa remove gin`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	records, err := a.index.List(cmd.Context())
	if err != nil {
		return err
	}
	printRecords(records)
	return nil
}

func printRecords(records []*index.Record) {
	if len(records) == 0 {
		fmt.Println(dimStyle.Render("No repositories indexed yet. Run 'repoqa index <url>' first."))
		return
	}

	fmt.Println(sectionStyle.Render("Indexed repositories"))
	for i, r := range records {
		line := fmt.Sprintf("%d. %s", i+1, r.RepoName)
		detail := fmt.Sprintf("%d files, %d chunks, indexed %s",
			r.TotalFiles, r.TotalChunks, r.IndexedAt.Format("2006-01-02 15:04"))
		if r.RepoInfo != nil && r.RepoInfo.Language != "" {
			detail = r.RepoInfo.Language + ", " + detail
		}
		fmt.Printf("  %s %s\n", valueStyle.Render(line), dimStyle.Render("("+detail+")"))
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.index.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", successStyle.Render("Removed"), valueStyle.Render(args[0]))
	return nil
}
