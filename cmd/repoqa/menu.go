package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/repoqa/internal/index"
)

// runMenu drives the interactive menu shown on bare invocation.
func runMenu(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	reader := bufio.NewScanner(os.Stdin)

	fmt.Println(bannerStyle.Render("repoqa - chat with any source repository"))

	for {
		if cmd.Context().Err() != nil {
			return nil
		}

		fmt.Println()
		fmt.Println(sectionStyle.Render("Menu"))
		fmt.Println(valueStyle.Render("  1. Index a new repository"))
		fmt.Println(valueStyle.Render("  2. Chat with an indexed repository"))
		fmt.Println(valueStyle.Render("  3. List indexed repositories"))
		fmt.Println(valueStyle.Render("  4. Remove a repository"))
		fmt.Println(valueStyle.Render("  5. Exit"))
		fmt.Print(labelStyle.Render("Choice: "))

		if !reader.Scan() {
			fmt.Println()
			return reader.Err()
		}

		switch strings.TrimSpace(reader.Text()) {
		case "1":
			menuIndex(cmd, a, reader)
		case "2":
			menuChat(cmd, a, reader)
		case "3":
			records, err := a.index.List(cmd.Context())
			if err != nil {
				fmt.Println(errorStyle.Render("Error: " + err.Error()))
				continue
			}
			printRecords(records)
		case "4":
			menuRemove(cmd, a, reader)
		case "5", "exit", "quit", "q":
			fmt.Println(dimStyle.Render("Bye."))
			return nil
		default:
			fmt.Println(dimStyle.Render("Enter a number between 1 and 5."))
		}
	}
}

func menuIndex(cmd *cobra.Command, a *app, reader *bufio.Scanner) {
	fmt.Print(labelStyle.Render("Repository URL: "))
	if !reader.Scan() {
		return
	}
	repoURL := strings.TrimSpace(reader.Text())
	if repoURL == "" {
		return
	}

	if _, err := a.indexRepository(cmd.Context(), repoURL); err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
	}
}

func menuChat(cmd *cobra.Command, a *app, reader *bufio.Scanner) {
	record, ok := pickRecord(cmd, a, reader)
	if !ok {
		return
	}

	assistant, err := a.newAssistant()
	if err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		return
	}
	assistant.Load(record)

	if err := chatLoop(cmd.Context(), assistant, record); err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
	}
}

func menuRemove(cmd *cobra.Command, a *app, reader *bufio.Scanner) {
	record, ok := pickRecord(cmd, a, reader)
	if !ok {
		return
	}

	fmt.Print(labelStyle.Render("Remove " + record.RepoName + "? [y/N]: "))
	if !reader.Scan() || !strings.EqualFold(strings.TrimSpace(reader.Text()), "y") {
		return
	}

	if err := a.index.Remove(cmd.Context(), record.RepoName); err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		return
	}
	fmt.Println(successStyle.Render("Removed " + record.RepoName))
}

// pickRecord lists the indexed repositories and reads a selection by
// number or name.
func pickRecord(cmd *cobra.Command, a *app, reader *bufio.Scanner) (*index.Record, bool) {
	records, err := a.index.List(cmd.Context())
	if err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		return nil, false
	}
	if len(records) == 0 {
		fmt.Println(dimStyle.Render("No repositories indexed yet."))
		return nil, false
	}

	printRecords(records)
	fmt.Print(labelStyle.Render("Repository (number or name): "))
	if !reader.Scan() {
		return nil, false
	}
	choice := strings.TrimSpace(reader.Text())
	if choice == "" {
		return nil, false
	}

	if n, err := strconv.Atoi(choice); err == nil {
		if n < 1 || n > len(records) {
			fmt.Println(dimStyle.Render("No such entry."))
			return nil, false
		}
		return records[n-1], true
	}

	for _, r := range records {
		if r.RepoName == choice || r.Collection == choice {
			return r, true
		}
	}
	fmt.Println(dimStyle.Render("No such repository."))
	return nil, false
}
