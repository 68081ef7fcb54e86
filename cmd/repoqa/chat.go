package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/repoqa/internal/index"
	"github.com/fyrsmithlabs/repoqa/internal/qa"
)

// chatCmd starts an interactive chat session
var chatCmd = &cobra.Command{
	Use:   "chat [repository]",
	Short: "Chat with an indexed repository",
	Long: `Start an interactive question/answer session over an indexed
repository. When only one repository is indexed, the name can be
omitted.

Commands inside the session:
  clear       forget the conversation so far
  exit, quit  leave the session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	var repoName string
	if len(args) > 0 {
		repoName = args[0]
	}
	record, err := selectRecord(cmd.Context(), a, repoName)
	if err != nil {
		return err
	}

	assistant, err := a.newAssistant()
	if err != nil {
		return err
	}
	assistant.Load(record)

	return chatLoop(cmd.Context(), assistant, record)
}

// selectRecord resolves which indexed repository to chat with. An empty
// name is accepted when exactly one repository is indexed.
func selectRecord(ctx context.Context, a *app, repoName string) (*index.Record, error) {
	if repoName != "" {
		record, err := a.index.Lookup(ctx, repoName)
		if errors.Is(err, index.ErrRecordNotFound) {
			return nil, fmt.Errorf("repository %q is not indexed; run 'repoqa index <url>' first", repoName)
		}
		return record, err
	}

	records, err := a.index.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, errors.New("no repositories indexed yet; run 'repoqa index <url>' first")
	case 1:
		return records[0], nil
	default:
		printRecords(records)
		return nil, errors.New("multiple repositories indexed; run 'repoqa chat <repository>'")
	}
}

// chatLoop reads questions from stdin until exit or EOF.
func chatLoop(ctx context.Context, assistant *qa.Assistant, record *index.Record) error {
	fmt.Println(bannerStyle.Render("Chatting with " + record.RepoName))
	if record.RepoInfo != nil && record.RepoInfo.Description != "" {
		fmt.Println(dimStyle.Render(record.RepoInfo.Description))
	}
	fmt.Println(dimStyle.Render("Type your question, 'clear' to reset the conversation, or 'exit' to leave."))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Print(labelStyle.Render("You: "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit":
			fmt.Println(dimStyle.Render("Bye."))
			return nil
		case "clear":
			assistant.ClearMemory()
			fmt.Println(dimStyle.Render("Conversation cleared."))
			continue
		}

		answer, err := assistant.Ask(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
			continue
		}

		fmt.Println()
		fmt.Println(answerStyle.Render(answer.Text))
		if len(answer.Sources) > 0 {
			fmt.Println(dimStyle.Render("Sources: " + strings.Join(answer.Sources, ", ")))
		}
		fmt.Println()
	}
}
