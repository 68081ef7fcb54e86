package qa

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/fyrsmithlabs/repoqa/internal/index"
	"github.com/fyrsmithlabs/repoqa/internal/vectorstore"
)

// answerTemplate instructs the model to ground its answer in the
// retrieved chunks and cite file paths.
const answerTemplate = `You are an expert code assistant analyzing a source repository.
Use the following code snippets to answer the user's question. Always cite the specific file paths when referencing code.

Code Context:
{{.context}}

Chat History:
{{.chat_history}}

Question: {{.question}}

Instructions:
- Provide accurate, detailed answers based on the code provided
- Always mention specific file paths and line references when possible
- If you're not certain, say so
- Use code snippets to illustrate your points
- Be concise but thorough

Answer:`

// newAnswerPrompt builds the QA prompt template.
func newAnswerPrompt() prompts.PromptTemplate {
	return prompts.PromptTemplate{
		Template:       answerTemplate,
		InputVariables: []string{"context", "chat_history", "question"},
		TemplateFormat: prompts.TemplateFormatGoTemplate,
	}
}

// renderContext formats retrieved chunks for the prompt, labeling each
// with its source file path.
func renderContext(results []vectorstore.SearchResult) string {
	if len(results) == 0 {
		return "(no matching code found)"
	}

	parts := make([]string, len(results))
	for i, r := range results {
		path := "unknown"
		if p, ok := r.Metadata["file_path"].(string); ok && p != "" {
			path = p
		}
		parts[i] = fmt.Sprintf("File: %s\n%s", path, r.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// renderRepoInfo formats the repository metadata block prepended to each
// question so the model knows which codebase it is discussing.
func renderRepoInfo(record *index.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", record.RepoName)
	if info := record.RepoInfo; info != nil {
		if info.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", info.Description)
		}
		if info.Language != "" {
			fmt.Fprintf(&b, "Language: %s\n", info.Language)
		}
	}
	fmt.Fprintf(&b, "Total Files: %d\n", record.TotalFiles)
	return b.String()
}

// dedupeSources returns the unique file paths of the retrieved chunks,
// preserving retrieval order.
func dedupeSources(results []vectorstore.SearchResult) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, r := range results {
		path, ok := r.Metadata["file_path"].(string)
		if !ok || path == "" || seen[path] {
			continue
		}
		seen[path] = true
		sources = append(sources, path)
	}
	return sources
}
