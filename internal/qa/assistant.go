// Package qa implements retrieval-augmented question answering over an
// indexed repository with conversational memory.
package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/repoqa/internal/config"
	"github.com/fyrsmithlabs/repoqa/internal/index"
	"github.com/fyrsmithlabs/repoqa/internal/vectorstore"
)

// Sentinel errors for the QA loop.
var (
	// ErrNoRepository is returned when Ask is called before Load.
	ErrNoRepository = errors.New("no repository loaded")

	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("question cannot be empty")
)

// Retriever performs similarity search over a collection. The
// vectorstore.Store interface satisfies it.
type Retriever interface {
	Search(ctx context.Context, collection, query string, k int) ([]vectorstore.SearchResult, error)
}

// Answer is the result of one question.
type Answer struct {
	// Text is the model's answer.
	Text string

	// Sources are the unique file paths of the retrieved chunks, in
	// retrieval order.
	Sources []string
}

// NewLLM creates the chat model client from configuration. Any
// OpenAI-compatible chat completion endpoint works; the default
// configuration targets Groq.
func NewLLM(cfg config.LLMConfig) (llms.Model, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("%w: set llm.api_key or GROQ_API_KEY", config.ErrMissingAPIKey)
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey.Value()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat client: %w", err)
	}
	return llm, nil
}

// Assistant answers questions about one indexed repository at a time.
//
// Each question is answered by retrieving the top-k most similar chunks,
// rendering them with the running transcript into a single prompt, and
// calling the chat model once. The exchange is then appended to memory.
type Assistant struct {
	llm       llms.Model
	retriever Retriever
	memory    *Memory
	prompt    prompts.PromptTemplate
	limiter   *rate.Limiter
	logger    *zap.Logger

	topK        int
	temperature float64
	maxTokens   int

	record *index.Record
}

// NewAssistant creates an assistant using the given chat model and
// retriever.
func NewAssistant(llm llms.Model, retriever Retriever, llmCfg config.LLMConfig, chatCfg config.ChatConfig, counter TokenCounter, logger *zap.Logger) (*Assistant, error) {
	if llm == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Assistant{
		llm:         llm,
		retriever:   retriever,
		memory:      NewMemory(chatCfg.HistoryTokenBudget, counter),
		prompt:      newAnswerPrompt(),
		limiter:     rate.NewLimiter(rate.Limit(llmCfg.RequestsPerSecond), 1),
		logger:      logger,
		topK:        chatCfg.TopK,
		temperature: llmCfg.Temperature,
		maxTokens:   llmCfg.MaxTokens,
	}, nil
}

// Load binds the assistant to an indexed repository and clears any
// previous conversation.
func (a *Assistant) Load(record *index.Record) {
	a.record = record
	a.memory.Clear()
	a.logger.Info("loaded repository for chat",
		zap.String("repo", record.RepoName),
		zap.Int("chunks", record.TotalChunks),
	)
}

// Record returns the currently loaded repository record, or nil.
func (a *Assistant) Record() *index.Record {
	return a.record
}

// Ask answers a question about the loaded repository.
func (a *Assistant) Ask(ctx context.Context, question string) (*Answer, error) {
	if a.record == nil {
		return nil, ErrNoRepository
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	results, err := a.retriever.Search(ctx, a.record.Collection, question, a.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	// Repository metadata rides along with the question so the prompt
	// template stays a single-question template.
	questionWithRepo := fmt.Sprintf("Repository Information:\n%s\n\n%s", renderRepoInfo(a.record), question)

	prompt, err := a.prompt.Format(map[string]any{
		"context":      renderContext(results),
		"chat_history": a.memory.Render(),
		"question":     questionWithRepo,
	})
	if err != nil {
		return nil, fmt.Errorf("formatting prompt: %w", err)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	a.logger.Debug("asking model",
		zap.String("repo", a.record.RepoName),
		zap.Int("retrieved", len(results)),
		zap.Int("history_turns", a.memory.Len()),
	)

	answer, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt,
		llms.WithTemperature(a.temperature),
		llms.WithMaxTokens(a.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	a.memory.Add(question, answer)

	return &Answer{
		Text:    answer,
		Sources: dedupeSources(results),
	}, nil
}

// ClearMemory resets the conversation transcript.
func (a *Assistant) ClearMemory() {
	a.memory.Clear()
}

// History returns a copy of the conversation transcript.
func (a *Assistant) History() []Turn {
	return a.memory.Turns()
}
