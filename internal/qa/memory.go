package qa

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Turn is one question/answer exchange in the conversation.
type Turn struct {
	Question string
	Answer   string
}

// TokenCounter counts tokens in text for budget enforcement.
type TokenCounter interface {
	Count(text string) int
}

// tiktokenCounter counts tokens with a BPE encoding.
type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// estimateCounter approximates tokens as one per four characters. Used
// when the BPE encoding cannot be loaded (e.g. offline first run).
type estimateCounter struct{}

func (estimateCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// NewTokenCounter returns a cl100k_base token counter, falling back to a
// character-based estimate if the encoding is unavailable.
func NewTokenCounter() TokenCounter {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return estimateCounter{}
	}
	return &tiktokenCounter{encoding: encoding}
}

// NewEstimateCounter returns the character-based fallback counter.
func NewEstimateCounter() TokenCounter {
	return estimateCounter{}
}

// Memory is an append-only conversation transcript with a token budget.
//
// The full transcript is kept; the budget only bounds how much of it is
// rendered into the prompt, dropping the oldest turns first.
type Memory struct {
	mu      sync.Mutex
	turns   []Turn
	budget  int
	counter TokenCounter
}

// NewMemory creates a Memory with the given render budget in tokens.
func NewMemory(budget int, counter TokenCounter) *Memory {
	if counter == nil {
		counter = NewEstimateCounter()
	}
	return &Memory{
		budget:  budget,
		counter: counter,
	}
}

// Add appends a completed exchange to the transcript.
func (m *Memory) Add(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, Turn{Question: question, Answer: answer})
}

// Clear resets the transcript.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

// Len returns the number of exchanges in the transcript.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Turns returns a copy of the transcript.
func (m *Memory) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Render formats the transcript for prompt inclusion, keeping the most
// recent turns that fit within the token budget.
func (m *Memory) Render() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.turns) == 0 {
		return ""
	}

	// Walk backwards until the budget is exhausted.
	start := len(m.turns)
	used := 0
	for i := len(m.turns) - 1; i >= 0; i-- {
		cost := m.counter.Count(renderTurn(m.turns[i]))
		if used+cost > m.budget && start < len(m.turns) {
			break
		}
		used += cost
		start = i
		if used >= m.budget {
			break
		}
	}

	var b strings.Builder
	for i := start; i < len(m.turns); i++ {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderTurn(m.turns[i]))
	}
	return b.String()
}

func renderTurn(t Turn) string {
	return fmt.Sprintf("Human: %s\nAssistant: %s", t.Question, t.Answer)
}
