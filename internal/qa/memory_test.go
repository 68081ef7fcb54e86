package qa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts whitespace-separated words, making budget math easy
// to reason about in tests.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func TestMemoryRenderEmpty(t *testing.T) {
	m := NewMemory(100, wordCounter{})
	assert.Empty(t, m.Render())
	assert.Equal(t, 0, m.Len())
}

func TestMemoryRenderSingleTurn(t *testing.T) {
	m := NewMemory(100, wordCounter{})
	m.Add("what does this do", "it answers questions")

	rendered := m.Render()
	assert.Equal(t, "Human: what does this do\nAssistant: it answers questions", rendered)
}

func TestMemoryRenderDropsOldestFirst(t *testing.T) {
	// Each turn renders to 4 words ("Human: q1 Assistant: a1"), so a
	// budget of 8 fits the two most recent turns only.
	m := NewMemory(8, wordCounter{})
	m.Add("q1", "a1")
	m.Add("q2", "a2")
	m.Add("q3", "a3")

	rendered := m.Render()
	assert.NotContains(t, rendered, "q1")
	assert.Contains(t, rendered, "q2")
	assert.Contains(t, rendered, "q3")

	// The full transcript is still retained.
	assert.Equal(t, 3, m.Len())
}

func TestMemoryRenderKeepsNewestEvenOverBudget(t *testing.T) {
	m := NewMemory(1, wordCounter{})
	m.Add("a very long question indeed", "a very long answer indeed")

	rendered := m.Render()
	require.NotEmpty(t, rendered)
	assert.Contains(t, rendered, "a very long question indeed")
}

func TestMemoryClear(t *testing.T) {
	m := NewMemory(100, wordCounter{})
	m.Add("q1", "a1")
	m.Add("q2", "a2")
	require.Equal(t, 2, m.Len())

	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Render())
}

func TestMemoryTurnsReturnsCopy(t *testing.T) {
	m := NewMemory(100, wordCounter{})
	m.Add("q1", "a1")

	turns := m.Turns()
	require.Len(t, turns, 1)
	turns[0].Question = "mutated"

	assert.Equal(t, "q1", m.Turns()[0].Question)
}

func TestMemoryNilCounterFallsBack(t *testing.T) {
	m := NewMemory(100, nil)
	m.Add("q", "a")
	assert.NotEmpty(t, m.Render())
}

func TestEstimateCounter(t *testing.T) {
	c := NewEstimateCounter()
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("ab"))
	assert.Equal(t, 2, c.Count("eightchr"))
}

func TestNewTokenCounterNeverNil(t *testing.T) {
	c := NewTokenCounter()
	require.NotNil(t, c)
	assert.Greater(t, c.Count("hello world, this is a sentence"), 0)
}
