package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/contextchat/domain"
)

// wordCounter counts whitespace separated words, close enough for budget tests.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int { return len(strings.Fields(text)) }

func testStore() *domain.ContextStore {
	return domain.NewContextStore(
		domain.ContextBlock{Name: "wiki", Text: "wiki body"},
		domain.ContextBlock{Name: "calendar", Text: "calendar body"},
		domain.ContextBlock{Name: "discord", Text: "discord body"},
	)
}

func TestBuildContextSkipsUnknownNames(t *testing.T) {
	c := NewComposer(testStore(), nil, 0)

	got := c.BuildContext(context.Background(), []string{"wiki", "bogus"})

	assert.Equal(t, "\n\n--- WIKI CONTEXT ---\nwiki body", got)
	assert.Equal(t, 1, strings.Count(got, "CONTEXT ---"))
}

func TestBuildContextKeepsRequestOrder(t *testing.T) {
	c := NewComposer(testStore(), nil, 0)

	got := c.BuildContext(context.Background(), []string{"discord", "wiki", "calendar"})

	discord := strings.Index(got, "DISCORD")
	wiki := strings.Index(got, "WIKI")
	calendar := strings.Index(got, "CALENDAR")
	require.True(t, discord >= 0 && wiki >= 0 && calendar >= 0)
	assert.Less(t, discord, wiki)
	assert.Less(t, wiki, calendar)
}

func TestBuildContextEmpty(t *testing.T) {
	c := NewComposer(domain.NewContextStore(), nil, 0)

	assert.Empty(t, c.BuildContext(context.Background(), domain.DefaultContextNames))
}

func TestBuildContextBudgetDropsWholeSections(t *testing.T) {
	// each section is "--- NAME CONTEXT --- <name> body", six words
	c := NewComposer(testStore(), wordCounter{}, 12)

	got := c.BuildContext(context.Background(), []string{"wiki", "calendar", "discord"})

	assert.Contains(t, got, "--- WIKI CONTEXT ---\nwiki body")
	assert.Contains(t, got, "--- CALENDAR CONTEXT ---\ncalendar body")
	assert.NotContains(t, got, "DISCORD")
}

func TestComposeEnvelope(t *testing.T) {
	c := NewComposer(testStore(), nil, 0)

	env := c.Compose(context.Background(), "When is the next meetup?", []string{"calendar"})

	assert.Equal(t, "When is the next meetup?", env.UserMessage)
	assert.True(t, strings.HasPrefix(env.SystemPrompt, "You are a helpful assistant for the Network State community.\n"))
	assert.Contains(t, env.SystemPrompt, "answer questions:\n\n\n--- CALENDAR CONTEXT ---\ncalendar body\n\nPlease use this context")
	assert.Equal(t, domain.DefaultModelParameters, env.Parameters)
}
