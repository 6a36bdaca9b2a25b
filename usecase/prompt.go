package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/contextchat/domain"
	"github.com/satriahrh/contextchat/utils/log"
)

const systemPromptTemplate = `You are a helpful assistant for the Network State community.
You have access to the following context information to help answer questions:
%s

Please use this context to provide accurate and helpful responses. If you don't know the answer or if it's not in the context, please say so rather than making up information.`

// TokenCounter measures text against the context budget.
type TokenCounter interface {
	CountTokens(text string) int
}

// Composer turns a message and a list of context names into a prompt.
type Composer struct {
	store            *domain.ContextStore
	counter          TokenCounter
	maxContextTokens int
	params           domain.ModelParameters
}

// NewComposer builds a composer over a loaded store. With a nil counter or a
// non-positive maxContextTokens the context is not capped.
func NewComposer(store *domain.ContextStore, counter TokenCounter, maxContextTokens int) *Composer {
	return &Composer{
		store:            store,
		counter:          counter,
		maxContextTokens: maxContextTokens,
		params:           domain.DefaultModelParameters,
	}
}

// BuildContext concatenates the requested blocks in request order. Names
// missing from the store are skipped. Once a section would push the total
// past the budget, it and every later section are left out.
func (c *Composer) BuildContext(ctx context.Context, names []string) string {
	var sb strings.Builder
	used := 0
	for i, name := range names {
		text, ok := c.store.Get(name)
		if !ok {
			continue
		}
		section := fmt.Sprintf("\n\n--- %s CONTEXT ---\n%s", strings.ToUpper(name), text)

		if c.capped() {
			n := c.counter.CountTokens(section)
			if used+n > c.maxContextTokens {
				log.WithCtx(ctx).Warn("Context budget exceeded, dropping remaining sections",
					zap.Int("max_tokens", c.maxContextTokens),
					zap.Int("used_tokens", used),
					zap.Strings("dropped", names[i:]))
				break
			}
			used += n
		}
		sb.WriteString(section)
	}
	return sb.String()
}

func (c *Composer) Compose(ctx context.Context, message string, names []string) domain.PromptEnvelope {
	return domain.PromptEnvelope{
		SystemPrompt: fmt.Sprintf(systemPromptTemplate, c.BuildContext(ctx, names)),
		UserMessage:  message,
		Parameters:   c.params,
	}
}

// Contexts lists the names the composer can include.
func (c *Composer) Contexts() []string {
	return c.store.Names()
}

func (c *Composer) capped() bool {
	return c.counter != nil && c.maxContextTokens > 0
}
