package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

type Tiktoken struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktoken loads a BPE encoding such as cl100k_base. The first load may
// fetch the ranks file, so callers should fall back to Estimate on error.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading %s encoding: %w", encoding, err)
	}
	return &Tiktoken{encoding: tke}, nil
}

func (t *Tiktoken) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// Estimate approximates token counts at four characters per token.
type Estimate struct{}

func (Estimate) CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
