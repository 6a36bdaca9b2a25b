package domain

import "sort"

// DefaultContextNames is used when a chat request does not pick any context.
var DefaultContextNames = []string{"wiki", "calendar", "discord"}

// ContextBlock is one named group of reference text.
type ContextBlock struct {
	Name string
	Text string
}

// ContextStore is a read-only set of context blocks keyed by name. It is safe
// for concurrent use because nothing mutates it after construction.
type ContextStore struct {
	blocks map[string]string
}

// NewContextStore indexes blocks by name. A later block replaces an earlier
// one with the same name.
func NewContextStore(blocks ...ContextBlock) *ContextStore {
	m := make(map[string]string, len(blocks))
	for _, b := range blocks {
		m[b.Name] = b.Text
	}
	return &ContextStore{blocks: m}
}

func (s *ContextStore) Get(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	text, ok := s.blocks[name]
	return text, ok
}

// Names returns the loaded context names in lexical order.
func (s *ContextStore) Names() []string {
	if s == nil {
		return []string{}
	}
	names := make([]string, 0, len(s.blocks))
	for name := range s.blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ContextStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.blocks)
}
