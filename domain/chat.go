package domain

// ChatRequest is one user message plus the context groups to include.
// A nil ContextNames means "use DefaultContextNames"; an empty, non-nil slice
// means no context at all.
type ChatRequest struct {
	Message      string   `json:"message"`
	ContextNames []string `json:"contextTypes"`
}
