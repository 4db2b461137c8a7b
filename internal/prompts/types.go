// Package prompts provides prompt management with embedded defaults and file overrides.
//
// Embedded .tmpl files in code are the source of truth. An operator may
// point a prompt key at a file on disk; the resolver then serves that text
// instead. Every resolved prompt carries a hash of its text so the served
// version can be reported and traced.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: verdict.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the prompt text actually in use for a key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	Hash       string   `json:"hash"`
	IsOverride bool     `json:"is_override"`      // true if read from an override file
	Source     string   `json:"source,omitempty"` // override file path
}
