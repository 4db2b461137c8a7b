package verdict

import (
	_ "embed"

	"github.com/jackzampolin/comply/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPrompt string

const (
	// SystemKey is the hierarchical key for the system instruction.
	SystemKey = "verdict.system"
	// UserKey is the hierarchical key for the user-turn template.
	UserKey = "verdict.user"
)

// SystemPrompt returns the embedded system instruction.
func SystemPrompt() string {
	return systemPrompt
}

// UserTemplate returns the embedded user-turn template.
func UserTemplate() string {
	return userPrompt
}

// UserData is the data the user-turn template renders.
type UserData struct {
	Text string
}

// RenderUser renders a user-turn template around formatted page text.
func RenderUser(tmpl, text string) (string, error) {
	return prompts.Render(UserKey, tmpl, UserData{Text: text})
}

// RegisterPrompts registers the compliance prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemKey,
		Text:        systemPrompt,
		Description: "Compliance review system instruction - defines the policy and the structured fields to return",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserKey,
		Text:        userPrompt,
		Description: "Compliance review user turn - wraps the formatted page text in triple backticks",
	})
}
