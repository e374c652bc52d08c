package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Template is a reusable cover letter template. Templates are read-mostly,
// referenced only for content generation, and never participate in the
// document deletion policy.
type Template struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Render fills the template's {company} and {position} placeholders.
func (t *Template) Render(company, position string) string {
	r := strings.NewReplacer("{company}", company, "{position}", position)
	return r.Replace(t.Content)
}
