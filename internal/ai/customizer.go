package ai

import (
	"context"
	"fmt"
)

// Customizer tailors documents via an LLM client. It satisfies the binding
// package's Customizer interface.
type Customizer struct {
	client Client
}

// NewCustomizer constructs a Customizer over a client.
func NewCustomizer(client Client) *Customizer {
	return &Customizer{client: client}
}

// CustomizeResume rewrites a resume to match a job description.
func (c *Customizer) CustomizeResume(ctx context.Context, content, jobDescription, instructions string) (string, error) {
	prompt := fmt.Sprintf(resumePrompt, instructionsBlock(instructions), content, jobDescription)
	out, err := c.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to customize resume: %w", err)
	}
	return CleanMarkdownBlock(out), nil
}

// CustomizeCoverLetter tailors an existing cover letter to a job description.
func (c *Customizer) CustomizeCoverLetter(ctx context.Context, content, jobDescription, company, position, instructions string) (string, error) {
	prompt := fmt.Sprintf(coverLetterRewritePrompt, instructionsBlock(instructions), company, position, jobDescription, content)
	out, err := c.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to customize cover letter: %w", err)
	}
	return CleanMarkdownBlock(out), nil
}

// GenerateCoverLetter writes a new cover letter from candidate material,
// which is either a rendered template or the bound resume's content.
func (c *Customizer) GenerateCoverLetter(ctx context.Context, material, jobDescription, company, position, instructions string) (string, error) {
	prompt := fmt.Sprintf(coverLetterGeneratePrompt, instructionsBlock(instructions), company, position, jobDescription, material)
	out, err := c.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate cover letter: %w", err)
	}
	return CleanMarkdownBlock(out), nil
}
