package ai

import "fmt"

const resumePrompt = `You are an expert resume editor. Given the user's resume (in Markdown) and the job description (plain text), rewrite the resume so it:
- Matches keywords, skills and tone from the JD.
- Prioritizes relevant bullet points (shorten non-relevant ones).
- Preserves factual content (company names, dates, role titles) verbatim unless asked to change.
- Keeps a modular section structure (SUMMARY, SKILLS, EXPERIENCE, EDUCATION, PROJECTS).
- Returns ONLY the updated resume in Markdown, with no commentary.

Rules:
- Keep bullets concise (max 2 lines each).
- Include a short 1-2 sentence customized summary at the top.
- Ensure contact details are unchanged unless explicitly provided.
- Use American English.
%s
Resume Content:
%s

Job Description:
%s

Output the revised resume in Markdown format:`

const coverLetterRewritePrompt = `You are an expert cover letter writer. Tailor the existing cover letter below to the job description while keeping the author's voice:
- 3 paragraphs: intro (why you), body (key experiences + fit), closing (call to action).
- At most 350 words total.
- Friendly but professional tone; match JD tone.
- Output plain text suitable for email body or PDF, with no commentary.
%s
Company: %s
Position: %s
Job Description: %s

Existing Cover Letter:
%s

Output the tailored cover letter:`

const coverLetterGeneratePrompt = `You are an expert cover letter writer. Use the job description and the candidate material below to produce a professional cover letter with this shape:
- 3 paragraphs: intro (why you), body (key experiences + fit), closing (call to action).
- At most 350 words total.
- Friendly but professional tone; match JD tone.
- Output plain text suitable for email body or PDF, with no commentary.
%s
Company: %s
Position: %s
Job Description: %s

Candidate Material:
%s

Generate a professional cover letter:`

// instructionsBlock formats user-supplied instructions for inclusion in a
// prompt. They take priority over the standard rules when they conflict.
func instructionsBlock(instructions string) string {
	if instructions == "" {
		return "\n"
	}
	return fmt.Sprintf(`
CUSTOM INSTRUCTIONS (highest priority, override standard rules on conflict):
%s
`, instructions)
}
