package coverletter

import (
	_ "embed"
	"strings"
	"time"

	"github.com/spigell/job-agent/internal/jobs"
	"github.com/spigell/job-agent/internal/resume"
)

//go:embed prompt.md
var promptTemplate string

// SystemInstruction is sent to backends that accept a separate system prompt.
const SystemInstruction = "You write truthful, specific cover letters. Use only facts from the candidate's resume and the job posting."

const (
	promptSkills          = 10
	promptExperienceLines = 8
	promptEducationLines  = 3
	promptDescriptionLen  = 400
)

// BuildPrompt renders the generation prompt for one posting.
func BuildPrompt(profile resume.Profile, posting *jobs.Posting, name string, now time.Time) string {
	var contact strings.Builder
	if profile.Email != "" {
		contact.WriteString("\nEmail: " + profile.Email)
	}
	if profile.Phone != "" {
		contact.WriteString("\nPhone: " + profile.Phone)
	}

	replacer := strings.NewReplacer(
		"{{NAME}}", name,
		"{{CONTACT}}", contact.String(),
		"{{SKILLS}}", strings.Join(profile.TopSkills(promptSkills), ", "),
		"{{EXPERIENCE}}", strings.Join(head(profile.ExperienceSnippets, promptExperienceLines), "\n"),
		"{{EDUCATION}}", strings.Join(head(profile.EducationSnippets, promptEducationLines), "\n"),
		"{{TITLE}}", posting.Title,
		"{{COMPANY}}", posting.Company,
		"{{DESCRIPTION}}", truncateRunes(posting.Description, promptDescriptionLen),
		"{{DATE}}", now.Format(DateLayout),
	)
	return replacer.Replace(promptTemplate)
}

// cleanResponse strips markdown fences some models wrap their answer in.
func cleanResponse(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```markdown")
		raw = strings.TrimPrefix(raw, "```text")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

func head(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
