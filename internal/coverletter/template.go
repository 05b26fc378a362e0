package coverletter

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/job-agent/internal/jobs"
	"github.com/spigell/job-agent/internal/resume"
)

const (
	DateLayout = "January 02, 2006"

	openingSkills     = 8
	competencySkills  = 10
	overlapSkills     = 4
	minExperienceLine = 20

	fallbackSkillPhrase = "the skills described in my resume"
	fallbackCompany     = "your company"
	fallbackTitle       = "advertised"
)

// ComposeOptions configures the deterministic template.
type ComposeOptions struct {
	Policy Policy
	// Now is the letter date; the zero value means time.Now.
	Now time.Time
}

// Compose builds a letter from the profile and posting without calling any
// model. Only profile facts are stated; the posting contributes its company,
// its title and the overlap between the profile skills and its description.
// Under PolicyStrict a profile without a name yields ErrMissingName.
func Compose(profile resume.Profile, posting *jobs.Posting, opts ComposeOptions) (string, error) {
	if posting == nil {
		return "", ErrNoPosting
	}

	name, err := signatureName(profile, opts.Policy)
	if err != nil {
		return "", err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	greeting := "Dear Hiring Manager,"
	company := strings.TrimSpace(posting.Company)
	if company == "" {
		company = fallbackCompany
	} else {
		greeting = fmt.Sprintf("Dear %s Hiring Manager,", company)
	}
	title := strings.TrimSpace(posting.Title)
	if title == "" {
		title = fallbackTitle
	}

	skills := skillPhrase(profile.TopSkills(openingSkills))

	parts := []string{
		now.Format(DateLayout),
		opening(greeting, company, title, skills),
		experienceParagraph(profile.ExperienceSnippets, skills, company),
		competencyParagraph(profile, posting.Description),
		closing(company, name, profile.Email, profile.Phone),
	}
	return strings.Join(parts, "\n\n"), nil
}

func signatureName(profile resume.Profile, policy Policy) (string, error) {
	name := strings.TrimSpace(profile.Name)
	if name != "" {
		return name, nil
	}
	if policy == PolicyPlaceholder {
		return NamePlaceholder, nil
	}
	return "", ErrMissingName
}

func opening(greeting, company, title, skills string) string {
	return fmt.Sprintf("%s\n\nI am writing to express my strong interest in the %s position at %s, bringing hands-on expertise in %s.",
		greeting, title, company, skills)
}

func experienceParagraph(snippets []string, skills, company string) string {
	lines := qualifyingExperience(snippets)

	switch {
	case len(lines) >= 2:
		return fmt.Sprintf("In my recent work: %s. Additionally, %s.", lines[0], lowerFirst(lines[1]))
	case len(lines) == 1:
		return fmt.Sprintf("In my recent work: %s, drawing on my skills in %s.", lines[0], skills)
	default:
		return fmt.Sprintf("My professional background includes substantial work with %s, which I am eager to apply to the challenges at %s.", skills, company)
	}
}

// qualifyingExperience keeps lines longer than 20 characters that are not
// all-uppercase headings, with trailing sentence punctuation removed.
func qualifyingExperience(snippets []string) []string {
	var lines []string
	for _, line := range snippets {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= minExperienceLine || isUpper(line) {
			continue
		}
		lines = append(lines, strings.TrimRight(line, ".;:, "))
	}
	return lines
}

func competencyParagraph(profile resume.Profile, description string) string {
	var sentences []string

	if skills := profile.TopSkills(competencySkills); len(skills) > 0 {
		sentences = append(sentences, fmt.Sprintf("My core competencies include %s.", strings.Join(skills, ", ")))
	} else {
		sentences = append(sentences, "My resume details the experience I would bring to this role.")
	}

	if education := firstEducation(profile.EducationSnippets); education != "" {
		sentences = append(sentences, fmt.Sprintf("My education includes %s.", strings.TrimRight(education, ".;:, ")))
	}

	if overlap := skillOverlap(profile.Skills, description, overlapSkills); len(overlap) > 0 {
		sentences = append(sentences, fmt.Sprintf("Your posting mentions %s, which I work with directly.", strings.Join(overlap, ", ")))
	}

	return strings.Join(sentences, " ")
}

// firstEducation skips a bare "Education" heading.
func firstEducation(snippets []string) string {
	for _, line := range snippets {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(strings.TrimRight(line, ":"), "education") {
			continue
		}
		return line
	}
	return ""
}

func skillOverlap(skills []string, description string, limit int) []string {
	description = strings.ToLower(description)
	if description == "" {
		return nil
	}

	var overlap []string
	for _, skill := range skills {
		if strings.Contains(description, strings.ToLower(skill)) {
			overlap = append(overlap, skill)
			if len(overlap) == limit {
				break
			}
		}
	}
	return overlap
}

func closing(company, name, email, phone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I am enthusiastic about the possibility of bringing my experience to %s. Thank you for considering my application, and I look forward to speaking with you.", company)
	b.WriteString("\n\nSincerely,\n")
	b.WriteString(name)
	if email = strings.TrimSpace(email); email != "" {
		b.WriteString("\n" + email)
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		b.WriteString("\n" + phone)
	}
	return b.String()
}

func skillPhrase(skills []string) string {
	if len(skills) == 0 {
		return fallbackSkillPhrase
	}
	return strings.Join(skills, ", ")
}

func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// lowerFirst lowercases a leading plain word such as "Built" but leaves
// acronyms and words with inner capitals untouched.
func lowerFirst(s string) string {
	word := s
	if i := strings.IndexAny(s, " \t,"); i != -1 {
		word = s[:i]
	}
	r, size := utf8.DecodeRuneInString(word)
	if !unicode.IsUpper(r) || size == len(word) {
		return s
	}
	for _, rest := range word[size:] {
		if !unicode.IsLower(rest) {
			return s
		}
	}
	return string(unicode.ToLower(r)) + s[size:]
}
