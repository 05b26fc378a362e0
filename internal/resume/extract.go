package resume

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	nameScanLines    = 5
	nameMaxLength    = 50
	nameSearchWindow = 500
	sectionWindow    = 1000
	maxSnippets      = 20

	experienceKeyword = "experience"
	educationKeyword  = "education"
)

var defaultVocabulary = []string{
	"Python", "SQL", "Pandas", "Excel", "Power BI", "Tableau",
	"Machine Learning", "Scikit-learn", "TensorFlow", "PyTorch",
	"Data Analysis", "NLP", "Deep Learning", "Linux", "Git",
	"Airflow", "Docker", "JavaScript", "Kafka", "Kubernetes", "Snowflake", "Spark",
}

var (
	emailPattern     = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phonePattern     = regexp.MustCompile(`\+?\(?\d[\d().\-]*\d`)
	nameLinePattern  = regexp.MustCompile(`^[A-Z][a-z]+( [A-Z][a-z]+)*$`)
	labelledName     = regexp.MustCompile(`Name[: \t]+([A-Z][a-z]+[ \t]+[A-Z][a-z]+)`)
	capitalizedWords = regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){1,2}\b`)
)

// DefaultVocabulary returns a copy of the built-in skill vocabulary.
func DefaultVocabulary() []string {
	return append([]string(nil), defaultVocabulary...)
}

// Extractor turns raw résumé text into a Profile using keyword and shape
// heuristics. It is safe for concurrent use.
type Extractor struct {
	vocabulary []string
}

// NewExtractor builds an extractor for the given skill vocabulary. An empty
// vocabulary selects DefaultVocabulary.
func NewExtractor(vocabulary []string) *Extractor {
	vocab := make([]string, 0, len(vocabulary))
	for _, skill := range vocabulary {
		if skill = strings.TrimSpace(skill); skill != "" {
			vocab = append(vocab, skill)
		}
	}
	if len(vocab) == 0 {
		vocab = DefaultVocabulary()
	}
	return &Extractor{vocabulary: vocab}
}

// Vocabulary returns a copy of the configured vocabulary.
func (e *Extractor) Vocabulary() []string {
	return append([]string(nil), e.vocabulary...)
}

// Extract never fails: missing fields stay empty and the role falls back to
// the classifier default.
func (e *Extractor) Extract(rawText string) Profile {
	text := Normalize(rawText)
	skills := e.extractSkills(text)
	experience, education := extractSections(text)

	return Profile{
		RawText:            text,
		Name:               extractName(text),
		Email:              extractEmail(text),
		Phone:              extractPhone(text),
		Skills:             skills,
		ExperienceSnippets: experience,
		EducationSnippets:  education,
		TargetRole:         Classify(text, skills),
	}
}

func extractEmail(text string) string {
	return emailPattern.FindString(text)
}

// extractPhone looks for 10-15 digits once spaces are removed. Digit groups
// joined by dashes, dots or parentheses count as one number, but a group that
// mixes dots and dashes (2015.06-2019.08) is a date range, not a phone.
func extractPhone(text string) string {
	compact := strings.ReplaceAll(text, " ", "")
	for _, candidate := range phonePattern.FindAllString(compact, -1) {
		if strings.Contains(candidate, ".") && strings.Contains(candidate, "-") {
			continue
		}

		prefix := ""
		if strings.HasPrefix(candidate, "+") {
			prefix = "+"
		}

		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, candidate)

		if len(digits) == len(strings.TrimPrefix(candidate, "+")) {
			// a bare digit run: take its first 15 digits
			if len(digits) >= 10 {
				if len(digits) > 15 {
					digits = digits[:15]
				}
				return prefix + digits
			}
			continue
		}

		if len(digits) >= 10 && len(digits) <= 15 {
			return prefix + digits
		}
	}
	return ""
}

// extractName prefers a leading line shaped like "First Last" and falls back
// to patterns in the first few hundred characters. Names with particles,
// initials or non-ASCII letters are not recognized.
func extractName(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > nameScanLines {
		lines = lines[:nameScanLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		words := len(strings.Fields(line))
		if words < 2 || words > 4 || len(line) >= nameMaxLength {
			continue
		}
		if nameLinePattern.MatchString(line) {
			return line
		}
	}

	window := text
	if utf8.RuneCountInString(window) > nameSearchWindow {
		window = string([]rune(window)[:nameSearchWindow])
	}

	if m := labelledName.FindStringSubmatch(window); m != nil {
		return collapseSpaces(m[1])
	}
	if m := capitalizedWords.FindString(window); m != "" {
		return collapseSpaces(m)
	}
	return ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (e *Extractor) extractSkills(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{}, len(e.vocabulary))
	found := make([]string, 0)

	for _, skill := range e.vocabulary {
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		if strings.Contains(lower, key) {
			seen[key] = struct{}{}
			found = append(found, skill)
		}
	}

	sort.Strings(found)
	return found
}

// extractSections slices the text at the first literal "experience" and
// "education" keywords. Résumés without those headers yield no snippets.
func extractSections(text string) ([]string, []string) {
	lower := asciiLower(text)
	experience := []string{}
	education := []string{}

	if start := strings.Index(lower, experienceKeyword); start != -1 {
		end := start + sectionWindow
		if rel := strings.Index(lower[start:], educationKeyword); rel != -1 {
			end = start + rel
		}
		end = clampRuneBoundary(text, end)
		experience = nonEmptyLines(text[start:end], maxSnippets)
	}

	if start := strings.Index(lower, educationKeyword); start != -1 {
		end := clampRuneBoundary(text, start+sectionWindow)
		education = nonEmptyLines(text[start:end], maxSnippets)
	}

	return experience, education
}
