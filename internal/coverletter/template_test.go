package coverletter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-agent/internal/jobs"
	"github.com/spigell/job-agent/internal/resume"
)

var fixedNow = time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

func sampleProfile() resume.Profile {
	return resume.Profile{
		Name:               "John Smith",
		Email:              "john@x.com",
		Phone:              "5551234567",
		Skills:             []string{"Python", "SQL"},
		ExperienceSnippets: []string{"Experience", "Built ETL pipelines using Python and SQL."},
		EducationSnippets:  []string{"Education", "B.S. Computer Science"},
		TargetRole:         resume.RoleDataAnalyst,
	}
}

func samplePosting() *jobs.Posting {
	return &jobs.Posting{
		ID:          "job-1",
		Title:       "Data Engineer",
		Company:     "Acme",
		Description: "We need strong SQL skills and Kubernetes experience.",
	}
}

func TestComposeGolden(t *testing.T) {
	letter, err := Compose(sampleProfile(), samplePosting(), ComposeOptions{Now: fixedNow})
	require.NoError(t, err)

	expected := strings.Join([]string{
		"March 05, 2024",
		"Dear Acme Hiring Manager,\n\nI am writing to express my strong interest in the Data Engineer position at Acme, bringing hands-on expertise in Python, SQL.",
		"In my recent work: Built ETL pipelines using Python and SQL, drawing on my skills in Python, SQL.",
		"My core competencies include Python, SQL. My education includes B.S. Computer Science. Your posting mentions SQL, which I work with directly.",
		"I am enthusiastic about the possibility of bringing my experience to Acme. Thank you for considering my application, and I look forward to speaking with you.\n\nSincerely,\nJohn Smith\njohn@x.com\n5551234567",
	}, "\n\n")

	assert.Equal(t, expected, letter)
}

func TestComposeIsGrounded(t *testing.T) {
	letter, err := Compose(sampleProfile(), samplePosting(), ComposeOptions{Now: fixedNow})
	require.NoError(t, err)

	for _, skill := range resume.DefaultVocabulary() {
		if skill == "Python" || skill == "SQL" {
			continue
		}
		assert.NotContains(t, letter, skill, "letter mentions a skill missing from the profile")
	}
	assert.NotContains(t, letter, "strong SQL skills", "description text must not be copied")
}

func TestComposeExperienceVariants(t *testing.T) {
	tests := []struct {
		name     string
		snippets []string
		contains string
		absent   string
	}{
		{
			name:     "two qualifying lines",
			snippets: []string{"WORK EXPERIENCE AND PROJECTS", "Built ETL pipelines using Python and SQL.", "Led a team of five data analysts", "Shipped three dashboards to finance"},
			contains: "In my recent work: Built ETL pipelines using Python and SQL. Additionally, led a team of five data analysts.",
			absent:   "Shipped three dashboards",
		},
		{
			name:     "acronym keeps case",
			snippets: []string{"Built ETL pipelines using Python and SQL.", "AWS migration of the reporting stack"},
			contains: "Additionally, AWS migration of the reporting stack.",
		},
		{
			name:     "uppercase and short lines do not qualify",
			snippets: []string{"EXPERIENCE", "SENIOR DATA ANALYST AT ACME", "Analyst, 2020"},
			contains: "My professional background includes substantial work with Python, SQL, which I am eager to apply to the challenges at Acme.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := sampleProfile()
			profile.ExperienceSnippets = tt.snippets

			letter, err := Compose(profile, samplePosting(), ComposeOptions{Now: fixedNow})
			require.NoError(t, err)

			assert.Contains(t, letter, tt.contains)
			if tt.absent != "" {
				assert.NotContains(t, letter, tt.absent)
			}
		})
	}
}

func TestComposeSkillCaps(t *testing.T) {
	profile := sampleProfile()
	profile.Skills = []string{"A1", "B2", "C3", "D4", "E5", "F6", "G7", "H8", "I9", "J10", "K11", "L12"}
	posting := samplePosting()
	posting.Description = "a1 b2 c3 d4 e5 f6"

	letter, err := Compose(profile, posting, ComposeOptions{Now: fixedNow})
	require.NoError(t, err)

	assert.Contains(t, letter, "expertise in A1, B2, C3, D4, E5, F6, G7, H8.")
	assert.Contains(t, letter, "My core competencies include A1, B2, C3, D4, E5, F6, G7, H8, I9, J10.")
	assert.Contains(t, letter, "Your posting mentions A1, B2, C3, D4, which")
	assert.NotContains(t, letter, "K11")
}

func TestComposeWithoutOverlapOrContacts(t *testing.T) {
	profile := sampleProfile()
	profile.Email = ""
	profile.Phone = ""
	profile.EducationSnippets = []string{"Education:"}
	posting := samplePosting()
	posting.Description = ""

	letter, err := Compose(profile, posting, ComposeOptions{Now: fixedNow})
	require.NoError(t, err)

	assert.NotContains(t, letter, "Your posting mentions")
	assert.NotContains(t, letter, "My education includes")
	assert.True(t, strings.HasSuffix(letter, "Sincerely,\nJohn Smith"))
}

func TestComposeMissingNamePolicy(t *testing.T) {
	profile := sampleProfile().WithName("")

	_, err := Compose(profile, samplePosting(), ComposeOptions{Now: fixedNow})
	assert.True(t, errors.Is(err, ErrMissingName))

	letter, err := Compose(profile, samplePosting(), ComposeOptions{Policy: PolicyPlaceholder, Now: fixedNow})
	require.NoError(t, err)
	assert.Contains(t, letter, "Sincerely,\n"+NamePlaceholder)
}

func TestComposeNilPosting(t *testing.T) {
	_, err := Compose(sampleProfile(), nil, ComposeOptions{})
	assert.ErrorIs(t, err, ErrNoPosting)
}

func TestComposeEmptyProfile(t *testing.T) {
	letter, err := Compose(resume.Profile{Name: "Jane Doe"}, &jobs.Posting{}, ComposeOptions{Now: fixedNow})
	require.NoError(t, err)

	assert.Contains(t, letter, "\n\nDear Hiring Manager,\n\n")
	assert.NotContains(t, letter, "Dear your company")
	assert.Contains(t, letter, "the advertised position at your company")
	assert.Contains(t, letter, fallbackSkillPhrase)
}

func TestParsePolicy(t *testing.T) {
	for input, expect := range map[string]Policy{"": PolicyStrict, "STRICT": PolicyStrict, " placeholder ": PolicyPlaceholder} {
		policy, err := ParsePolicy(input)
		require.NoError(t, err)
		assert.Equal(t, expect, policy)
	}

	_, err := ParsePolicy("lenient")
	assert.Error(t, err)
}
