package resume

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-agent/internal/document"
)

const sampleResume = "John Smith\njohn@x.com\n555-123-4567\nExperience\nBuilt ETL pipelines using Python and SQL.\nEducation\nB.S. Computer Science"

func TestExtractSampleResume(t *testing.T) {
	extractor := NewExtractor([]string{"Python", "SQL"})

	profile := extractor.Extract(sampleResume)

	assert.Equal(t, "John Smith", profile.Name)
	assert.Equal(t, "john@x.com", profile.Email)
	assert.Equal(t, "5551234567", profile.Phone)
	assert.Equal(t, []string{"Python", "SQL"}, profile.Skills)
	assert.Equal(t, []string{"Experience", "Built ETL pipelines using Python and SQL."}, profile.ExperienceSnippets)
	assert.Equal(t, []string{"Education", "B.S. Computer Science"}, profile.EducationSnippets)
	assert.Equal(t, RoleDataAnalyst, profile.TargetRole)
}

func TestExtractEmptyInput(t *testing.T) {
	profile := NewExtractor(nil).Extract("")

	assert.Empty(t, profile.RawText)
	assert.Empty(t, profile.Name)
	assert.Empty(t, profile.Email)
	assert.Empty(t, profile.Phone)
	assert.Empty(t, profile.Skills)
	assert.Empty(t, profile.ExperienceSnippets)
	assert.Empty(t, profile.EducationSnippets)
	assert.Equal(t, DefaultRole, profile.TargetRole)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "collapses spaces and tabs", input: "a  \t b", expect: "a b"},
		{name: "collapses blank lines", input: "a\n\n\n\nb", expect: "a\n\nb"},
		{name: "windows newlines", input: "a\r\nb\r\n\r\n\r\nc", expect: "a\nb\n\nc"},
		{name: "trims", input: "  \n a \n ", expect: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Normalize(tt.input))
		})
	}
}

func TestExtractEmailReturnedExactly(t *testing.T) {
	for _, email := range []string{"jane.doe@example.co.uk", "a-b_c@mail-server.io", "x@y.org"} {
		profile := NewExtractor(nil).Extract("Some header\nContact: " + email + " | remote")
		assert.Equal(t, email, profile.Email)
	}
}

func TestExtractPhone(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "spaced international", input: "Phone: +1 555 123 4567", expect: "+15551234567"},
		{name: "dashed", input: "Call 555-123-4567 anytime", expect: "5551234567"},
		{name: "parentheses", input: "(555) 123-4567", expect: "5551234567"},
		{name: "date ranges are not phones", input: "2019-2021 worked", expect: ""},
		{name: "dotted month ranges are not phones", input: "Acme 2015.06-2019.08\nPhone 555 123 4567", expect: "5551234567"},
		{name: "dotted phone", input: "tel 555.123.4567", expect: "5551234567"},
		{name: "too short", input: "123 456", expect: ""},
		{name: "long run keeps fifteen digits", input: "12345678901234567", expect: "123456789012345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, extractPhone(tt.input))
		})
	}
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "first line", input: "Mary Ann Jones\nData Analyst", expect: "Mary Ann Jones"},
		{name: "skips non name lines", input: "RESUME\nCurriculum vitae 2024\nAda Lovelace\n", expect: "Ada Lovelace"},
		{name: "labelled", input: "CV\nName: Alan Turing, mathematician and pioneer", expect: "Alan Turing"},
		{name: "capitalized sequence", input: "resume of\ncontact grace@navy.mil\nGrace Hopper, rear admiral", expect: "Grace Hopper"},
		{name: "nothing", input: "resume\nall lowercase text here", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, extractName(Normalize(tt.input)))
		})
	}
}

func TestExtractSkillsSortedAndUnique(t *testing.T) {
	extractor := NewExtractor([]string{"sql", "Tableau", "SQL", "Power BI", "Excel", "Python"})

	profile := extractor.Extract("I use POWER BI, sql, tableau and python. SQL again. Excel sheets.")

	require.NotEmpty(t, profile.Skills)
	assert.True(t, sort.StringsAreSorted(profile.Skills))

	seen := map[string]bool{}
	for _, skill := range profile.Skills {
		key := strings.ToLower(skill)
		assert.False(t, seen[key], "duplicate skill %s", skill)
		seen[key] = true
	}
	assert.Equal(t, []string{"Excel", "Power BI", "Python", "Tableau", "sql"}, profile.Skills)
}

func TestExtractSectionsWithoutHeaders(t *testing.T) {
	profile := NewExtractor(nil).Extract("Jane Doe\nWorked at Acme for five years.\nStudied at MIT.")

	assert.Empty(t, profile.ExperienceSnippets)
	assert.Empty(t, profile.EducationSnippets)
}

func TestExtractSectionsEducationFirst(t *testing.T) {
	text := "Jane Doe\nEducation\nMSc Physics\nExperience\nLine one\nLine two"
	experience, education := extractSections(text)

	assert.Equal(t, []string{"Experience", "Line one", "Line two"}, experience)
	assert.Equal(t, []string{"Education", "MSc Physics", "Experience", "Line one", "Line two"}, education)
}

func TestExtractSectionsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("Experience\n")
	for i := 0; i < 40; i++ {
		b.WriteString("x\n")
	}

	experience, _ := extractSections(b.String())
	assert.Len(t, experience, maxSnippets)
}

func TestExtractSectionsMultibyte(t *testing.T) {
	text := "Experience\n" + strings.Repeat("é", 700)
	experience, _ := extractSections(text)

	require.Len(t, experience, 2)
	assert.True(t, strings.HasPrefix(experience[1], "é"))
}

func TestExtractPhoneSkipsDateRangeBeforeRealNumber(t *testing.T) {
	profile := NewExtractor(nil).Extract("Jane Doe\nExperience\nAcme Corp 2015.06-2019.08 analyst\nPhone 555 123 4567")

	assert.Equal(t, "5551234567", profile.Phone)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleResume), 0o600))

	profile, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "John Smith", profile.Name)
	assert.Equal(t, path, profile.SourcePath)

	_, err = Load(filepath.Join(t.TempDir(), "missing.pdf"), nil)
	assert.True(t, errors.Is(err, document.ErrNotFound))
}

func TestProfileWithNameDoesNotMutate(t *testing.T) {
	original := Profile{Name: "", Skills: []string{"Go"}}
	named := original.WithName("Jane Doe")

	assert.Empty(t, original.Name)
	assert.Equal(t, "Jane Doe", named.Name)
	assert.True(t, named.HasName())
	assert.Equal(t, []string{"Go"}, named.TopSkills(5))
	assert.Nil(t, named.TopSkills(0))
}
