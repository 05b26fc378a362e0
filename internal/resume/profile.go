package resume

// Profile is the structured view of a résumé. It is built once by the
// Extractor and must be treated as read-only afterwards: every consumer gets a
// copy, and the slices are never mutated after extraction.
type Profile struct {
	RawText string `json:"raw_text"`

	// Name, Email and Phone are empty when nothing matched.
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	Skills             []string `json:"skills"`
	ExperienceSnippets []string `json:"experience_snippets"`
	EducationSnippets  []string `json:"education_snippets"`
	TargetRole         Role     `json:"target_role"`

	SourcePath string `json:"source_path,omitempty"`
}

// HasName reports whether the extractor (or the caller) supplied a name.
func (p Profile) HasName() bool {
	return p.Name != ""
}

// WithName returns a copy of the profile with the name replaced.
func (p Profile) WithName(name string) Profile {
	p.Name = name
	return p
}

// TopSkills returns at most n skills in their stored order.
func (p Profile) TopSkills(n int) []string {
	if n <= 0 || len(p.Skills) == 0 {
		return nil
	}
	if n > len(p.Skills) {
		n = len(p.Skills)
	}
	return p.Skills[:n]
}
