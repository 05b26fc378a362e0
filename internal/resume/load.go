package resume

import (
	"fmt"

	"github.com/spigell/job-agent/internal/document"
)

// Load reads the résumé at path and extracts its profile. A missing file is
// reported as document.ErrNotFound.
func Load(path string, extractor *Extractor) (Profile, error) {
	if extractor == nil {
		extractor = NewExtractor(nil)
	}

	text, err := document.Extract(path)
	if err != nil {
		return Profile{}, fmt.Errorf("extracting resume text: %w", err)
	}

	profile := extractor.Extract(text)
	profile.SourcePath = path
	return profile, nil
}
