// Package catalog serves the static school, subject, and chapter data
// the setup form is built from. The data is embedded and read-only.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed data/catalog.json
var dataFS embed.FS

// ProgramType is a school program track.
type ProgramType string

const (
	ProgramStandard ProgramType = "Standard"
	ProgramEP       ProgramType = "English Program"
	ProgramGifted   ProgramType = "Gifted"
)

// School is one selectable school.
type School struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Affiliation string        `json:"affiliation"`
	Programs    []ProgramType `json:"programs"`
}

// Subject is one selectable subject.
type Subject struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	NameEn string `json:"nameEn"`
}

// Chapter is one chapter within a subject.
type Chapter struct {
	ID        string `json:"id"`
	SubjectID string `json:"subjectId"`
	Title     string `json:"title"`
	TitleEn   string `json:"titleEn,omitempty"`
}

// Catalog bundles everything the setup form needs.
type Catalog struct {
	Schools  []School  `json:"schools"`
	Subjects []Subject `json:"subjects"`
	Chapters []Chapter `json:"chapters"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	raw, err := dataFS.ReadFile("data/catalog.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// ChaptersFor returns the chapters belonging to one subject.
func (c *Catalog) ChaptersFor(subjectID string) []Chapter {
	var out []Chapter
	for _, ch := range c.Chapters {
		if ch.SubjectID == subjectID {
			out = append(out, ch)
		}
	}
	return out
}
