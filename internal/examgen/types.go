package examgen

import "fmt"

// Grade is a Thai school level: G1-G6 (ประถม) and M1-M6 (มัธยม).
type Grade string

// Grades lists all levels in curriculum order.
var Grades = []Grade{
	"G1", "G2", "G3", "G4", "G5", "G6",
	"M1", "M2", "M3", "M4", "M5", "M6",
}

// ParseGrade validates a grade string.
func ParseGrade(s string) (Grade, error) {
	for _, g := range Grades {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown grade %q", s)
}

// Language is the language questions and options are written in.
// Explanations are always Thai regardless of this setting.
type Language string

const (
	LanguageThai    Language = "Thai"
	LanguageEnglish Language = "English"
)

// ParseLanguage validates a language string.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguageThai, LanguageEnglish:
		return Language(s), nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// ReferenceFile is one uploaded study material. Data is base64, possibly
// still wrapped in a browser data-URI header; decoding happens at
// request-build time and the raw bytes are never retained past the call.
type ReferenceFile struct {
	Name     string `json:"name"`
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// GenerationRequest describes one exam to generate.
type GenerationRequest struct {
	Files    []ReferenceFile
	Grade    Grade
	Language Language

	// Count is how many questions to ask for. It is advisory: the
	// model is instructed but not forced, and the decoder sizes the
	// result to whatever array actually came back.
	Count int

	// WeakTopics, when non-empty, frames the request as a recovery
	// exam focused on those topics.
	WeakTopics []string
}

// Question is one decoded multiple-choice item. Immutable once decoded;
// it lives for a single exam session.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
	Topic        string   `json:"topic"`
}
