package catalog

import "testing"

func TestLoad(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(c.Schools) == 0 || len(c.Subjects) == 0 || len(c.Chapters) == 0 {
		t.Fatalf("catalog incomplete: %d schools, %d subjects, %d chapters",
			len(c.Schools), len(c.Subjects), len(c.Chapters))
	}
}

func TestChaptersReferenceKnownSubjects(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	subjects := make(map[string]bool)
	for _, s := range c.Subjects {
		subjects[s.ID] = true
	}
	for _, ch := range c.Chapters {
		if !subjects[ch.SubjectID] {
			t.Errorf("chapter %q references unknown subject %q", ch.ID, ch.SubjectID)
		}
	}
}

func TestChaptersFor(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	math := c.ChaptersFor("math")
	if len(math) != 2 {
		t.Fatalf("expected 2 math chapters, got %d", len(math))
	}
	if none := c.ChaptersFor("art"); none != nil {
		t.Fatalf("expected no chapters for unknown subject, got %v", none)
	}
}
