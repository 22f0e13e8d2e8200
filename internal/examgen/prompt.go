package examgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a Thai curriculum expert and tutor creating exams from a student's own study materials.

Rules:
- The attached files are the student's study materials. Base every question on them.
- Every question is 4-option multiple choice with exactly one correct option.
- Distractors should reflect plausible mistakes, not random values.
- The "explanation" field MUST be written in Thai, no matter which language the exam is in. Keep it very easy to understand (ภาษาเข้าใจง่าย) for a student at the given level.
- If the exam language is English, questions and options are English but the explanation is still Thai.
- Label each question with the curriculum topic it tests.`

// buildUserMessage renders the per-request instruction block. Count is
// stated verbatim; whether the model honors it is checked nowhere, the
// decoder sizes to the returned array.
func buildUserMessage(req GenerationRequest) string {
	var b strings.Builder

	if len(req.WeakTopics) > 0 {
		fmt.Fprintf(&b, "IMPORTANT: This is a RECOVERY EXAM for a specific student profile. Focus specifically on these weak topics: %s.\n",
			strings.Join(req.WeakTopics, ", "))
	} else {
		b.WriteString("Generate a personalized exam based on the provided study materials for a single student.\n")
	}

	fmt.Fprintf(&b, "Grade: %s\n", req.Grade)
	fmt.Fprintf(&b, "Exam language: %s\n", req.Language)
	fmt.Fprintf(&b, "Question count: %d\n", req.Count)

	return b.String()
}
