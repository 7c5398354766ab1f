package service

import (
	"strings"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

const personaStrict = "Grade strictly: award marks only for answers that are fully correct and " +
	"complete, deduct for missing reasoning, and do not give the benefit of the doubt."

const personaLiberal = "Grade leniently: award partial credit generously, reward demonstrated " +
	"understanding even when the answer is incomplete, and give the benefit of the doubt."

// ResolveRubric derives the effective maximum score and grading persona for an
// assignment. When the assignment carries questions whose marks sum to a
// positive total, that sum wins over the flat maximum. The result is never
// cached on the submission; callers resolve fresh on every grading attempt so
// rubric edits only affect future runs.
func ResolveRubric(assignment models.Assignment) (float64, string) {
	effectiveMax := assignment.MaxPoints

	var sum float64
	for _, question := range assignment.Questions {
		if question.Marks > 0 {
			sum += question.Marks
		}
	}
	if sum > 0 {
		effectiveMax = sum
	}

	persona := personaLiberal
	if strings.EqualFold(strings.TrimSpace(assignment.ValuationMode), models.ValuationStrict) {
		persona = personaStrict
	}

	return effectiveMax, persona
}
