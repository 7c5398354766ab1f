package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

func TestResolveRubricQuestionSumWinsOverFlatMaximum(t *testing.T) {
	assignment := models.Assignment{
		MaxPoints: 100,
		Questions: []models.AssignmentQuestion{
			{Text: "Define entropy", Marks: 10},
			{Text: "Derive the formula", Marks: 15},
		},
	}

	effectiveMax, _ := ResolveRubric(assignment)
	require.Equal(t, 25.0, effectiveMax)
}

func TestResolveRubricFallsBackToFlatMaximum(t *testing.T) {
	assignment := models.Assignment{MaxPoints: 100}

	effectiveMax, _ := ResolveRubric(assignment)
	require.Equal(t, 100.0, effectiveMax)
}

func TestResolveRubricIgnoresNonPositiveMarks(t *testing.T) {
	assignment := models.Assignment{
		MaxPoints: 40,
		Questions: []models.AssignmentQuestion{
			{Text: "Warm-up", Marks: 0},
			{Text: "Bonus", Marks: -5},
		},
	}

	// All marks are non-positive, so the flat maximum still applies.
	effectiveMax, _ := ResolveRubric(assignment)
	require.Equal(t, 40.0, effectiveMax)
}

func TestResolveRubricPersona(t *testing.T) {
	strict := models.Assignment{MaxPoints: 10, ValuationMode: "Strict"}
	_, persona := ResolveRubric(strict)
	require.Equal(t, personaStrict, persona)

	liberal := models.Assignment{MaxPoints: 10, ValuationMode: "liberal"}
	_, persona = ResolveRubric(liberal)
	require.Equal(t, personaLiberal, persona)

	unset := models.Assignment{MaxPoints: 10}
	_, persona = ResolveRubric(unset)
	require.Equal(t, personaLiberal, persona)

	unknown := models.Assignment{MaxPoints: 10, ValuationMode: "harsh"}
	_, persona = ResolveRubric(unknown)
	require.Equal(t, personaLiberal, persona)
}
