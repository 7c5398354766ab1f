package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/atrium-edu/atrium-go-api/internal/dto"
	"github.com/atrium-edu/atrium-go-api/internal/handler"
)

type stubSubmissionService struct {
	response dto.SubmissionResponse
}

func (s stubSubmissionService) List(context.Context, dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	return []dto.SubmissionResponse{s.response}, nil
}

func (s stubSubmissionService) GetByID(context.Context, uint) (dto.SubmissionResponse, error) {
	return s.response, nil
}

func (s stubSubmissionService) Upload(context.Context, dto.SubmissionCreateRequest, []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	return s.response, nil
}

func (s stubSubmissionService) RequestResubmission(context.Context, uint) (dto.SubmissionResponse, error) {
	return s.response, nil
}

func (s stubSubmissionService) Delete(context.Context, uint) error {
	return nil
}

func TestSubmissionResponseContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "submission.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	grade := 20.0
	response := dto.SubmissionResponse{
		ID:           55,
		AssignmentID: 10,
		CourseID:     1,
		StudentID:    3,
		Files: []dto.SubmissionFileResponse{
			{
				URL:          "https://cdn.example.com/essay.pdf",
				OriginalName: "essay.pdf",
				MediaType:    "application/pdf",
			},
		},
		ExtractedText: "Entropy measures the disorder of a closed system.",
		Status:        "graded",
		Grade:         &grade,
		GradingMode:   "ai",
		Feedback:      "Clear derivation, minor sign error in part two.",
		AIAnalysis:    "Question 1 fully answered, question 2 partially.",
		SubmittedAt:   now.Add(-time.Hour),
		CreatedAt:     now.Add(-time.Hour),
		UpdatedAt:     now,
		Assignment: dto.AssignmentLite{
			ID:        10,
			Title:     "Thermodynamics Essay",
			MaxPoints: 25,
			DueDate:   now.Add(24 * time.Hour),
		},
		Student: dto.StudentLite{
			ID:    3,
			Name:  "Jane",
			Email: "jane@example.com",
		},
	}

	svc := stubSubmissionService{response: response}
	submissionHandler := handler.NewSubmissionHandler(svc, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1/submissions", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "faculty")
		return c.Next()
	})
	submissionHandler.Register(group, group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/55", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
