package testutil

import (
	"github.com/google/uuid"

	"github.com/target/checkqueue/internal/domain/model"
)

// SubmissionRequestBuilder provides a fluent interface for building CreateSubmissionRequest objects for testing.
type SubmissionRequestBuilder struct {
	req *model.CreateSubmissionRequest
}

// NewSubmissionRequest creates a builder for a checked C# submission in the "csharp" sandbox.
func NewSubmissionRequest() *SubmissionRequestBuilder {
	return &SubmissionRequestBuilder{
		req: &model.CreateSubmissionRequest{
			CourseID:         "basicprogramming",
			SlideID:          uuid.MustParse("6c6e1b8a-4d3b-4b0e-9c0a-3f8b2a1d9e01"),
			UserID:           "user-1",
			Code:             `Console.WriteLine("42");`,
			Language:         model.LanguageCSharp,
			Sandbox:          "csharp",
			RequiresChecking: true,
		},
	}
}

// WithCourse sets the course and slide.
func (b *SubmissionRequestBuilder) WithCourse(courseID string, slideID uuid.UUID) *SubmissionRequestBuilder {
	b.req.CourseID = courseID
	b.req.SlideID = slideID
	return b
}

// WithUser sets the user id.
func (b *SubmissionRequestBuilder) WithUser(userID string) *SubmissionRequestBuilder {
	b.req.UserID = userID
	return b
}

// WithCode sets the submitted code.
func (b *SubmissionRequestBuilder) WithCode(code string) *SubmissionRequestBuilder {
	b.req.Code = code
	return b
}

// WithLanguage sets the language.
func (b *SubmissionRequestBuilder) WithLanguage(lang model.Language) *SubmissionRequestBuilder {
	b.req.Language = lang
	return b
}

// WithSandbox sets the sandbox.
func (b *SubmissionRequestBuilder) WithSandbox(sandbox string) *SubmissionRequestBuilder {
	b.req.Sandbox = sandbox
	return b
}

// WithCompilationError sets the compilation error reported at submit time.
func (b *SubmissionRequestBuilder) WithCompilationError(msg string) *SubmissionRequestBuilder {
	b.req.CompilationError = msg
	return b
}

// WithoutChecking marks the submission as not requiring automatic checking.
func (b *SubmissionRequestBuilder) WithoutChecking() *SubmissionRequestBuilder {
	b.req.RequiresChecking = false
	return b
}

// Build returns a copy of the request.
func (b *SubmissionRequestBuilder) Build() *model.CreateSubmissionRequest {
	req := *b.req
	return &req
}
