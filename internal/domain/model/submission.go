package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Language tags the programming language of a submission.
type Language string

// Known languages.
const (
	LanguageCSharp     Language = "csharp"
	LanguagePython3    Language = "python3"
	LanguageJava       Language = "java"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageCpp        Language = "cpp"
	LanguageC          Language = "c"
	LanguageGo         Language = "go"
	LanguageHaskell    Language = "haskell"
	LanguageText       Language = "text"
	LanguageHTML       Language = "html"
)

var automaticCheckingLanguages = map[Language]struct{}{
	LanguageCSharp:     {},
	LanguagePython3:    {},
	LanguageJava:       {},
	LanguageJavaScript: {},
	LanguageTypeScript: {},
	LanguageCpp:        {},
	LanguageC:          {},
	LanguageGo:         {},
	LanguageHaskell:    {},
	LanguageText:       {},
}

// HasAutomaticChecking reports whether submissions in this language are sent to agents.
func (l Language) HasAutomaticChecking() bool {
	_, ok := automaticCheckingLanguages[l]
	return ok
}

// EmptyCodePlaceholder replaces blank code so that every submission has stored text.
const EmptyCodePlaceholder = "// no code"

// WebCourseID identifies submissions coming from the free-form sandbox runner.
// Such submissions have no exercise and are never counted as right answers.
const WebCourseID = "web"

// Submission is one attempt to run or check a piece of code.
type Submission struct {
	ID            int64     `json:"id"              db:"id"`
	CourseID      string    `json:"course_id"       db:"course_id"`
	SlideID       uuid.UUID `json:"slide_id"        db:"slide_id"`
	UserID        string    `json:"user_id"         db:"user_id"`
	CodeHash      string    `json:"code_hash"       db:"code_hash"`
	Language      Language  `json:"language"        db:"language"`
	Sandbox       string    `json:"sandbox"         db:"sandbox"`
	IsRightAnswer bool      `json:"is_right_answer" db:"is_right_answer"`
	CreatedAt     time.Time `json:"created_at"      db:"created_at"`

	Code string       `json:"code,omitempty" db:"-"`
	Job  *CheckingJob `json:"job,omitempty"  db:"-"`
}

// IsWebRunner reports whether the submission came from the sandbox runner.
func (s *Submission) IsWebRunner() bool {
	return s.CourseID == WebCourseID && s.SlideID == uuid.Nil
}

// CreateSubmissionRequest carries everything needed to create a submission.
type CreateSubmissionRequest struct {
	CourseID             string    `json:"course_id"`
	SlideID              uuid.UUID `json:"slide_id"`
	UserID               string    `json:"user_id"`
	Code                 string    `json:"code"`
	Language             Language  `json:"language"`
	Sandbox              string    `json:"sandbox"`
	CompilationError     string    `json:"compilation_error,omitempty"`
	Output               string    `json:"output,omitempty"`
	DisplayName          string    `json:"display_name,omitempty"`
	ExecutionServiceName string    `json:"execution_service_name,omitempty"`

	// RequiresChecking is decided by the queue service from the language and the
	// exercise; it is not accepted from clients.
	RequiresChecking bool `json:"-"`
}

// Validate validates the CreateSubmissionRequest fields.
func (r *CreateSubmissionRequest) Validate() error {
	if strings.TrimSpace(r.CourseID) == "" {
		return errors.New("course_id is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if strings.TrimSpace(string(r.Language)) == "" {
		return errors.New("language is required")
	}
	if strings.TrimSpace(r.Sandbox) == "" {
		return errors.New("sandbox is required")
	}
	return nil
}

// Normalize applies defaults before the request is persisted.
func (r *CreateSubmissionRequest) Normalize() {
	r.Code = SanitizeText(r.Code)
	if strings.TrimSpace(r.Code) == "" {
		r.Code = EmptyCodePlaceholder
	}
	r.Language = Language(strings.ToLower(strings.TrimSpace(string(r.Language))))
	r.Sandbox = strings.TrimSpace(r.Sandbox)
}

// ClaimedSubmission is handed to an agent after a successful claim.
type ClaimedSubmission struct {
	Claim      ClaimToken  `json:"claim"`
	Submission *Submission `json:"submission"`
}

// SanitizeText replaces NUL bytes and invalid UTF-8 with U+FFFD. Postgres text
// columns reject both.
func SanitizeText(s string) string {
	if strings.IndexByte(s, 0) >= 0 {
		s = strings.ReplaceAll(s, "\x00", "\uFFFD")
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}
