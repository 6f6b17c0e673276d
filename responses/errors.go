package responses

import (
	"fmt"

	"github.com/mbolis/quick-questionnaire/surveys"
	"github.com/pkg/errors"
)

var (
	ErrRequired      = errors.New("answer required")
	ErrInvalidAnswer = errors.New("invalid answer")

	ErrSurveyNotFound   = surveys.ErrNotFound
	ErrResponseNotFound = errors.New("response not found")
	ErrResponseComplete = errors.New("response already complete")
)

// ValidationError rejects the submitted value of one question.
// Err is ErrRequired or ErrInvalidAnswer.
type ValidationError struct {
	QuestionID int64
	Field      string
	Err        error
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("question %d (%s): %s", e.QuestionID, e.Field, e.Err)
	}
	return fmt.Sprintf("question %d (%s): %s: %s", e.QuestionID, e.Field, e.Err, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func required(questionId int64) error {
	return &ValidationError{QuestionID: questionId, Field: PrimaryField(questionId), Err: ErrRequired}
}

func invalid(questionId int64, field string, reason string, args ...any) error {
	return &ValidationError{
		QuestionID: questionId,
		Field:      field,
		Err:        ErrInvalidAnswer,
		Reason:     fmt.Sprintf(reason, args...),
	}
}
