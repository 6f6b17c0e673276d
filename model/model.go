package model

import (
	"strings"
	"time"
)

type Survey struct {
	ID          int64      `json:"id,omitempty"`
	Version     int        `json:"version,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Question finds a question of the survey by id.
func (s Survey) Question(id int64) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

type Question struct {
	ID       int64        `json:"id,omitempty"`
	SurveyID int64        `json:"surveyId,omitempty"`
	Position int          `json:"position"`
	Name     string       `json:"name"`
	Type     QuestionType `json:"type"`
	Content  string       `json:"content"`
	Required bool         `json:"required"`
	// Length and Precise are type parameters: field size and max length for text,
	// number of rank levels for rank, digits and decimals for numeric.
	Length  int      `json:"length"`
	Precise int      `json:"precise"`
	Choices []Choice `json:"choices,omitempty"`
}

// Choice finds a choice of the question by id.
func (q Question) Choice(id int64) (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

const otherPrefix = "!other"

// DefaultOtherLabel is shown for an other-choice whose content carries no label.
const DefaultOtherLabel = "Other:"

type Choice struct {
	ID         int64  `json:"id,omitempty"`
	QuestionID int64  `json:"questionId,omitempty"`
	Content    string `json:"content"`
	Value      string `json:"value"`
}

// IsOther reports whether the choice accepts accompanying free text.
func (c Choice) IsOther() bool {
	return strings.HasPrefix(c.Content, otherPrefix)
}

// Label is the display text of the choice, with the other-choice marker removed.
func (c Choice) Label() string {
	if !c.IsOther() {
		return c.Content
	}
	label := strings.TrimPrefix(c.Content, otherPrefix)
	label = strings.TrimPrefix(label, "=")
	if label == "" {
		return DefaultOtherLabel
	}
	return label
}

type Response struct {
	ID       int64     `json:"id"`
	SurveyID int64     `json:"surveyId"`
	UserID   int64     `json:"userId"`
	Modified time.Time `json:"modified"`
	Complete bool      `json:"complete"`
}
