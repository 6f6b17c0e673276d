package model

import "fmt"

type QuestionType int

// Numeric tags are the ones stored in the question table.
const (
	YesNo       QuestionType = 1
	Text        QuestionType = 2
	Essay       QuestionType = 3
	Radio       QuestionType = 4
	Checkbox    QuestionType = 5
	Dropdown    QuestionType = 6
	Rank        QuestionType = 8
	Date        QuestionType = 9
	Numeric     QuestionType = 10
	PageBreak   QuestionType = 99
	SectionText QuestionType = 100
)

var questionTypeNames = map[QuestionType]string{
	YesNo:       "yesno",
	Text:        "text",
	Essay:       "essay",
	Radio:       "radio",
	Checkbox:    "check",
	Dropdown:    "drop",
	Rank:        "rate",
	Date:        "date",
	Numeric:     "numeric",
	PageBreak:   "pagebreak",
	SectionText: "sectiontext",
}

func (t QuestionType) Valid() bool {
	_, ok := questionTypeNames[t]
	return ok
}

// HasChoices reports whether questions of this type carry a choice list.
func (t QuestionType) HasChoices() bool {
	switch t {
	case Radio, Checkbox, Dropdown, Rank:
		return true
	}
	return false
}

// HasResponse is false for layout-only types that never receive answers.
func (t QuestionType) HasResponse() bool {
	return t.Valid() && t != PageBreak && t != SectionText
}

func (t QuestionType) String() string {
	if name, ok := questionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("QuestionType(%d)", int(t))
}

func (t QuestionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid question type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *QuestionType) UnmarshalText(text []byte) error {
	for qt, name := range questionTypeNames {
		if name == string(text) {
			*t = qt
			return nil
		}
	}
	return fmt.Errorf("unknown question type %q", text)
}
