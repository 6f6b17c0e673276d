package responses

import (
	"net/url"
	"strconv"
)

// PrimaryField is the form field holding the main value of a question: q<question_id>.
func PrimaryField(questionId int64) string {
	return "q" + strconv.FormatInt(questionId, 10)
}

// SubField is the per-choice form field of a question, q<question_id>_<choice_id>,
// carrying rank values and other-choice text.
func SubField(questionId, choiceId int64) string {
	return PrimaryField(questionId) + "_" + strconv.FormatInt(choiceId, 10)
}

func primary(values url.Values, questionId int64) string {
	return values.Get(PrimaryField(questionId))
}

// primaryList accepts both repeated q<id> fields and the q<id>[] array form.
func primaryList(values url.Values, questionId int64) (list []string) {
	field := PrimaryField(questionId)
	for _, key := range []string{field, field + "[]"} {
		for _, v := range values[key] {
			if v != "" {
				list = append(list, v)
			}
		}
	}
	return
}
