package responses

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/quick-questionnaire/config"
	"github.com/mbolis/quick-questionnaire/model"
	"github.com/pkg/errors"
)

const isoDate = "2006-01-02"

// plain decimal notation, optionally with an exponent
var reDecimal = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

type Options struct {
	// DateFormat is the Go time layout respondents type dates in.
	DateFormat string
	// Draft skips required-answer checks, for responses saved to be resumed later.
	Draft bool
}

func (o Options) dateFormat() string {
	if o.DateFormat == "" {
		return config.DefaultDateFormat
	}
	return o.DateFormat
}

// strategy turns the submitted values of one question into answer records.
// An empty result means the question was left unanswered.
type strategy func(q model.Question, values url.Values, opts Options) ([]Answer, error)

var strategies = map[model.QuestionType]strategy{
	model.YesNo:    yesNo,
	model.Text:     text,
	model.Essay:    text,
	model.Numeric:  numeric,
	model.Date:     date,
	model.Radio:    single,
	model.Dropdown: single,
	model.Checkbox: multiple,
	model.Rank:     rank,
}

// Answers maps the submitted values for one question to its answer records.
func Answers(q model.Question, values url.Values, opts Options) ([]Answer, error) {
	if !q.Type.HasResponse() {
		if !q.Type.Valid() {
			return nil, errors.Errorf("question %d: unknown type %d", q.ID, int(q.Type))
		}
		return nil, nil
	}

	answers, err := strategies[q.Type](q, values, opts)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 && q.Required && !opts.Draft {
		return nil, required(q.ID)
	}
	return answers, nil
}

// Collect maps a whole submission to answer records, in question order.
// Validation errors of all questions are reported together.
func Collect(survey model.Survey, values url.Values, opts Options) ([]Answer, error) {
	var result *multierror.Error
	var all []Answer
	for _, q := range survey.Questions {
		answers, err := Answers(q, values, opts)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		all = append(all, answers...)
	}
	return all, result.ErrorOrNil()
}

func yesNo(q model.Question, values url.Values, _ Options) ([]Answer, error) {
	v := primary(values, q.ID)
	switch v {
	case "":
		return nil, nil
	case "y", "n":
		return []Answer{BoolAnswer{QuestionID: q.ID, ChoiceID: v}}, nil
	}
	return nil, invalid(q.ID, PrimaryField(q.ID), "expected y or n, got %q", v)
}

// text stores the value verbatim. For the short text type Precise is the max length.
func text(q model.Question, values url.Values, _ Options) ([]Answer, error) {
	v := primary(values, q.ID)
	if v == "" {
		return nil, nil
	}
	if q.Type == model.Text && q.Precise > 0 && utf8.RuneCountInString(v) > q.Precise {
		return nil, invalid(q.ID, PrimaryField(q.ID), "longer than %d characters", q.Precise)
	}
	return []Answer{TextAnswer{QuestionID: q.ID, Response: v}}, nil
}

// numeric stores a decimal number as text, rounded to Precise decimals when set.
func numeric(q model.Question, values url.Values, _ Options) ([]Answer, error) {
	v := strings.TrimSpace(primary(values, q.ID))
	if v == "" {
		return nil, nil
	}
	if !reDecimal.MatchString(v) {
		return nil, invalid(q.ID, PrimaryField(q.ID), "%q is not a number", v)
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(n, 0) {
		return nil, invalid(q.ID, PrimaryField(q.ID), "%q is not a number", v)
	}
	if q.Precise > 0 {
		v = strconv.FormatFloat(n, 'f', q.Precise, 64)
	}
	return []Answer{TextAnswer{QuestionID: q.ID, Response: v}}, nil
}

// date accepts the site date layout or ISO and always stores ISO.
func date(q model.Question, values url.Values, opts Options) ([]Answer, error) {
	v := strings.TrimSpace(primary(values, q.ID))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(opts.dateFormat(), v)
	if err != nil {
		t, err = time.Parse(isoDate, v)
	}
	if err != nil {
		return nil, invalid(q.ID, PrimaryField(q.ID), "%q does not match date format %s", v, opts.dateFormat())
	}
	return []Answer{DateAnswer{QuestionID: q.ID, Response: t.Format(isoDate)}}, nil
}

func single(q model.Question, values url.Values, _ Options) ([]Answer, error) {
	v := primary(values, q.ID)
	if v == "" {
		return nil, nil
	}
	c, err := choice(q, PrimaryField(q.ID), v)
	if err != nil {
		return nil, err
	}
	answers := []Answer{SingleAnswer{QuestionID: q.ID, ChoiceID: c.ID}}
	return appendOther(answers, q, c, values), nil
}

// multiple keeps submission order and drops repeated choices. Length and Precise,
// when set, bound the number of selected choices.
func multiple(q model.Question, values url.Values, opts Options) ([]Answer, error) {
	var answers, others []Answer
	seen := map[int64]bool{}
	for _, v := range primaryList(values, q.ID) {
		c, err := choice(q, PrimaryField(q.ID), v)
		if err != nil {
			return nil, err
		}
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		answers = append(answers, MultipleAnswer{QuestionID: q.ID, ChoiceID: c.ID})
		others = appendOther(others, q, c, values)
	}
	// text typed next to an unticked other-choice still selects it
	for _, c := range q.Choices {
		if seen[c.ID] || !c.IsOther() {
			continue
		}
		if more := appendOther(others, q, c, values); len(more) > len(others) {
			answers = append(answers, MultipleAnswer{QuestionID: q.ID, ChoiceID: c.ID})
			others = more
		}
	}

	n := len(answers)
	if n > 0 && q.Length > 0 && n < q.Length && !opts.Draft {
		return nil, invalid(q.ID, PrimaryField(q.ID), "select at least %d choices", q.Length)
	}
	if q.Precise > 0 && n > q.Precise {
		return nil, invalid(q.ID, PrimaryField(q.ID), "select at most %d choices", q.Precise)
	}
	return append(answers, others...), nil
}

// rank reads one sub-field per choice. Length, when set, is the highest rank.
// A required rank question needs every choice ranked.
func rank(q model.Question, values url.Values, opts Options) ([]Answer, error) {
	var answers []Answer
	for _, c := range q.Choices {
		field := SubField(q.ID, c.ID)
		v := strings.TrimSpace(values.Get(field))
		if v == "" {
			continue
		}
		r, err := strconv.Atoi(v)
		if err != nil {
			return nil, invalid(q.ID, field, "rank %q is not a number", v)
		}
		if r < 1 || (q.Length > 0 && r > q.Length) {
			return nil, invalid(q.ID, field, "rank %d out of range", r)
		}
		answers = append(answers, RankAnswer{QuestionID: q.ID, ChoiceID: c.ID, Rank: r})
	}
	if len(answers) > 0 && len(answers) < len(q.Choices) && q.Required && !opts.Draft {
		return nil, required(q.ID)
	}
	return answers, nil
}

func choice(q model.Question, field, v string) (model.Choice, error) {
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return model.Choice{}, invalid(q.ID, field, "choice %q is not an id", v)
	}
	c, ok := q.Choice(id)
	if !ok {
		return model.Choice{}, invalid(q.ID, field, "unknown choice %d", id)
	}
	return c, nil
}

// appendOther adds the free text of an other-choice, when there is any.
func appendOther(answers []Answer, q model.Question, c model.Choice, values url.Values) []Answer {
	if !c.IsOther() {
		return answers
	}
	text := values.Get(SubField(q.ID, c.ID))
	if strings.TrimSpace(text) == "" {
		return answers
	}
	return append(answers, OtherAnswer{QuestionID: q.ID, ChoiceID: c.ID, Response: text})
}
