package responses

// Answer is one row of a type-specific response table. The set of implementations is
// closed: one per table.
type Answer interface {
	Question() int64
	Table() string
	args() []any
}

type BoolAnswer struct {
	QuestionID int64  `json:"questionId"`
	ChoiceID   string `json:"choiceId"`
}

type TextAnswer struct {
	QuestionID int64  `json:"questionId"`
	Response   string `json:"response"`
}

// DateAnswer holds the date in ISO form, YYYY-MM-DD.
type DateAnswer struct {
	QuestionID int64  `json:"questionId"`
	Response   string `json:"response"`
}

type SingleAnswer struct {
	QuestionID int64 `json:"questionId"`
	ChoiceID   int64 `json:"choiceId"`
}

type MultipleAnswer struct {
	QuestionID int64 `json:"questionId"`
	ChoiceID   int64 `json:"choiceId"`
}

type RankAnswer struct {
	QuestionID int64 `json:"questionId"`
	ChoiceID   int64 `json:"choiceId"`
	Rank       int   `json:"rank"`
}

// OtherAnswer is the free text typed next to an other-choice.
type OtherAnswer struct {
	QuestionID int64  `json:"questionId"`
	ChoiceID   int64  `json:"choiceId"`
	Response   string `json:"response"`
}

const (
	TableBool     = "response_bool"
	TableText     = "response_text"
	TableDate     = "response_date"
	TableSingle   = "resp_single"
	TableMultiple = "resp_multiple"
	TableRank     = "response_rank"
	TableOther    = "response_other"
)

func (a BoolAnswer) Question() int64     { return a.QuestionID }
func (a TextAnswer) Question() int64     { return a.QuestionID }
func (a DateAnswer) Question() int64     { return a.QuestionID }
func (a SingleAnswer) Question() int64   { return a.QuestionID }
func (a MultipleAnswer) Question() int64 { return a.QuestionID }
func (a RankAnswer) Question() int64     { return a.QuestionID }
func (a OtherAnswer) Question() int64    { return a.QuestionID }

func (BoolAnswer) Table() string     { return TableBool }
func (TextAnswer) Table() string     { return TableText }
func (DateAnswer) Table() string     { return TableDate }
func (SingleAnswer) Table() string   { return TableSingle }
func (MultipleAnswer) Table() string { return TableMultiple }
func (RankAnswer) Table() string     { return TableRank }
func (OtherAnswer) Table() string    { return TableOther }

func (a BoolAnswer) args() []any     { return []any{a.QuestionID, a.ChoiceID} }
func (a TextAnswer) args() []any     { return []any{a.QuestionID, a.Response} }
func (a DateAnswer) args() []any     { return []any{a.QuestionID, a.Response} }
func (a SingleAnswer) args() []any   { return []any{a.QuestionID, a.ChoiceID} }
func (a MultipleAnswer) args() []any { return []any{a.QuestionID, a.ChoiceID} }
func (a RankAnswer) args() []any     { return []any{a.QuestionID, a.ChoiceID, a.Rank} }
func (a OtherAnswer) args() []any    { return []any{a.QuestionID, a.ChoiceID, a.Response} }
