package responses

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

type answerTable struct {
	name    string
	columns string
	insert  string
	scan    func(rows *sql.Rows) (int64, Answer, error)
}

var answerTables = []answerTable{
	{
		name:    TableBool,
		columns: "response_id, question_id, choice_id",
		scan: func(rows *sql.Rows) (rid int64, _ Answer, err error) {
			a := BoolAnswer{}
			err = rows.Scan(&rid, &a.QuestionID, &a.ChoiceID)
			return rid, a, err
		},
	},
	{
		name:    TableText,
		columns: "response_id, question_id, response",
		scan: func(rows *sql.Rows) (rid int64, _ Answer, err error) {
			a := TextAnswer{}
			err = rows.Scan(&rid, &a.QuestionID, &a.Response)
			return rid, a, err
		},
	},
	{
		name:    TableDate,
		columns: "response_id, question_id, response",
		scan: func(rows *sql.Rows) (rid int64, _ Answer, err error) {
			a := DateAnswer{}
			err = rows.Scan(&rid, &a.QuestionID, &a.Response)
			return rid, a, err
		},
	},
	{
		name:    TableSingle,
		columns: "response_id, question_id, choice_id",
		scan: func(rows *sql.Rows) (rid int64, _ Answer, err error) {
			a := SingleAnswer{}
			err = rows.Scan(&rid, &a.QuestionID, &a.ChoiceID)
			return rid, a, err
		},
	},
	{
		name:    TableMultiple,
		columns: "response_id, question_id, choice_id",
		scan: func(rows *sql.Rows) (rid int64, _ Answer, err error) {
			a := MultipleAnswer{}
			err = rows.Scan(&rid, &a.QuestionID, &a.ChoiceID)
			return rid, a, err
		},
	},
	{
		name:    TableRank,
		columns: "response_id, question_id, choice_id, rank",
		scan: func(rows *sql.Rows) (rid int64, _ Answer, err error) {
			a := RankAnswer{}
			err = rows.Scan(&rid, &a.QuestionID, &a.ChoiceID, &a.Rank)
			return rid, a, err
		},
	},
	{
		name:    TableOther,
		columns: "response_id, question_id, choice_id, response",
		scan: func(rows *sql.Rows) (rid int64, _ Answer, err error) {
			a := OtherAnswer{}
			err = rows.Scan(&rid, &a.QuestionID, &a.ChoiceID, &a.Response)
			return rid, a, err
		},
	},
}

func init() {
	for i := range answerTables {
		t := &answerTables[i]
		t.insert = "INSERT INTO " + t.name + " (" + t.columns + ") VALUES (?" + placeholders(t.columns) + ")"
	}
}

// placeholders adds one ", ?" for every column after the first.
func placeholders(columns string) (p string) {
	for _, c := range columns {
		if c == ',' {
			p += ", ?"
		}
	}
	return
}

func tableOf(a Answer) (answerTable, error) {
	for _, t := range answerTables {
		if t.name == a.Table() {
			return t, nil
		}
	}
	return answerTable{}, errors.Errorf("no table for %T", a)
}

// read scans the rows of responses selected by where, in insertion order.
func (t answerTable) read(ctx context.Context, db *sql.DB, where string, arg int64, fn func(int64, Answer)) error {
	rows, err := db.QueryContext(ctx, `
		SELECT `+t.columns+`
		FROM `+t.name+`
		WHERE response_id IN (SELECT r.id FROM response r WHERE `+where+`)
		ORDER BY id`,
		arg,
	)
	if err != nil {
		return errors.Wrapf(err, "get %s", t.name)
	}
	defer rows.Close()

	for rows.Next() {
		rid, a, err := t.scan(rows)
		if err != nil {
			return errors.Wrapf(err, "scan %s", t.name)
		}
		fn(rid, a)
	}
	return errors.Wrapf(rows.Err(), "get %s", t.name)
}
