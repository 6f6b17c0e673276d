// Package responses turns questionnaire submissions into rows of the type-specific
// response tables and reads them back.
package responses

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	"github.com/mbolis/quick-questionnaire/log"
	"github.com/mbolis/quick-questionnaire/model"
	"github.com/mbolis/quick-questionnaire/surveys"
	"github.com/pkg/errors"
)

type Dispatcher struct {
	db         *sql.DB
	dateFormat string
	now        func() time.Time
}

func NewDispatcher(db *sql.DB, dateFormat string) *Dispatcher {
	return &Dispatcher{db: db, dateFormat: dateFormat, now: time.Now}
}

// InsertResponse stores one submission of a survey and returns its response id.
//
// resume saves the response as a draft: it stays incomplete and required questions
// may be left unanswered. responseID 0 starts a new response; otherwise it names a
// draft of the same user and survey whose answers are replaced.
//
// The response row and all answer rows are written in a single transaction.
// Validation errors are reported as a multierror of *ValidationError.
func (d *Dispatcher) InsertResponse(
	ctx context.Context,
	surveyID, userID int64,
	resume bool,
	responseID int64,
	values url.Values,
) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	survey, err := surveys.Load(ctx, tx, surveyID)
	if err != nil {
		return 0, err
	}

	answers, err := Collect(survey, values, Options{DateFormat: d.dateFormat, Draft: resume})
	if err != nil {
		return 0, err
	}

	if responseID == 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO response (survey_id, user_id, modified, complete)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			surveyID,
			userID,
			d.now(),
			!resume,
		).Scan(&responseID)
		if err != nil {
			return 0, errors.Wrap(err, "insert response")
		}
	} else {
		err = resumeResponse(ctx, tx, surveyID, userID, responseID, !resume, d.now())
		if err != nil {
			return 0, err
		}
	}

	err = insertAnswers(ctx, tx, responseID, answers)
	if err != nil {
		return 0, err
	}

	err = tx.Commit()
	if err != nil {
		return 0, errors.Wrap(err, "commit")
	}

	log.WithFields(map[string]any{
		"survey":   surveyID,
		"response": responseID,
		"answers":  len(answers),
		"complete": !resume,
	}).Debug("response saved")
	return responseID, nil
}

// resumeResponse checks the draft belongs to user and survey, updates its state and
// clears its previous answers.
func resumeResponse(ctx context.Context, tx *sql.Tx, surveyID, userID, responseID int64, complete bool, now time.Time) error {
	var owner int64
	var done bool
	err := tx.QueryRowContext(ctx, `
		SELECT user_id, complete FROM response
		WHERE id = ?
			AND survey_id = ?`,
		responseID,
		surveyID,
	).Scan(&owner, &done)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return ErrResponseNotFound
	}
	if err != nil {
		return errors.Wrap(err, "get response")
	}
	if done {
		return ErrResponseComplete
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE response SET modified = ?, complete = ?
		WHERE id = ?`,
		now,
		complete,
		responseID,
	)
	if err != nil {
		return errors.Wrap(err, "update response")
	}

	for _, t := range answerTables {
		_, err = tx.ExecContext(ctx, `DELETE FROM `+t.name+` WHERE response_id = ?`, responseID)
		if err != nil {
			return errors.Wrapf(err, "clear %s", t.name)
		}
	}
	return nil
}

func insertAnswers(ctx context.Context, tx *sql.Tx, responseID int64, answers []Answer) error {
	stmts := map[string]*sql.Stmt{}
	defer func() {
		for _, stmt := range stmts {
			stmt.Close()
		}
	}()

	for _, a := range answers {
		stmt, ok := stmts[a.Table()]
		if !ok {
			t, err := tableOf(a)
			if err != nil {
				return err
			}
			stmt, err = tx.PrepareContext(ctx, t.insert)
			if err != nil {
				return errors.Wrapf(err, "prepare %s", t.name)
			}
			stmts[t.name] = stmt
		}

		_, err := stmt.ExecContext(ctx, append([]any{responseID}, a.args()...)...)
		if err != nil {
			return errors.Wrapf(err, "insert %s for question %d", a.Table(), a.Question())
		}
	}
	return nil
}

// Detail is a response with its answers grouped by response table.
type Detail struct {
	model.Response
	Answers map[string][]Answer `json:"answers"`
}

// GetResponse reads back one response with all of its answers.
func (d *Dispatcher) GetResponse(ctx context.Context, responseID int64) (Detail, error) {
	details, err := d.readResponses(ctx, "r.id = ?", responseID)
	if err != nil {
		return Detail{}, err
	}
	if len(details) == 0 {
		return Detail{}, ErrResponseNotFound
	}
	return details[0], nil
}

// ListResponses reads back all responses of a survey, oldest first.
func (d *Dispatcher) ListResponses(ctx context.Context, surveyID int64) ([]Detail, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, `SELECT 1 FROM survey WHERE id = ?`, surveyID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get survey")
	}
	return d.readResponses(ctx, "r.survey_id = ?", surveyID)
}

func (d *Dispatcher) readResponses(ctx context.Context, where string, arg int64) ([]Detail, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT r.id, r.survey_id, r.user_id, r.modified, r.complete
		FROM response r
		WHERE `+where+`
		ORDER BY r.id`,
		arg,
	)
	if err != nil {
		return nil, errors.Wrap(err, "get responses")
	}
	defer rows.Close()

	details := []Detail{}
	index := map[int64]int{}
	for rows.Next() {
		r := model.Response{}
		err = rows.Scan(&r.ID, &r.SurveyID, &r.UserID, &r.Modified, &r.Complete)
		if err != nil {
			return nil, errors.Wrap(err, "scan response")
		}
		index[r.ID] = len(details)
		details = append(details, Detail{Response: r, Answers: map[string][]Answer{}})
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "get responses")
	}
	if len(details) == 0 {
		return details, nil
	}

	for _, t := range answerTables {
		err = t.read(ctx, d.db, where, arg, func(responseID int64, a Answer) {
			if i, ok := index[responseID]; ok {
				details[i].Answers[t.name] = append(details[i].Answers[t.name], a)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return details, nil
}
