// Package surveys persists questionnaire definitions: surveys, their questions and
// the choices of choice-type questions.
package surveys

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/mbolis/quick-questionnaire/model"
	"github.com/pkg/errors"
)

var (
	ErrNotFound     = errors.New("survey not found")
	ErrConflict     = errors.New("survey version conflict")
	ErrHasResponses = errors.New("survey already has responses")
	ErrInvalid      = errors.New("invalid survey")
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db}
}

func (s *Store) Create(ctx context.Context, survey model.Survey) (surveyId int64, err error) {
	err = Validate(survey)
	if err != nil {
		return
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO survey (title, description) VALUES (?, ?)
		RETURNING id`,
		survey.Title,
		survey.Description,
	).Scan(&surveyId)
	if err != nil {
		return 0, errors.Wrap(err, "insert survey")
	}

	err = insertQuestions(ctx, tx, surveyId, survey.Questions)
	if err != nil {
		return 0, err
	}

	err = tx.Commit()
	if err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	return
}

func (s *Store) List(ctx context.Context) ([]model.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.version, s.title, s.description
		FROM survey s
		ORDER BY s.id`)
	if err != nil {
		return nil, errors.Wrap(err, "list surveys")
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		survey := model.Survey{}
		err = rows.Scan(&survey.ID, &survey.Version, &survey.Title, &survey.Description)
		if err != nil {
			return nil, errors.Wrap(err, "scan survey")
		}
		surveys = append(surveys, survey)
	}
	return surveys, errors.Wrap(rows.Err(), "list surveys")
}

func (s *Store) Get(ctx context.Context, surveyId int64) (model.Survey, error) {
	return Load(ctx, s.db, surveyId)
}

// Update replaces title and description, bumping the version only when survey.Version
// matches the stored one. Non-nil Questions replace the stored ones, which is refused
// once responses exist.
func (s *Store) Update(ctx context.Context, survey model.Survey) error {
	err := Validate(survey)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE survey
		SET
			title = ?,
			description = ?,
			version = version+1
		WHERE id = ?
			AND version = ?`,
		survey.Title,
		survey.Description,
		survey.ID,
		survey.Version,
	)
	if err != nil {
		return errors.Wrap(err, "update survey")
	}
	// optimistic lock
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update survey")
	}
	if n < 1 {
		var exists bool
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM survey WHERE id = ?`, survey.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "update survey")
		}
		return ErrConflict
	}

	if survey.Questions == nil {
		return errors.Wrap(tx.Commit(), "commit")
	}

	var hasResponses bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM response WHERE survey_id = ?)`,
		survey.ID,
	).Scan(&hasResponses)
	if err != nil {
		return errors.Wrap(err, "count responses")
	}
	if hasResponses {
		return ErrHasResponses
	}

	// delete all questions, choices cascade
	_, err = tx.ExecContext(ctx, `DELETE FROM question WHERE survey_id = ?`, survey.ID)
	if err != nil {
		return errors.Wrap(err, "delete questions")
	}
	err = insertQuestions(ctx, tx, survey.ID, survey.Questions)
	if err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "commit")
}

// Delete removes the survey; questions, choices, responses and answers cascade.
func (s *Store) Delete(ctx context.Context, surveyId int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey WHERE id = ?`, surveyId)
	if err != nil {
		return errors.Wrap(err, "delete survey")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete survey")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// Load reads a survey with its questions ordered by position and their choices ordered by id.
func Load(ctx context.Context, db Querier, surveyId int64) (survey model.Survey, err error) {
	err = db.QueryRowContext(ctx, `
		SELECT id, version, title, description
		FROM survey
		WHERE id = ?`,
		surveyId,
	).Scan(&survey.ID, &survey.Version, &survey.Title, &survey.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return survey, ErrNotFound
	}
	if err != nil {
		return survey, errors.Wrap(err, "get survey")
	}

	rows, err := db.QueryContext(ctx, `
		SELECT
			q.id, q.position, q.name, q.type, q.content, q.required, q.length, q.precise,
			c.id, c.content, c.value
		FROM question q
		LEFT OUTER JOIN question_choice c ON (q.id = c.question_id)
		WHERE q.survey_id = ?
		ORDER BY q.position, q.id, c.id`,
		surveyId,
	)
	if err != nil {
		return survey, errors.Wrap(err, "get questions")
	}
	defer rows.Close()

	for rows.Next() {
		q := model.Question{SurveyID: surveyId}
		var choiceId sql.NullInt64
		var choiceContent, choiceValue sql.NullString
		err = rows.Scan(
			&q.ID, &q.Position, &q.Name, &q.Type, &q.Content, &q.Required, &q.Length, &q.Precise,
			&choiceId, &choiceContent, &choiceValue,
		)
		if err != nil {
			return survey, errors.Wrap(err, "scan question")
		}

		last := len(survey.Questions) - 1
		if last < 0 || survey.Questions[last].ID != q.ID {
			survey.Questions = append(survey.Questions, q)
			last++
		}
		if choiceId.Valid {
			survey.Questions[last].Choices = append(survey.Questions[last].Choices, model.Choice{
				ID:         choiceId.Int64,
				QuestionID: q.ID,
				Content:    choiceContent.String,
				Value:      choiceValue.String,
			})
		}
	}
	return survey, errors.Wrap(rows.Err(), "get questions")
}

// Validate checks the parts of a survey definition the response dispatcher relies on.
func Validate(survey model.Survey) error {
	if strings.TrimSpace(survey.Title) == "" {
		return errors.Wrap(ErrInvalid, "missing title")
	}
	for i, q := range survey.Questions {
		if !q.Type.Valid() {
			return errors.Wrapf(ErrInvalid, "question %d: unknown type %d", i+1, int(q.Type))
		}
		if q.Type.HasChoices() && len(q.Choices) == 0 {
			return errors.Wrapf(ErrInvalid, "question %d: %s needs choices", i+1, q.Type)
		}
		if !q.Type.HasChoices() && len(q.Choices) > 0 {
			return errors.Wrapf(ErrInvalid, "question %d: %s takes no choices", i+1, q.Type)
		}
		if q.Length < 0 || q.Precise < 0 {
			return errors.Wrapf(ErrInvalid, "question %d: negative length or precision", i+1)
		}
	}
	return nil
}

var reNoIdent = regexp.MustCompile(`\W+`)

func insertQuestions(ctx context.Context, tx *sql.Tx, surveyId int64, questions []model.Question) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question (survey_id, position, name, type, content, required, length, precise)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	if err != nil {
		return errors.Wrap(err, "prepare questions")
	}
	defer stmt.Close()

	choiceStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question_choice (question_id, content, value)
		VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare choices")
	}
	defer choiceStmt.Close()

	names := make([]string, len(questions))
	for i, q := range questions {
		names[i] = questionName(q, i, names[:i])

		var questionId int64
		err = stmt.QueryRowContext(ctx,
			surveyId, i+1, names[i], int(q.Type), q.Content, q.Required, q.Length, q.Precise,
		).Scan(&questionId)
		if err != nil {
			return errors.Wrapf(err, "insert question %d", i+1)
		}

		for _, c := range q.Choices {
			_, err = choiceStmt.ExecContext(ctx, questionId, c.Content, c.Value)
			if err != nil {
				return errors.Wrapf(err, "insert question %d choice", i+1)
			}
		}
	}
	return nil
}

// questionName derives a unique identifier-like name from the explicit name or the content.
func questionName(q model.Question, i int, prev []string) string {
	name := q.Name
	if name == "" {
		name = q.Content
	}
	name = strings.ToLower(name)
	name = reNoIdent.ReplaceAllLiteralString(name, " ")
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		name = fmt.Sprintf("q%d", i+1)
	}

	unique := name
	for n := 1; contains(prev, unique); n++ {
		unique = fmt.Sprintf("%s__%d", name, n)
	}
	return unique
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
