package responses_test

import (
	"context"
	"database/sql"
	"net/url"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/mbolis/quick-questionnaire/database"
	"github.com/mbolis/quick-questionnaire/model"
	"github.com/mbolis/quick-questionnaire/responses"
	"github.com/mbolis/quick-questionnaire/surveys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// createQuestionnaire stores a one-question survey and returns it as loaded back.
func createQuestionnaire(t *testing.T, db *sql.DB, question model.Question) model.Survey {
	t.Helper()
	ctx := context.Background()
	if question.Content == "" {
		question.Content = "Test content"
	}

	store := surveys.NewStore(db)
	id, err := store.Create(ctx, model.Survey{Title: "Test", Questions: []model.Question{question}})
	require.NoError(t, err)
	survey, err := store.Get(ctx, id)
	require.NoError(t, err)
	return survey
}

func choiceId(t *testing.T, q model.Question, content string) int64 {
	t.Helper()
	for _, c := range q.Choices {
		if c.Content == content {
			return c.ID
		}
	}
	t.Fatalf("no choice %q", content)
	return 0
}

func field(id int64) string {
	return strconv.FormatInt(id, 10)
}

func countRows(t *testing.T, db *sql.DB, table string, where string, args ...any) int {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE `+where, args...).Scan(&n)
	require.NoError(t, err)
	return n
}

func assertOneResponse(t *testing.T, db *sql.DB, surveyId, responseId int64) {
	t.Helper()
	var ids []int64
	rows, err := db.Query(`SELECT id FROM response WHERE survey_id = ?`, surveyId)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	assert.Equal(t, []int64{responseId}, ids)
}

func TestInsertResponseBoolean(t *testing.T) {
	db := openDB(t)
	survey := createQuestionnaire(t, db, model.Question{Type: model.YesNo, Content: "Enter yes or no"})
	q := survey.Questions[0]

	d := responses.NewDispatcher(db, "")
	rid, err := d.InsertResponse(context.Background(), survey.ID, 1, false, 0, url.Values{
		"q" + field(q.ID): {"y"},
	})
	require.NoError(t, err)
	assertOneResponse(t, db, survey.ID, rid)

	var questionId int64
	var choice string
	require.Equal(t, 1, countRows(t, db, "response_bool", "response_id = ?", rid))
	err = db.QueryRow(`SELECT question_id, choice_id FROM response_bool WHERE response_id = ?`, rid).
		Scan(&questionId, &choice)
	require.NoError(t, err)
	assert.Equal(t, q.ID, questionId)
	assert.Equal(t, "y", choice)
}

func TestInsertResponseText(t *testing.T) {
	db := openDB(t)
	survey := createQuestionnaire(t, db, model.Question{Type: model.Essay, Content: "Enter some text", Precise: 5})
	q := survey.Questions[0]

	d := responses.NewDispatcher(db, "")
	rid, err := d.InsertResponse(context.Background(), survey.ID, 1, false, 0, url.Values{
		"q" + field(q.ID): {"This is my essay."},
	})
	require.NoError(t, err)
	assertOneResponse(t, db, survey.ID, rid)

	detail, err := d.GetResponse(context.Background(), rid)
	require.NoError(t, err)
	assert.Equal(t, []responses.Answer{
		responses.TextAnswer{QuestionID: q.ID, Response: "This is my essay."},
	}, detail.Answers[responses.TableText])
	assert.True(t, detail.Complete)
	assert.Equal(t, int64(1), detail.UserID)
}

func TestInsertResponseDate(t *testing.T) {
	db := openDB(t)
	survey := createQuestionnaire(t, db, model.Question{Type: model.Date, Content: "Enter a date"})
	q := survey.Questions[0]

	d := responses.NewDispatcher(db, "2/1/2006")
	rid, err := d.InsertResponse(context.Background(), survey.ID, 1, false, 0, url.Values{
		"q" + field(q.ID): {"27/1/2015"},
	})
	require.NoError(t, err)
	assertOneResponse(t, db, survey.ID, rid)

	var stored string
	require.Equal(t, 1, countRows(t, db, "response_date", "response_id = ?", rid))
	err = db.QueryRow(`SELECT response FROM response_date WHERE response_id = ? AND question_id = ?`, rid, q.ID).
		Scan(&stored)
	require.NoError(t, err)
	assert.Equal(t, "2015-01-27", stored)
}

func TestInsertResponseDateMalformed(t *testing.T) {
	db := openDB(t)
	survey := createQuestionnaire(t, db, model.Question{Type: model.Date})
	q := survey.Questions[0]

	d := responses.NewDispatcher(db, "2/1/2006")
	_, err := d.InsertResponse(context.Background(), survey.ID, 1, false, 0, url.Values{
		"q" + field(q.ID): {"1/27/2015"},
	})
	assert.ErrorIs(t, err, responses.ErrInvalidAnswer)
	assert.Equal(t, 0, countRows(t, db, "response", "survey_id = ?", survey.ID))
	assert.Equal(t, 0, countRows(t, db, "response_date", "question_id = ?", q.ID))
}

func TestInsertResponseSingle(t *testing.T) {
	db := openDB(t)
	survey := createQuestionnaire(t, db, model.Question{
		Type:    model.Radio,
		Content: "Select one",
		Choices: []model.Choice{
			{Content: "One", Value: "1"},
			{Content: "Two", Value: "2"},
			{Content: "Three", Value: "3"},
			{Content: "!other=Something else", Value: "4"},
		},
	})
	q := survey.Questions[0]
	ctx := context.Background()
	d := responses.NewDispatcher(db, "")

	two := choiceId(t, q, "Two")
	rid, err := d.InsertResponse(ctx, survey.ID, 1, false, 0, url.Values{
		"q" + field(q.ID): {field(two)},
	})
	require.NoError(t, err)
	assertOneResponse(t, db, survey.ID, rid)

	detail, err := d.GetResponse(ctx, rid)
	require.NoError(t, err)
	assert.Equal(t, []responses.Answer{
		responses.SingleAnswer{QuestionID: q.ID, ChoiceID: two},
	}, detail.Answers[responses.TableSingle])
	assert.Empty(t, detail.Answers[responses.TableOther])

	other := choiceId(t, q, "!other=Something else")
	rid2, err := d.InsertResponse(ctx, survey.ID, 2, false, 0, url.Values{
		"q" + field(q.ID):                      {field(other)},
		"q" + field(q.ID) + "_" + field(other): {"Forty-four"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, rid, rid2)
	assert.Equal(t, 2, countRows(t, db, "response", "survey_id = ?", survey.ID))

	detail, err = d.GetResponse(ctx, rid2)
	require.NoError(t, err)
	assert.Equal(t, []responses.Answer{
		responses.SingleAnswer{QuestionID: q.ID, ChoiceID: other},
	}, detail.Answers[responses.TableSingle])
	assert.Equal(t, []responses.Answer{
		responses.OtherAnswer{QuestionID: q.ID, ChoiceID: other, Response: "Forty-four"},
	}, detail.Answers[responses.TableOther])
}

func TestInsertResponseMultiple(t *testing.T) {
	db := openDB(t)
	survey := createQuestionnaire(t, db, model.Question{
		Type:    model.Checkbox,
		Content: "Select any",
		Choices: []model.Choice{
			{Content: "One", Value: "1"},
			{Content: "Two", Value: "2"},
			{Content: "Three", Value: "3"},
			{Content: "!other=Another number", Value: "4"},
		},
	})
	q := survey.Questions[0]
	ctx := context.Background()
	d := responses.NewDispatcher(db, "")

	two, three := choiceId(t, q, "Two"), choiceId(t, q, "Three")
	other := choiceId(t, q, "!other=Another number")
	rid, err := d.InsertResponse(ctx, survey.ID, 1, false, 0, url.Values{
		"q" + field(q.ID) + "[]":               {field(two), field(three)},
		"q" + field(q.ID) + "_" + field(other): {"Forty-four"},
	})
	require.NoError(t, err)
	assertOneResponse(t, db, survey.ID, rid)

	detail, err := d.GetResponse(ctx, rid)
	require.NoError(t, err)
	assert.Equal(t, []responses.Answer{
		responses.MultipleAnswer{QuestionID: q.ID, ChoiceID: two},
		responses.MultipleAnswer{QuestionID: q.ID, ChoiceID: three},
		responses.MultipleAnswer{QuestionID: q.ID, ChoiceID: other},
	}, detail.Answers[responses.TableMultiple])
	assert.Equal(t, []responses.Answer{
		responses.OtherAnswer{QuestionID: q.ID, ChoiceID: other, Response: "Forty-four"},
	}, detail.Answers[responses.TableOther])
}

func TestInsertResponseRank(t *testing.T) {
	db := openDB(t)
	survey := createQuestionnaire(t, db, model.Question{
		Type:    model.Rank,
		Content: "Rank these",
		Length:  5,
		Choices: []model.Choice{
			{Content: "One", Value: "1"},
			{Content: "Two", Value: "2"},
			{Content: "Three", Value: "3"},
		},
	})
	q := survey.Questions[0]

	values := url.Values{}
	ranks := map[int64]int{}
	for i, c := range q.Choices {
		ranks[c.ID] = i + 1
		values.Set("q"+field(q.ID)+"_"+field(c.ID), strconv.Itoa(i+1))
	}

	d := responses.NewDispatcher(db, "")
	rid, err := d.InsertResponse(context.Background(), survey.ID, 1, false, 0, values)
	require.NoError(t, err)
	assertOneResponse(t, db, survey.ID, rid)

	detail, err := d.GetResponse(context.Background(), rid)
	require.NoError(t, err)
	require.Len(t, detail.Answers[responses.TableRank], 3)
	for _, a := range detail.Answers[responses.TableRank] {
		r := a.(responses.RankAnswer)
		assert.Equal(t, q.ID, r.QuestionID)
		assert.Equal(t, ranks[r.ChoiceID], r.Rank)
	}
}

func TestInsertResponseIsAtomic(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	store := surveys.NewStore(db)
	surveyId, err := store.Create(ctx, model.Survey{Title: "Two questions", Questions: []model.Question{
		{Type: model.Essay, Content: "Say something"},
		{Type: model.YesNo, Content: "Agree?", Required: true},
	}})
	require.NoError(t, err)
	survey, err := store.Get(ctx, surveyId)
	require.NoError(t, err)

	d := responses.NewDispatcher(db, "")
	_, err = d.InsertResponse(ctx, surveyId, 1, false, 0, url.Values{
		"q" + field(survey.Questions[0].ID): {"hello"},
	})
	assert.ErrorIs(t, err, responses.ErrRequired)
	assert.Equal(t, 0, countRows(t, db, "response", "survey_id = ?", surveyId))
	assert.Equal(t, 0, countRows(t, db, "response_text", "question_id = ?", survey.Questions[0].ID))
}

func TestInsertResponseResumeDraft(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	store := surveys.NewStore(db)
	surveyId, err := store.Create(ctx, model.Survey{Title: "Draft", Questions: []model.Question{
		{Type: model.Essay, Content: "Say something", Required: true},
		{Type: model.YesNo, Content: "Agree?", Required: true},
	}})
	require.NoError(t, err)
	survey, err := store.Get(ctx, surveyId)
	require.NoError(t, err)
	essay, yesno := field(survey.Questions[0].ID), field(survey.Questions[1].ID)

	d := responses.NewDispatcher(db, "")
	rid, err := d.InsertResponse(ctx, surveyId, 1, true, 0, url.Values{"q" + essay: {"first draft"}})
	require.NoError(t, err)

	detail, err := d.GetResponse(ctx, rid)
	require.NoError(t, err)
	assert.False(t, detail.Complete)

	_, err = d.InsertResponse(ctx, surveyId, 2, false, rid, url.Values{"q" + essay: {"x"}, "q" + yesno: {"n"}})
	assert.ErrorIs(t, err, responses.ErrResponseNotFound)

	rid2, err := d.InsertResponse(ctx, surveyId, 1, false, rid, url.Values{"q" + essay: {"final"}, "q" + yesno: {"n"}})
	require.NoError(t, err)
	assert.Equal(t, rid, rid2)

	detail, err = d.GetResponse(ctx, rid)
	require.NoError(t, err)
	assert.True(t, detail.Complete)
	assert.Equal(t, []responses.Answer{
		responses.TextAnswer{QuestionID: survey.Questions[0].ID, Response: "final"},
	}, detail.Answers[responses.TableText])
	assert.Equal(t, []responses.Answer{
		responses.BoolAnswer{QuestionID: survey.Questions[1].ID, ChoiceID: "n"},
	}, detail.Answers[responses.TableBool])

	_, err = d.InsertResponse(ctx, surveyId, 1, false, rid, url.Values{"q" + essay: {"again"}, "q" + yesno: {"y"}})
	assert.ErrorIs(t, err, responses.ErrResponseComplete)
}

func TestInsertResponseConcurrentUsers(t *testing.T) {
	db := openDB(t)
	survey := createQuestionnaire(t, db, model.Question{Type: model.YesNo})
	q := survey.Questions[0]
	ctx := context.Background()
	d := responses.NewDispatcher(db, "")

	const users = 40
	errs := make([]error, users)
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = d.InsertResponse(ctx, survey.ID, int64(i+1), false, 0, url.Values{"q" + field(q.ID): {"y"}})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "user %d", i+1)
	}
	assert.Equal(t, users, countRows(t, db, "response", "survey_id = ?", survey.ID))
	assert.Equal(t, users, countRows(t, db, responses.TableBool, "question_id = ?", q.ID))
}

func TestInsertResponseUnknownSurvey(t *testing.T) {
	db := openDB(t)
	d := responses.NewDispatcher(db, "")
	_, err := d.InsertResponse(context.Background(), 404, 1, false, 0, url.Values{})
	assert.ErrorIs(t, err, responses.ErrSurveyNotFound)
}

func TestListResponses(t *testing.T) {
	db := openDB(t)
	survey := createQuestionnaire(t, db, model.Question{Type: model.YesNo})
	q := survey.Questions[0]
	ctx := context.Background()
	d := responses.NewDispatcher(db, "")

	for i, token := range []string{"y", "n", "y"} {
		_, err := d.InsertResponse(ctx, survey.ID, int64(i+1), false, 0, url.Values{"q" + field(q.ID): {token}})
		require.NoError(t, err)
	}

	details, err := d.ListResponses(ctx, survey.ID)
	require.NoError(t, err)
	require.Len(t, details, 3)
	assert.Equal(t, []responses.Answer{
		responses.BoolAnswer{QuestionID: q.ID, ChoiceID: "n"},
	}, details[1].Answers[responses.TableBool])
	assert.Equal(t, int64(3), details[2].UserID)

	_, err = d.ListResponses(ctx, 404)
	assert.ErrorIs(t, err, responses.ErrSurveyNotFound)
}
