package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-questionnaire/app"
	"github.com/mbolis/quick-questionnaire/httpx"
	"github.com/mbolis/quick-questionnaire/log"
	"github.com/mbolis/quick-questionnaire/model"
	"github.com/mbolis/quick-questionnaire/responses"
	"github.com/mbolis/quick-questionnaire/routes/middlewares"
)

type publicSurvey struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Questions   []publicQuestion `json:"questions"`
}

type publicQuestion struct {
	ID       int64              `json:"id"`
	Field    string             `json:"field"`
	Type     model.QuestionType `json:"type"`
	Content  string             `json:"content"`
	Required bool               `json:"required"`
	Length   int                `json:"length"`
	Precise  int                `json:"precise"`
	Choices  []publicChoice     `json:"choices,omitempty"`
}

type publicChoice struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	// OtherField is where the text typed next to an other-choice goes.
	OtherField string `json:"otherField,omitempty"`
	// RankField is where the rank of the choice goes, for rank questions.
	RankField string `json:"rankField,omitempty"`
}

func toPublic(s model.Survey) publicSurvey {
	p := publicSurvey{ID: s.ID, Title: s.Title, Description: s.Description, Questions: []publicQuestion{}}
	for _, q := range s.Questions {
		pq := publicQuestion{
			ID:       q.ID,
			Field:    responses.PrimaryField(q.ID),
			Type:     q.Type,
			Content:  q.Content,
			Required: q.Required,
			Length:   q.Length,
			Precise:  q.Precise,
		}
		for _, c := range q.Choices {
			pc := publicChoice{ID: c.ID, Label: c.Label()}
			if c.IsOther() {
				pc.OtherField = responses.SubField(q.ID, c.ID)
			}
			if q.Type == model.Rank {
				pc.RankField = responses.SubField(q.ID, c.ID)
			}
			pq.Choices = append(pq.Choices, pc)
		}
		p.Questions = append(p.Questions, pq)
	}
	return p
}

func PublicGetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlId(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := app.Surveys.Get(r.Context(), surveyId)
		if errors.Is(err, responses.ErrSurveyNotFound) {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		render.JSON(w, r, toPublic(survey))
	}
}

// PublicSubmitResponse stores a form-encoded submission for the token's user.
// Optional form fields: resume=1 keeps the response as a draft, rid continues a draft.
func PublicSubmitResponse(app app.App) http.HandlerFunc {
	submitting := newInflight()

	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlId(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		userId, ok := middlewares.UserID(r.Context())
		if !ok {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "request.user_id")
			return
		}

		err = r.ParseForm()
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_form")
			return
		}
		resume, _ := strconv.ParseBool(r.PostForm.Get("resume"))
		var responseId int64
		if rid := r.PostForm.Get("rid"); rid != "" {
			responseId, err = strconv.ParseInt(rid, 10, 64)
			if err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_form.rid")
				return
			}
		}

		key := submitKey{surveyId, userId}
		if !submitting.acquire(key) {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "response.already_submitting")
			return
		}
		defer submitting.release(key)

		responseId, err = app.Responses.InsertResponse(r.Context(), surveyId, userId, resume, responseId, r.PostForm)
		switch {
		case errors.Is(err, responses.ErrSurveyNotFound):
			httpx.LogNotFound(w, "insert_response.survey", surveyId)
			return
		case errors.Is(err, responses.ErrResponseNotFound):
			httpx.LogNotFound(w, "insert_response.response", r.PostForm.Get("rid"))
			return
		case errors.Is(err, responses.ErrResponseComplete):
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "insert_response.complete")
			return
		case errors.Is(err, responses.ErrRequired), errors.Is(err, responses.ErrInvalidAnswer):
			httpx.LogInvalid(w, r, "insert_response.validate", err)
			return
		case err != nil:
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": responseId,
		})
	}
}
