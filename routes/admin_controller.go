package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-questionnaire/app"
	"github.com/mbolis/quick-questionnaire/httpx"
	"github.com/mbolis/quick-questionnaire/log"
	"github.com/mbolis/quick-questionnaire/model"
	"github.com/mbolis/quick-questionnaire/responses"
	"github.com/mbolis/quick-questionnaire/surveys"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		surveyId, err := app.Surveys.Create(r.Context(), survey)
		if errors.Is(err, surveys.ErrInvalid) {
			httpx.LogInvalid(w, r, "insert_survey.validate", err)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": surveyId,
		})
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := app.Surveys.List(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": list,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlId(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := app.Surveys.Get(r.Context(), surveyId)
		if errors.Is(err, surveys.ErrNotFound) {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		render.JSON(w, r, survey)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlId(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey := model.Survey{}
		err = render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		survey.ID = surveyId

		err = app.Surveys.Update(r.Context(), survey)
		switch {
		case errors.Is(err, surveys.ErrInvalid):
			httpx.LogInvalid(w, r, "update_survey.validate", err)
			return
		case errors.Is(err, surveys.ErrNotFound):
			httpx.LogNotFound(w, "update_survey", surveyId)
			return
		case errors.Is(err, surveys.ErrConflict):
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_survey.verify.conflict")
			return
		case errors.Is(err, surveys.ErrHasResponses):
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "db.update_survey.questions", "%s", err)
			return
		case err != nil:
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlId(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		err = app.Surveys.Delete(r.Context(), surveyId)
		if errors.Is(err, surveys.ErrNotFound) {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSurveyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlId(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		details, err := app.Responses.ListResponses(r.Context(), surveyId)
		if errors.Is(err, responses.ErrSurveyNotFound) {
			httpx.LogNotFound(w, "get_responses", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": details,
		})
	}
}
