package app

import (
	"database/sql"

	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-questionnaire/config"
	"github.com/mbolis/quick-questionnaire/responses"
	"github.com/mbolis/quick-questionnaire/surveys"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Surveys   *surveys.Store
	Responses *responses.Dispatcher
}

func New(db *sql.DB, bearerServer *oauth.BearerServer, cfg config.Config) App {
	return App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Surveys:      surveys.NewStore(db),
		Responses:    responses.NewDispatcher(db, cfg.DateFormat),
	}
}
