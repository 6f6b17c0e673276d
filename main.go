package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/mbolis/quick-questionnaire/app"
	"github.com/mbolis/quick-questionnaire/config"
	"github.com/mbolis/quick-questionnaire/database"
	"github.com/mbolis/quick-questionnaire/httpx"
	"github.com/mbolis/quick-questionnaire/log"
	"github.com/mbolis/quick-questionnaire/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	if cfg.AdminUser != "" {
		_, err = httpx.SaveUser(db, cfg.AdminUser, cfg.AdminPass, "admin")
		if err != nil {
			log.Fatal("main.db.admin_user:", err)
		}
		log.Infof("Admin user %s saved", cfg.AdminUser)
	}

	bearerServer := httpx.NewBearerServer(db, cfg)
	handler := routes.Wire(app.New(db, bearerServer, cfg))

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
