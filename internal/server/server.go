// Package server wires the wiki together: logger, object store, repository,
// templates and the handler chain. Both the standalone binary and the CLI's
// serve command run through here.
package server

import (
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/TheSilvus/smeagol/internal/api"
	"github.com/TheSilvus/smeagol/internal/config"
	"github.com/TheSilvus/smeagol/internal/logging"
	"github.com/TheSilvus/smeagol/internal/middleware"
	"github.com/TheSilvus/smeagol/internal/repo"
	"github.com/TheSilvus/smeagol/internal/storage"
	"github.com/TheSilvus/smeagol/internal/templates"
)

// Run serves the wiki until the listener fails.
func Run(cfg *config.Config) error {
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := storage.Open(cfg.Repository.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	repository := repo.New(store)

	tmpl, err := templates.Load(cfg.Wiki.TemplatesDir, logger)
	if err != nil {
		return err
	}
	defer tmpl.Close()
	if err := tmpl.Watch(); err != nil {
		return err
	}

	handler := middleware.Chain(
		api.NewWikiHandler(repository, tmpl, logger, cfg.Wiki.Index),
		middleware.MaxBytes(cfg.Wiki.MaxUploadSize),
		middleware.Logger(logger),
		middleware.RequestID,
		middleware.Recover(logger),
	)

	logger.Info("starting server",
		zap.String("addr", cfg.Addr()),
		zap.String("repository", cfg.Repository.Path),
	)
	return http.ListenAndServe(cfg.Addr(), handler)
}

// LoadConfig loads the config file, falling back to defaults when none
// exists.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if os.IsNotExist(err) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
