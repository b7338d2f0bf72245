package cmd

import (
	"fmt"

	"github.com/sotfmods/api/internal/app"
	"github.com/sotfmods/api/internal/config"
	"github.com/sotfmods/api/internal/logger"
)

// withApp loads the configuration, opens the app and closes it after run.
func withApp(run func(a *app.App) error) error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer a.Close()

	return run(a)
}
