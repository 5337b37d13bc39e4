package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/shelfplanner/api/responses"
	"github.com/angelmondragon/shelfplanner/pkg/config"
	pkgerrors "github.com/angelmondragon/shelfplanner/pkg/errors"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
	"github.com/angelmondragon/shelfplanner/pkg/storage"
)

const readyTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShelfPlanner-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once the storage backend answers a ping. A nil
// pinger (in-memory storage) is always ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, pinger storage.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShelfPlanner-Env", cfg.App.Env)
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storage unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready", "storage": cfg.Storage.Driver})
	}
}
