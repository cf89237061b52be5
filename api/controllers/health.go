package controllers

import (
	"net/http"

	"github.com/biztrackhq/biztrack-backend/api/responses"
	"github.com/biztrackhq/biztrack-backend/pkg/config"
	"github.com/biztrackhq/biztrack-backend/pkg/db"
	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
	"github.com/biztrackhq/biztrack-backend/pkg/logger"
	"github.com/biztrackhq/biztrack-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BizTrack-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BizTrack-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["database"] = err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
