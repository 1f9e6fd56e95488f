package controllers

import (
	"context"
	"net/http"

	"github.com/agritraceio/agritrace-backend/api/responses"
	"github.com/agritraceio/agritrace-backend/internal/gateway"
	"github.com/agritraceio/agritrace-backend/pkg/config"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

type modeReporter interface {
	Mode() gateway.Mode
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AgriTrace-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports component readiness. The database gates readiness;
// redis and the ledger backend are reported but never fail the probe, since
// submissions degrade to FAILED mirrors rather than outages.
func HealthReady(cfg *config.Config, db pinger, cache pinger, ledger modeReporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AgriTrace-Env", cfg.App.Env)

		components := map[string]string{"database": "ok"}
		status := http.StatusOK

		if db == nil {
			components["database"] = "unconfigured"
			status = http.StatusServiceUnavailable
		} else if err := db.Ping(r.Context()); err != nil {
			components["database"] = "unreachable"
			status = http.StatusServiceUnavailable
			if logg != nil {
				logg.Error(r.Context(), "readiness database ping failed", err)
			}
		}

		if cache != nil {
			components["redis"] = "ok"
			if err := cache.Ping(r.Context()); err != nil {
				components["redis"] = "unreachable"
			}
		}

		if ledger != nil {
			components["ledger_backend"] = string(ledger.Mode())
		}

		body := map[string]any{"status": "ready", "components": components}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		responses.WriteSuccessStatus(w, status, body)
	}
}
