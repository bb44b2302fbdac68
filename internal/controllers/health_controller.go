package controllers

import (
	"errors"
	"net/http"

	"github.com/noridevx/wedding-web/internal/app"
	"github.com/noridevx/wedding-web/internal/dtos"
	"github.com/noridevx/wedding-web/internal/utils"
)

type HealthController struct {
	app *app.App
}

func NewHealthController(a *app.App) *HealthController {
	return &HealthController{app: a}
}

// HealthCheckHandler pings the remote store. A service running without one
// is degraded, not down.
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	err := c.app.Ping(r.Context())
	switch {
	case errors.Is(err, utils.ErrGatewayUnavailable):
		utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "DEGRADED", Database: "not_configured"})
	case err != nil:
		utils.RespondErrorWithCode(
			w,
			http.StatusServiceUnavailable,
			utils.ErrCodeInternal,
			"Service unhealthy",
			nil,
			err,
		)
	default:
		utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "OK", Database: "ok"})
	}
}
