package app

import (
	"net/http"

	"github.com/metinatakli/cinema-seat-booking/api"
)

func (app *Application) GetHealth(w http.ResponseWriter, r *http.Request) {
	store := "postgres"
	if app.config.DB.DSN == "" {
		store = "memory"
	}

	resp := api.HealthcheckResponse{
		Status: "UP",
		SystemInfo: api.SystemInfo{
			Version:     version,
			Environment: app.config.Env,
			Store:       store,
		},
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
