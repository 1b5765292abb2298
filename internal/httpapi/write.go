package httpapi

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/John-Robertt/cvt/internal/model"
)

func WriteText(w http.ResponseWriter, r *http.Request, status int, body string) {
	render.Status(r, status)
	render.PlainText(w, r, body)
}

// WriteError writes {"error": {...}} and counts the error in /metrics.
func WriteError(w http.ResponseWriter, r *http.Request, status int, e model.AppError) {
	metricsIncAppError(e.Stage, e.Code)
	render.Status(r, status)
	render.JSON(w, r, model.ErrorResponse{Error: e})
}
