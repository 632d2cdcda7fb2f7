package health

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

type Response struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, Response{
			Status:    "OK",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
