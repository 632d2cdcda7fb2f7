package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shift-production/internal/storage"
)

type PersonnelProvider interface {
	GetDoers(ctx context.Context) ([]storage.Person, error)
	GetSupervisors(ctx context.Context) ([]storage.Person, error)
}

func GetDoers(log *slog.Logger, provider PersonnelProvider) http.HandlerFunc {
	return list(log, "handlers.personnel.get.GetDoers", "doers", provider.GetDoers)
}

func GetSupervisors(log *slog.Logger, provider PersonnelProvider) http.HandlerFunc {
	return list(log, "handlers.personnel.get.GetSupervisors", "supervisors", provider.GetSupervisors)
}

func list(log *slog.Logger, op, what string, fetch func(context.Context) ([]storage.Person, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		people, err := fetch(ctx)
		if err != nil {
			log.Error("failed to fetch "+what,
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("error", err.Error()),
			)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to fetch " + what})
			return
		}
		if people == nil {
			people = []storage.Person{}
		}

		render.JSON(w, r, people)
	}
}
