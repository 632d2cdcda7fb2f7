package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type TypesProvider interface {
	GetMachineTypes(ctx context.Context) ([]string, error)
}

func GetTypes(log *slog.Logger, provider TypesProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.types.get.GetTypes"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		types, err := provider.GetMachineTypes(ctx)
		if err != nil {
			log.Error("failed to fetch machine types",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("error", err.Error()),
			)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to fetch types"})
			return
		}

		render.JSON(w, r, types)
	}
}
