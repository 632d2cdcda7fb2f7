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

type MachineProvider interface {
	GetMachinesByType(ctx context.Context, typeName string) ([]storage.Machine, error)
}

func GetMachines(log *slog.Logger, provider MachineProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.machines.get.GetMachines"

		typeName := r.URL.Query().Get("type")
		if typeName == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "type is required"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		machines, err := provider.GetMachinesByType(ctx, typeName)
		if err != nil {
			log.Error("failed to fetch machines",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("type", typeName),
				slog.String("error", err.Error()),
			)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to fetch machines"})
			return
		}

		render.JSON(w, r, machines)
	}
}
