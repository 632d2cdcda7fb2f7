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

type ItemProvider interface {
	GetItemsByType(ctx context.Context, machineType string) ([]storage.Item, error)
}

// GetItems lists the item master rows for one machine type.
func GetItems(log *slog.Logger, provider ItemProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.items.get.GetItems"

		machineType := r.URL.Query().Get("type")
		if machineType == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "type is required"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, err := provider.GetItemsByType(ctx, machineType)
		if err != nil {
			log.Error("failed to fetch items",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("type", machineType),
				slog.String("error", err.Error()),
			)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to fetch items"})
			return
		}

		render.JSON(w, r, items)
	}
}
