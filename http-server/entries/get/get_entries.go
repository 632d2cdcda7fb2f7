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

type RowsProvider interface {
	GetProductionRows(ctx context.Context, report storage.Report, filter storage.RowFilter) ([]storage.ProductionRow, error)
}

// GetEntries returns the appended rows of one report, optionally limited to a
// production date range: ?report=shift|daily&from=2006-01-02&to=2006-01-02.
func GetEntries(log *slog.Logger, provider RowsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.entries.get.GetEntries"

		q := r.URL.Query()

		report, err := storage.ParseReport(q.Get("report"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "unknown report"})
			return
		}

		filter, err := storage.ParseRowFilter(q.Get("from"), q.Get("to"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		rows, err := provider.GetProductionRows(ctx, report, filter)
		if err != nil {
			log.Error("failed to read production rows",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("report", string(report)),
				slog.String("error", err.Error()),
			)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to fetch entries"})
			return
		}

		render.JSON(w, r, rows)
	}
}
