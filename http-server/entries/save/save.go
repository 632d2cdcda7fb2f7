package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shift-production/internal/form"
	"shift-production/internal/service/entries"
)

type EntrySaver interface {
	Save(ctx context.Context, tree *form.Tree) (entries.Result, error)
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Report  string `json:"report,omitempty"`
	Rows    int    `json:"rows,omitempty"`
}

func SaveEntries(log *slog.Logger, saver EntrySaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.entries.save.SaveEntries"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var tree form.Tree
		if err := render.DecodeJSON(r.Body, &tree); err != nil {
			log.Error("invalid JSON", slog.String("error", err.Error()))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, Response{Message: "Bad request: invalid JSON"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		res, err := saver.Save(ctx, &tree)
		if ve, ok := entries.IsValidation(err); ok {
			log.Warn("entry rejected", slog.String("message", ve.Message))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, Response{Message: ve.Message})
			return
		}
		if err != nil {
			log.Error("failed to save entries", slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Message: "Failed to save entries"})
			return
		}

		log.Info("entries saved", slog.String("report", string(res.Report)), slog.Int("rows", res.Rows))

		render.JSON(w, r, Response{Success: true, Report: string(res.Report), Rows: res.Rows})
	}
}
