package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/cors"

	getentries "shift-production/http-server/entries/get"
	saveentries "shift-production/http-server/entries/save"
	"shift-production/http-server/health"
	getitems "shift-production/http-server/items/get"
	getmachines "shift-production/http-server/machines/get"
	getpersonnel "shift-production/http-server/personnel/get"
	"shift-production/http-server/report/excel"
	gettypes "shift-production/http-server/types/get"
	"shift-production/internal/config"
	"shift-production/internal/middleware/auth"
	"shift-production/internal/storage"
)

// Storage is what the routes need from a backend; both the workbook and the
// MySQL storage satisfy it.
type Storage interface {
	GetMachines(ctx context.Context) ([]storage.Machine, error)
	GetMachinesByType(ctx context.Context, typeName string) ([]storage.Machine, error)
	GetMachineTypes(ctx context.Context) ([]string, error)
	GetItemsByType(ctx context.Context, machineType string) ([]storage.Item, error)
	GetDoers(ctx context.Context) ([]storage.Person, error)
	GetSupervisors(ctx context.Context) ([]storage.Person, error)
	AppendProductionRows(ctx context.Context, report storage.Report, rows []storage.ProductionRow) error
	GetProductionRows(ctx context.Context, report storage.Report, filter storage.RowFilter) ([]storage.ProductionRow, error)
}

func routes(cfg config.Config, log *slog.Logger, st Storage, entryService saveentries.EntrySaver, reportService excel.ExcelGenerator) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.FrontendURLs,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", health.Health())

	router.Route("/api", func(r chi.Router) {
		r.Get("/types", gettypes.GetTypes(log, st))
		r.Get("/machines", getmachines.GetMachines(log, st))
		r.Get("/items", getitems.GetItems(log, st))
		r.Get("/doers", getpersonnel.GetDoers(log, st))
		r.Get("/supervisors", getpersonnel.GetSupervisors(log, st))

		r.Get("/entries", getentries.GetEntries(log, st))
		r.With(auth.BasicAuth(cfg.SubmitLogin, cfg.SubmitPass)).
			Post("/entries", saveentries.SaveEntries(log, entryService))

		r.Get("/report/excel", excel.GenerateReportExcel(log, reportService))
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Route not found"})
	})

	return router
}
