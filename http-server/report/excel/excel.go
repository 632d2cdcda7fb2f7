package excel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"shift-production/internal/storage"
)

type ExcelGenerator interface {
	GenerateExcel(ctx context.Context, report storage.Report, filter storage.RowFilter) ([]byte, error)
}

func GenerateReportExcel(log *slog.Logger, gen ExcelGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.excel.GenerateReportExcel"

		q := r.URL.Query()

		report, err := storage.ParseReport(q.Get("report"))
		if err != nil {
			http.Error(w, "unknown report", http.StatusBadRequest)
			return
		}

		filter, err := storage.ParseRowFilter(q.Get("from"), q.Get("to"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// Excel gets more time than the JSON reads.
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, err := gen.GenerateExcel(ctx, report, filter)
		if err != nil {
			log.Error("failed to generate excel",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		fileName := fmt.Sprintf("%s_%s.xlsx", report, time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		w.Write(excelBytes)
	}
}
