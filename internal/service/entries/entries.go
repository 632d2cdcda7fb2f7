package entries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shift-production/internal/catalog"
	"shift-production/internal/form"
	"shift-production/internal/storage"
)

type Storage interface {
	GetMachines(ctx context.Context) ([]storage.Machine, error)
	AppendProductionRows(ctx context.Context, report storage.Report, rows []storage.ProductionRow) error
}

// Service turns a submitted form tree into report rows.
type Service struct {
	log     *slog.Logger
	storage Storage
	now     func() time.Time
}

func NewService(log *slog.Logger, storage Storage) *Service {
	return &Service{log: log, storage: storage, now: time.Now}
}

// Result describes a successful save.
type Result struct {
	Report storage.Report
	Rows   int
}

// Save validates the tree, resolves machine names from the machine master and
// appends one row per entry. Validation failures are returned as
// *form.ValidationError and nothing is written.
func (s *Service) Save(ctx context.Context, tree *form.Tree) (Result, error) {
	const op = "service.entries.Save"

	if err := form.Validate(tree); err != nil {
		return Result{}, err
	}

	machines, err := s.storage.GetMachines(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: load machines: %w", op, err)
	}

	names := catalog.New()
	names.SetMachines(machines)

	rows := form.Flatten(tree, names, s.now())
	report := storage.ReportForShift(string(tree.Shift))

	if err := s.storage.AppendProductionRows(ctx, report, rows); err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("production rows appended",
		slog.String("op", op),
		slog.String("report", string(report)),
		slog.Int("rows", len(rows)),
	)

	return Result{Report: report, Rows: len(rows)}, nil
}

// IsValidation reports whether err came from form validation.
func IsValidation(err error) (*form.ValidationError, bool) {
	var ve *form.ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
