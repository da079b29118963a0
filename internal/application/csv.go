package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/sidhync-maker/workshop/internal/logger"
)

const (
	DatasetPurchases = "purchases"
	DatasetStock     = "stock"
	DatasetBilling   = "billing"
	DatasetMechanics = "mechanics"
	DatasetCarModels = "car-models"
)

var Datasets = []string{DatasetPurchases, DatasetStock, DatasetBilling, DatasetMechanics, DatasetCarModels}

var importColumns = []string{"item_code", "item_name", "qty", "rate"}

// ExportCSV renders a listing as CSV with a header row of column names.
func (s *WorkshopService) ExportCSV(ctx context.Context, dataset string) ([]byte, error) {
	var (
		header []string
		rows   [][]string
	)

	switch dataset {
	case DatasetPurchases:
		items, err := s.repo.ListPurchases(ctx)
		if err != nil {
			return nil, err
		}
		header = []string{"id", "item_code", "item_name", "qty", "rate", "total", "purchased_at"}
		for _, p := range items {
			rows = append(rows, []string{
				formatID(p.ID), p.ItemCode, p.ItemName, strconv.Itoa(p.Qty),
				formatAmount(p.Rate), formatAmount(p.Total), formatTime(p.PurchasedAt),
			})
		}
	case DatasetStock:
		items, err := s.repo.ListStock(ctx)
		if err != nil {
			return nil, err
		}
		header = []string{"id", "item_code", "item_name", "qty"}
		for _, st := range items {
			rows = append(rows, []string{formatID(st.ID), st.ItemCode, st.ItemName, strconv.Itoa(st.Qty)})
		}
	case DatasetBilling:
		items, err := s.repo.ListBilling(ctx)
		if err != nil {
			return nil, err
		}
		header = []string{"id", "car_model", "complaints", "start_date", "end_date", "labour", "purchase_amt", "total", "billed_at"}
		for _, b := range items {
			rows = append(rows, []string{
				formatID(b.ID), b.CarModel, b.Complaints, b.StartDate, b.EndDate,
				formatAmount(b.Labour), formatAmount(b.PurchaseAmt), formatAmount(b.Total), formatTime(b.BilledAt),
			})
		}
	case DatasetMechanics:
		items, err := s.repo.ListMechanicEntries(ctx, "")
		if err != nil {
			return nil, err
		}
		header = []string{"id", "username", "work_date", "activity", "earning"}
		for _, e := range items {
			rows = append(rows, []string{formatID(e.ID), e.Username, e.WorkDate, e.Activity, formatAmount(e.Earning)})
		}
	case DatasetCarModels:
		items, err := s.repo.ListCarModels(ctx)
		if err != nil {
			return nil, err
		}
		header = []string{"id", "model"}
		for _, m := range items {
			rows = append(rows, []string{formatID(m.ID), m.Model})
		}
	default:
		return nil, fmt.Errorf("%w: unknown dataset %q", domain.ErrNotFound, dataset)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportPurchases calls AddPurchase for every data row. Row failures are
// collected in the report; only an unreadable header fails the whole import.
func (s *WorkshopService) ImportPurchases(ctx context.Context, r io.Reader) (domain.ImportReport, error) {
	report := domain.ImportReport{BatchID: uuid.NewString(), Failed: make([]domain.ImportRowError, 0)}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return report, domain.Invalid("csv is empty")
		}
		return report, domain.Invalid("read csv header: %v", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	missing := make([]string, 0)
	for _, col := range importColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return report, domain.Invalid("csv header is missing columns: %s", strings.Join(missing, ", "))
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return report, err
			}
			report.Failed = append(report.Failed, domain.ImportRowError{Line: perr.StartLine, Message: err.Error()})
			continue
		}
		line, _ := cr.FieldPos(0)

		if err := s.importRow(ctx, index, record); err != nil {
			logger.Warn(ctx, "import row rejected",
				logger.String("batch_id", report.BatchID),
				logger.Int("line", line),
				logger.ErrorF(err),
			)
			report.Failed = append(report.Failed, domain.ImportRowError{Line: line, Message: err.Error()})
			continue
		}
		report.Imported++
	}

	logger.Info(ctx, "purchase import finished",
		logger.String("batch_id", report.BatchID),
		logger.Int("imported", report.Imported),
		logger.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func (s *WorkshopService) importRow(ctx context.Context, index map[string]int, record []string) error {
	field := func(name string) string {
		i := index[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	qty, err := strconv.Atoi(field("qty"))
	if err != nil {
		return domain.Invalid("qty %q is not a whole number", field("qty"))
	}
	rate, err := strconv.ParseFloat(field("rate"), 64)
	if err != nil {
		return domain.Invalid("rate %q is not a number", field("rate"))
	}
	_, err = s.AddPurchase(ctx, field("item_code"), field("item_name"), qty, rate)
	return err
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
