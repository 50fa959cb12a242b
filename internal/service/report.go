package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/database"
)

// ReportStore defines the DB methods needed by the report service.
type ReportStore interface {
	ListOrdersInRange(ctx context.Context, arg database.TimeRangeParams) ([]database.Order, error)
	CountOpenOrdersInRange(ctx context.Context, arg database.TimeRangeParams) (int64, error)
	UpsertDailyReport(ctx context.Context, arg database.DailyReport) (database.DailyReport, error)
	ListDailyReports(ctx context.Context, arg database.DateRangeParams) ([]database.DailyReport, error)
	UpsertMonthlyReport(ctx context.Context, arg database.MonthlyReport) (database.MonthlyReport, error)
}

type NewReportStore func(db database.DBTX) ReportStore

// ReportService rolls closed orders into daily reports and daily reports
// into monthly reports. Both are overwritten on every recompute.
type ReportService struct {
	pool     TxBeginner
	store    ReportStore
	newStore NewReportStore
	loc      *time.Location
}

func NewReportService(pool TxBeginner, store ReportStore, newStore NewReportStore, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{pool: pool, store: store, newStore: newStore, loc: loc}
}

// Location is the business timezone used for report dates.
func (s *ReportService) Location() *time.Location {
	return s.loc
}

// totals accumulates the money fields of a report.
type totals struct {
	orders   int32
	subtotal decimal.Decimal
	discount decimal.Decimal
	taxes    decimal.Decimal
	total    decimal.Decimal
}

func (t *totals) add(subtotal, discount, taxes, total decimal.Decimal) {
	t.subtotal = t.subtotal.Add(subtotal)
	t.discount = t.discount.Add(discount)
	t.taxes = t.taxes.Add(taxes)
	t.total = t.total.Add(total)
}

// DailyReport aggregates the payment information of every order created in
// [start, end] and stores it under start's date. Fails with ErrOpenOrdersExist
// while any order in the window is still OPEN.
func (s *ReportService) DailyReport(ctx context.Context, start, end time.Time) (database.DailyReport, error) {
	if end.Before(start) {
		return database.DailyReport{}, ErrInvalidRange
	}
	window := database.TimeRangeParams{
		Start:     start,
		End:       end,
		StartDate: start.In(s.loc).Format(dateLayout),
		EndDate:   end.In(s.loc).Format(dateLayout),
	}

	var report database.DailyReport
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead}
	err := runInTxWith(ctx, s.pool, opts, "daily report", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		open, err := store.CountOpenOrdersInRange(ctx, window)
		if err != nil {
			return fmt.Errorf("count open orders: %w", err)
		}
		if open > 0 {
			return fmt.Errorf("%w: %d open", ErrOpenOrdersExist, open)
		}

		orders, err := store.ListOrdersInRange(ctx, window)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}

		var t totals
		for _, o := range orders {
			t.orders++
			t.add(
				database.NumericToDecimal(o.Subtotal),
				database.NumericToDecimal(o.Discount),
				database.NumericToDecimal(o.Taxes),
				database.NumericToDecimal(o.Total),
			)
		}

		report, err = store.UpsertDailyReport(ctx, database.DailyReport{
			ReportDate:     window.StartDate,
			NumberOfOrders: t.orders,
			Subtotal:       database.DecimalToNumeric(t.subtotal.Round(2)),
			Discount:       database.DecimalToNumeric(t.discount.Round(2)),
			Taxes:          database.DecimalToNumeric(t.taxes.Round(2)),
			Total:          database.DecimalToNumeric(t.total.Round(2)),
		})
		if err != nil {
			return fmt.Errorf("save daily report: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.DailyReport{}, err
	}
	return report, nil
}

// MonthlyReport sums the stored daily reports dated within [startDate, endDate]
// and stores the result under startDate's month. Open orders are not re-checked.
func (s *ReportService) MonthlyReport(ctx context.Context, startDate, endDate time.Time) (database.MonthlyReport, error) {
	startDate = startDate.In(s.loc)
	from := startDate.Format(dateLayout)
	to := endDate.In(s.loc).Format(dateLayout)
	if to < from {
		return database.MonthlyReport{}, ErrInvalidRange
	}

	var report database.MonthlyReport
	err := runInTx(ctx, s.pool, "monthly report", func(tx pgx.Tx) error {
		store := s.newStore(tx)

		dailies, err := store.ListDailyReports(ctx, database.DateRangeParams{StartDate: from, EndDate: to})
		if err != nil {
			return fmt.Errorf("list daily reports: %w", err)
		}

		var t totals
		for _, d := range dailies {
			t.orders += d.NumberOfOrders
			t.add(
				database.NumericToDecimal(d.Subtotal),
				database.NumericToDecimal(d.Discount),
				database.NumericToDecimal(d.Taxes),
				database.NumericToDecimal(d.Total),
			)
		}

		report, err = store.UpsertMonthlyReport(ctx, database.MonthlyReport{
			ReportMonth:    startDate.Format("2006-01"),
			ReportDuration: fmt.Sprintf("%s to %s", from, to),
			NumberOfOrders: t.orders,
			Subtotal:       database.DecimalToNumeric(t.subtotal.Round(2)),
			Discount:       database.DecimalToNumeric(t.discount.Round(2)),
			Taxes:          database.DecimalToNumeric(t.taxes.Round(2)),
			Total:          database.DecimalToNumeric(t.total.Round(2)),
		})
		if err != nil {
			return fmt.Errorf("save monthly report: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.MonthlyReport{}, err
	}
	return report, nil
}

// ListDailyReports returns the stored daily reports dated within [startDate, endDate].
func (s *ReportService) ListDailyReports(ctx context.Context, startDate, endDate time.Time) ([]database.DailyReport, error) {
	from := startDate.In(s.loc).Format(dateLayout)
	to := endDate.In(s.loc).Format(dateLayout)
	if to < from {
		return nil, ErrInvalidRange
	}
	reports, err := s.store.ListDailyReports(ctx, database.DateRangeParams{StartDate: from, EndDate: to})
	if err != nil {
		return nil, unavailable("list daily reports", err)
	}
	return reports, nil
}
