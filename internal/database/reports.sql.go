package database

import (
	"context"
)

const dailyReportColumns = `report_date::text, number_of_orders, subtotal, discount, taxes, total, generated_at`

func scanDailyReport(row interface{ Scan(...any) error }) (DailyReport, error) {
	var r DailyReport
	err := row.Scan(
		&r.ReportDate,
		&r.NumberOfOrders,
		&r.Subtotal,
		&r.Discount,
		&r.Taxes,
		&r.Total,
		&r.GeneratedAt,
	)
	return r, err
}

const upsertDailyReport = `INSERT INTO daily_reports (report_date, number_of_orders, subtotal, discount, taxes, total, generated_at)
VALUES ($1::date, $2, $3, $4, $5, $6, now())
ON CONFLICT (report_date) DO UPDATE
SET number_of_orders = EXCLUDED.number_of_orders,
    subtotal = EXCLUDED.subtotal,
    discount = EXCLUDED.discount,
    taxes = EXCLUDED.taxes,
    total = EXCLUDED.total,
    generated_at = EXCLUDED.generated_at
RETURNING ` + dailyReportColumns

// UpsertDailyReport overwrites any earlier report for the same date.
func (q *Queries) UpsertDailyReport(ctx context.Context, arg DailyReport) (DailyReport, error) {
	return scanDailyReport(q.db.QueryRow(ctx, upsertDailyReport,
		arg.ReportDate,
		arg.NumberOfOrders,
		arg.Subtotal,
		arg.Discount,
		arg.Taxes,
		arg.Total,
	))
}

const listDailyReports = `SELECT ` + dailyReportColumns + ` FROM daily_reports
WHERE report_date BETWEEN $1::date AND $2::date
ORDER BY report_date`

type DateRangeParams struct {
	StartDate string
	EndDate   string
}

func (q *Queries) ListDailyReports(ctx context.Context, arg DateRangeParams) ([]DailyReport, error) {
	rows, err := q.db.Query(ctx, listDailyReports, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reports []DailyReport
	for rows.Next() {
		r, err := scanDailyReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

const upsertMonthlyReport = `INSERT INTO monthly_reports (report_month, report_duration, number_of_orders, subtotal, discount, taxes, total, generated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (report_month) DO UPDATE
SET report_duration = EXCLUDED.report_duration,
    number_of_orders = EXCLUDED.number_of_orders,
    subtotal = EXCLUDED.subtotal,
    discount = EXCLUDED.discount,
    taxes = EXCLUDED.taxes,
    total = EXCLUDED.total,
    generated_at = EXCLUDED.generated_at
RETURNING report_month, report_duration, number_of_orders, subtotal, discount, taxes, total, generated_at`

func (q *Queries) UpsertMonthlyReport(ctx context.Context, arg MonthlyReport) (MonthlyReport, error) {
	var r MonthlyReport
	err := q.db.QueryRow(ctx, upsertMonthlyReport,
		arg.ReportMonth,
		arg.ReportDuration,
		arg.NumberOfOrders,
		arg.Subtotal,
		arg.Discount,
		arg.Taxes,
		arg.Total,
	).Scan(
		&r.ReportMonth,
		&r.ReportDuration,
		&r.NumberOfOrders,
		&r.Subtotal,
		&r.Discount,
		&r.Taxes,
		&r.Total,
		&r.GeneratedAt,
	)
	return r, err
}
