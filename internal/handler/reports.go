package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"
	"github.com/tableside-pos/api/internal/database"
	"go.uber.org/zap"
)

// ReportServicer defines the service methods needed by report handlers.
// Satisfied by *service.ReportService; narrow interface for testability.
type ReportServicer interface {
	DailyReport(ctx context.Context, start, end time.Time) (database.DailyReport, error)
	MonthlyReport(ctx context.Context, startDate, endDate time.Time) (database.MonthlyReport, error)
	ListDailyReports(ctx context.Context, startDate, endDate time.Time) ([]database.DailyReport, error)
	Location() *time.Location
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	svc ReportServicer
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(svc ReportServicer) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// RegisterRoutes registers report endpoints. Expected to be mounted at /reports
// behind a staff rank check.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily", h.Daily)
	r.Get("/daily.csv", h.DailyCSV)
	r.Get("/monthly", h.Monthly)
}

// --- Response types ---

type dailyReportResponse struct {
	Date           string    `json:"date"`
	NumberOfOrders int32     `json:"number_of_orders"`
	Subtotal       string    `json:"subtotal"`
	Discount       string    `json:"discount"`
	Taxes          string    `json:"taxes"`
	Total          string    `json:"total"`
	GeneratedAt    time.Time `json:"generated_at"`
}

type monthlyReportResponse struct {
	Month          string    `json:"month"`
	Duration       string    `json:"duration"`
	NumberOfOrders int32     `json:"number_of_orders"`
	Subtotal       string    `json:"subtotal"`
	Discount       string    `json:"discount"`
	Taxes          string    `json:"taxes"`
	Total          string    `json:"total"`
	GeneratedAt    time.Time `json:"generated_at"`
}

type dailyReportRow struct {
	Date           string `csv:"date"`
	NumberOfOrders int32  `csv:"number_of_orders"`
	Subtotal       string `csv:"subtotal"`
	Discount       string `csv:"discount"`
	Taxes          string `csv:"taxes"`
	Total          string `csv:"total"`
}

func toDailyReportResponse(d database.DailyReport) dailyReportResponse {
	return dailyReportResponse{
		Date:           d.ReportDate,
		NumberOfOrders: d.NumberOfOrders,
		Subtotal:       money(d.Subtotal),
		Discount:       money(d.Discount),
		Taxes:          money(d.Taxes),
		Total:          money(d.Total),
		GeneratedAt:    d.GeneratedAt,
	}
}

// --- Handlers ---

// Daily handles GET /reports/daily?start=&end=. It recomputes and stores the
// report for start's date.
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r, h.svc.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.DailyReport(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, "daily report", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportResponse(report))
}

// Monthly handles GET /reports/monthly?start=&end= over stored daily reports.
func (h *ReportsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r, h.svc.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.MonthlyReport(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, "monthly report", err)
		return
	}
	writeJSON(w, http.StatusOK, monthlyReportResponse{
		Month:          report.ReportMonth,
		Duration:       report.ReportDuration,
		NumberOfOrders: report.NumberOfOrders,
		Subtotal:       money(report.Subtotal),
		Discount:       money(report.Discount),
		Taxes:          money(report.Taxes),
		Total:          money(report.Total),
		GeneratedAt:    report.GeneratedAt,
	})
}

// DailyCSV handles GET /reports/daily.csv?start=&end=, exporting stored daily reports.
func (h *ReportsHandler) DailyCSV(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r, h.svc.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := h.svc.ListDailyReports(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, "list daily reports", err)
		return
	}

	rows := make([]*dailyReportRow, len(reports))
	for i, d := range reports {
		rows[i] = &dailyReportRow{
			Date:           d.ReportDate,
			NumberOfOrders: d.NumberOfOrders,
			Subtotal:       money(d.Subtotal),
			Discount:       money(d.Discount),
			Taxes:          money(d.Taxes),
			Total:          money(d.Total),
		}
	}

	filename := fmt.Sprintf("daily-reports-%s-%s.csv", start.Format("20060102"), end.Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := gocsv.Marshal(rows, w); err != nil {
		zap.S().Errorw("write daily report csv", "error", err)
	}
}
