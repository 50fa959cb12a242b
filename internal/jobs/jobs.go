package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/service"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// DailyReporter is satisfied by *service.ReportService.
type DailyReporter interface {
	DailyReport(ctx context.Context, start, end time.Time) (database.DailyReport, error)
}

// Scheduler runs the nightly report job in the business timezone.
type Scheduler struct {
	sched    *cron.Cron
	reporter DailyReporter
	loc      *time.Location
	timeout  time.Duration
	now      func() time.Time
}

func NewScheduler(reporter DailyReporter, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		sched:    cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		reporter: reporter,
		loc:      loc,
		timeout:  2 * time.Minute,
		now:      time.Now,
	}
}

// ScheduleDailyReport registers the previous-day report on spec, e.g. "5 0 * * *".
func (s *Scheduler) ScheduleDailyReport(spec string) error {
	if _, err := s.sched.AddFunc(spec, s.runDailyReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.sched.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunDailyReport(ctx); err != nil {
		if errors.Is(err, service.ErrOpenOrdersExist) {
			zap.S().Warnw("daily report skipped", "error", err)
			return
		}
		zap.S().Errorw("daily report failed", "error", err)
	}
}

// RunDailyReport reports on the whole business day before now.
func (s *Scheduler) RunDailyReport(ctx context.Context) (database.DailyReport, error) {
	start, end := PreviousDay(s.now(), s.loc)
	report, err := s.reporter.DailyReport(ctx, start, end)
	if err != nil {
		return database.DailyReport{}, err
	}
	zap.S().Infow("daily report generated",
		"date", report.ReportDate,
		"orders", report.NumberOfOrders,
		"total", database.NumericToDecimal(report.Total).StringFixed(2),
	)
	return report, nil
}

// PreviousDay returns the first and last instant of the calendar day before now in loc.
func PreviousDay(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	start := today.AddDate(0, 0, -1)
	return start, today.Add(-time.Nanosecond)
}
