package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/xuri/excelize/v2"

	"github.com/sadewadee/social-analytics/internal/domain"
	"github.com/sadewadee/social-analytics/internal/queue"
)

// RecipientDirectory resolves notification recipients for a user. User
// accounts live outside this service, so addresses come from a collaborator.
type RecipientDirectory interface {
	RecipientsFor(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// RelayDomain is the internal mail relay; the delivery service maps the
// per-user alias to real addresses
const RelayDomain = "users.internal"

// relayDirectory is the default RecipientDirectory, routing through the
// per-user relay alias
type relayDirectory struct{}

func (relayDirectory) RecipientsFor(_ context.Context, userID uuid.UUID) ([]string, error) {
	return []string{fmt.Sprintf("%s@%s", userID, RelayDomain)}, nil
}

// ReportProcessor handles report:generate and report:dispatch tasks
type ReportProcessor struct {
	reports    domain.ReportRepository
	accounts   domain.AccountRepository
	analytics  domain.AnalyticsRepository
	enqueuer   Enqueuer
	recipients RecipientDirectory
	outDir     string
}

// NewReportProcessor creates a report processor writing artifacts under
// outDir. A nil recipients directory falls back to the relay alias.
func NewReportProcessor(reports domain.ReportRepository, accounts domain.AccountRepository, analytics domain.AnalyticsRepository, enqueuer Enqueuer, recipients RecipientDirectory, outDir string) *ReportProcessor {
	if recipients == nil {
		recipients = relayDirectory{}
	}
	return &ReportProcessor{
		reports:    reports,
		accounts:   accounts,
		analytics:  analytics,
		enqueuer:   enqueuer,
		recipients: recipients,
		outDir:     outDir,
	}
}

// ProcessTask dispatches on task type
func (p *ReportProcessor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	switch task.Type() {
	case queue.TypeReportGenerate:
		return p.processGenerate(ctx, task)
	case queue.TypeReportDispatch:
		return p.processDispatch(ctx, task)
	default:
		return fmt.Errorf("unexpected task type %q", task.Type())
	}
}

// processGenerate builds one XLSX report artifact and records its path
func (p *ReportProcessor) processGenerate(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.UnmarshalPayload[queue.ReportGeneratePayload](task.Payload())
	if err != nil {
		return fmt.Errorf("report:generate payload: %w", err)
	}

	report, err := p.reports.GetByID(ctx, payload.ReportID)
	if err != nil {
		return fmt.Errorf("failed to load report %s: %w", payload.ReportID, err)
	}
	if report.Status == domain.ReportStatusCompleted {
		// Retried after a successful run; nothing to do
		return nil
	}

	path, err := p.writeWorkbook(ctx, payload.UserID, payload.Period)
	if err != nil {
		if markErr := p.reports.MarkFailed(ctx, report.ID, err.Error()); markErr != nil {
			log.Printf("[Report] failed to mark report %s failed: %v", report.ID, markErr)
		}
		return fmt.Errorf("report generation failed: %w", err)
	}

	if err := p.reports.MarkCompleted(ctx, report.ID, path, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark report %s completed: %w", report.ID, err)
	}

	log.Printf("[Report] generated %s report %s at %s", payload.Period, report.ID, path)

	to, err := p.recipients.RecipientsFor(ctx, payload.UserID)
	if err != nil || len(to) == 0 {
		log.Printf("[Report] no recipients for user %s, skipping notification: %v", payload.UserID, err)
		return nil
	}

	// Notify via the email queue; delivery failures retry there, not here
	emailErr := p.enqueuer.Enqueue(ctx, queue.QueueEmail, queue.TypeEmailSend, queue.EmailSendPayload{
		To:       to,
		Subject:  fmt.Sprintf("Your %s analytics report is ready", payload.Period),
		Template: "report-ready",
		Data:     map[string]string{"report_id": report.ID.String()},
	}, queue.EnqueueOptions{})
	if emailErr != nil {
		log.Printf("[Report] failed to enqueue notification for %s: %v", report.ID, emailErr)
	}
	return nil
}

// processDispatch fans out one report:generate task per user with active
// accounts. Triggered by the weekly schedule.
func (p *ReportProcessor) processDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.UnmarshalPayload[queue.ReportDispatchPayload](task.Payload())
	if err != nil {
		return fmt.Errorf("report:dispatch payload: %w", err)
	}
	period := payload.Period
	if period == "" {
		period = domain.ReportPeriodWeekly
	}

	userIDs, err := p.accounts.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	enqueued := 0
	for _, userID := range userIDs {
		report := &domain.Report{
			ID:        uuid.New(),
			UserID:    userID,
			Period:    period,
			Status:    domain.ReportStatusPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := p.reports.Create(ctx, report); err != nil {
			log.Printf("[Report] failed to create report row for user %s: %v", userID, err)
			continue
		}
		err := p.enqueuer.Enqueue(ctx, queue.QueueReports, queue.TypeReportGenerate, queue.ReportGeneratePayload{
			ReportID: report.ID,
			UserID:   userID,
			Period:   period,
		}, queue.EnqueueOptions{
			TaskID: queue.ReportTaskID(userID, period),
		})
		if err != nil {
			log.Printf("[Report] dispatch enqueue failed for user %s: %v", userID, err)
			continue
		}
		enqueued++
	}

	log.Printf("[Report] dispatched %d of %d %s reports", enqueued, len(userIDs), period)
	return nil
}

// writeWorkbook renders the report workbook and returns the artifact path
func (p *ReportProcessor) writeWorkbook(ctx context.Context, userID uuid.UUID, period domain.ReportPeriod) (string, error) {
	now := time.Now().UTC()
	from, to := period.Range(now)

	overview, err := p.analytics.GetOverview(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load overview: %w", err)
	}
	accounts, err := p.accounts.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load accounts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	f.SetSheetName(f.GetSheetName(0), summary)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("failed to create style: %w", err)
	}

	rows := [][]any{
		{"Period", string(period)},
		{"From", from.Format(time.RFC3339)},
		{"To", to.Format(time.RFC3339)},
		{"Accounts", overview.Accounts},
		{"Posts", overview.Posts},
		{"Impressions", overview.Impressions},
		{"Engagement", overview.Engagement},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return "", fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	f.SetCellStyle(summary, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle)

	const platforms = "Platforms"
	if _, err := f.NewSheet(platforms); err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	header := []any{"Platform", "Accounts", "Posts", "Impressions", "Engagement"}
	if err := f.SetSheetRow(platforms, "A1", &header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	f.SetCellStyle(platforms, "A1", "E1", headerStyle)
	for i, stats := range overview.ByPlatform {
		row := []any{string(stats.Platform), stats.Accounts, stats.Posts, stats.Impressions, stats.Engagement}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(platforms, cell, &row); err != nil {
			return "", fmt.Errorf("failed to write platform row: %w", err)
		}
	}

	const timeseries = "Timeseries"
	if _, err := f.NewSheet(timeseries); err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	tsHeader := []any{"Account", "Platform", "Hour", "Posts", "Impressions", "Engagement"}
	if err := f.SetSheetRow(timeseries, "A1", &tsHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	f.SetCellStyle(timeseries, "A1", "F1", headerStyle)
	tsRow := 2
	for _, account := range accounts {
		points, err := p.analytics.GetTimeseries(ctx, account.ID, from, to)
		if err != nil {
			return "", fmt.Errorf("failed to load timeseries for %s: %w", account.Handle, err)
		}
		for _, pt := range points {
			row := []any{account.Handle, string(account.Platform), pt.Hour.Format(time.RFC3339), pt.Posts, pt.Impressions, pt.Engagement}
			cell, _ := excelize.CoordinatesToCellName(1, tsRow)
			if err := f.SetSheetRow(timeseries, cell, &row); err != nil {
				return "", fmt.Errorf("failed to write timeseries row: %w", err)
			}
			tsRow++
		}
	}

	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	path := filepath.Join(p.outDir, fmt.Sprintf("report-%s-%s-%s.xlsx", userID, period, now.Format("20060102-150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}
