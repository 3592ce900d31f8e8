package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadewadee/social-analytics/internal/domain"
	"github.com/sadewadee/social-analytics/internal/queue"
)

type fakeReportRepo struct {
	reports map[uuid.UUID]*domain.Report
	purged  []time.Time
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uuid.UUID]*domain.Report)}
}

func (r *fakeReportRepo) Create(_ context.Context, report *domain.Report) error {
	cp := *report
	r.reports[report.ID] = &cp
	return nil
}

func (r *fakeReportRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Report, error) {
	report, ok := r.reports[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	cp := *report
	return &cp, nil
}

func (r *fakeReportRepo) MarkCompleted(_ context.Context, id uuid.UUID, filePath string, at time.Time) error {
	report := r.reports[id]
	report.Status = domain.ReportStatusCompleted
	report.FilePath = filePath
	report.CompletedAt = &at
	return nil
}

func (r *fakeReportRepo) MarkFailed(_ context.Context, id uuid.UUID, msg string) error {
	report := r.reports[id]
	report.Status = domain.ReportStatusFailed
	report.ErrorMessage = &msg
	return nil
}

func (r *fakeReportRepo) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.purged = append(r.purged, cutoff)
	return 7, nil
}

func TestReportGenerateWritesWorkbookAndNotifies(t *testing.T) {
	userID := uuid.New()
	account := testAccount(userID, domain.PlatformTwitter)
	accounts := newFakeAccountRepo(account)
	reports := newFakeReportRepo()
	enq := &fakeEnqueuer{}
	outDir := t.TempDir()
	proc := NewReportProcessor(reports, accounts, &fakeAnalyticsRepo{}, enq, nil, outDir)

	report := &domain.Report{
		ID:        uuid.New(),
		UserID:    userID,
		Period:    domain.ReportPeriodWeekly,
		Status:    domain.ReportStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, reports.Create(context.Background(), report))

	data, err := queue.MarshalPayload(queue.ReportGeneratePayload{
		ReportID: report.ID, UserID: userID, Period: domain.ReportPeriodWeekly,
	})
	require.NoError(t, err)
	err = proc.ProcessTask(context.Background(), asynq.NewTask(queue.TypeReportGenerate, data))
	require.NoError(t, err)

	stored, err := reports.GetByID(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusCompleted, stored.Status)
	require.NotEmpty(t, stored.FilePath)

	info, err := os.Stat(stored.FilePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, queue.QueueEmail, enq.tasks[0].Queue)
	assert.Equal(t, queue.TypeEmailSend, enq.tasks[0].TaskType)

	email, ok := enq.tasks[0].Payload.(queue.EmailSendPayload)
	require.True(t, ok)
	assert.Equal(t, []string{userID.String() + "@" + RelayDomain}, email.To)
}

type fakeDirectory struct {
	addresses map[uuid.UUID][]string
}

func (d *fakeDirectory) RecipientsFor(_ context.Context, userID uuid.UUID) ([]string, error) {
	return d.addresses[userID], nil
}

func TestReportGenerateUsesRecipientDirectory(t *testing.T) {
	userID := uuid.New()
	account := testAccount(userID, domain.PlatformTwitter)
	reports := newFakeReportRepo()
	enq := &fakeEnqueuer{}
	directory := &fakeDirectory{addresses: map[uuid.UUID][]string{
		userID: {"owner@example.com", "ops@example.com"},
	}}
	proc := NewReportProcessor(reports, newFakeAccountRepo(account), &fakeAnalyticsRepo{}, enq, directory, t.TempDir())

	report := &domain.Report{
		ID:        uuid.New(),
		UserID:    userID,
		Period:    domain.ReportPeriodWeekly,
		Status:    domain.ReportStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, reports.Create(context.Background(), report))

	data, err := queue.MarshalPayload(queue.ReportGeneratePayload{
		ReportID: report.ID, UserID: userID, Period: domain.ReportPeriodWeekly,
	})
	require.NoError(t, err)
	require.NoError(t, proc.ProcessTask(context.Background(), asynq.NewTask(queue.TypeReportGenerate, data)))

	require.Len(t, enq.tasks, 1)
	email, ok := enq.tasks[0].Payload.(queue.EmailSendPayload)
	require.True(t, ok)
	assert.Equal(t, []string{"owner@example.com", "ops@example.com"}, email.To)
}

func TestReportGenerateSkipsNotificationWithoutRecipients(t *testing.T) {
	userID := uuid.New()
	reports := newFakeReportRepo()
	enq := &fakeEnqueuer{}
	proc := NewReportProcessor(reports, newFakeAccountRepo(), &fakeAnalyticsRepo{}, enq, &fakeDirectory{}, t.TempDir())

	report := &domain.Report{
		ID:        uuid.New(),
		UserID:    userID,
		Period:    domain.ReportPeriodWeekly,
		Status:    domain.ReportStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, reports.Create(context.Background(), report))

	data, err := queue.MarshalPayload(queue.ReportGeneratePayload{
		ReportID: report.ID, UserID: userID, Period: domain.ReportPeriodWeekly,
	})
	require.NoError(t, err)
	require.NoError(t, proc.ProcessTask(context.Background(), asynq.NewTask(queue.TypeReportGenerate, data)))

	stored, err := reports.GetByID(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusCompleted, stored.Status)
	assert.Empty(t, enq.tasks)
}

func TestReportGenerateSkipsAlreadyCompleted(t *testing.T) {
	userID := uuid.New()
	reports := newFakeReportRepo()
	enq := &fakeEnqueuer{}
	proc := NewReportProcessor(reports, newFakeAccountRepo(), &fakeAnalyticsRepo{}, enq, nil, t.TempDir())

	report := &domain.Report{
		ID:       uuid.New(),
		UserID:   userID,
		Period:   domain.ReportPeriodDaily,
		Status:   domain.ReportStatusCompleted,
		FilePath: "/reports/done.xlsx",
	}
	require.NoError(t, reports.Create(context.Background(), report))

	data, err := queue.MarshalPayload(queue.ReportGeneratePayload{
		ReportID: report.ID, UserID: userID, Period: domain.ReportPeriodDaily,
	})
	require.NoError(t, err)
	err = proc.ProcessTask(context.Background(), asynq.NewTask(queue.TypeReportGenerate, data))
	require.NoError(t, err)

	stored, _ := reports.GetByID(context.Background(), report.ID)
	assert.Equal(t, "/reports/done.xlsx", stored.FilePath)
	assert.Empty(t, enq.tasks)
}

func TestReportDispatchCreatesPendingRowPerUser(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	accounts := newFakeAccountRepo(
		testAccount(userA, domain.PlatformTwitter),
		testAccount(userA, domain.PlatformYouTube),
		testAccount(userB, domain.PlatformInstagram),
	)
	reports := newFakeReportRepo()
	enq := &fakeEnqueuer{}
	proc := NewReportProcessor(reports, accounts, &fakeAnalyticsRepo{}, enq, nil, t.TempDir())

	data, err := queue.MarshalPayload(queue.ReportDispatchPayload{Period: domain.ReportPeriodWeekly})
	require.NoError(t, err)
	err = proc.ProcessTask(context.Background(), asynq.NewTask(queue.TypeReportDispatch, data))
	require.NoError(t, err)

	// Two distinct users, one report row and one task each
	assert.Len(t, reports.reports, 2)
	require.Len(t, enq.tasks, 2)
	for _, task := range enq.tasks {
		assert.Equal(t, queue.QueueReports, task.Queue)
		assert.Equal(t, queue.TypeReportGenerate, task.TaskType)
		assert.NotEmpty(t, task.Opts.TaskID)
	}
	for _, report := range reports.reports {
		assert.Equal(t, domain.ReportStatusPending, report.Status)
		assert.Equal(t, domain.ReportPeriodWeekly, report.Period)
	}
}
