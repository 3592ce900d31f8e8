package worker

import (
	"github.com/sadewadee/social-analytics/internal/queue"
)

// Handlers wires every processor's task types into the per-queue handler
// map the workers consume
func Handlers(sync *SyncProcessor, report *ReportProcessor, email *EmailProcessor, analytics *AnalyticsProcessor, cleanup *CleanupProcessor) queue.Handlers {
	return queue.Handlers{
		queue.QueueDataSync: {
			queue.TypeSyncPlatform: sync.ProcessTask,
			queue.TypeSyncDispatch: sync.ProcessTask,
		},
		queue.QueueReports: {
			queue.TypeReportGenerate: report.ProcessTask,
			queue.TypeReportDispatch: report.ProcessTask,
		},
		queue.QueueEmail: {
			queue.TypeEmailSend: email.ProcessTask,
		},
		queue.QueueAnalytics: {
			queue.TypeAnalyticsRollup: analytics.ProcessTask,
		},
		queue.QueueCleanup: {
			queue.TypeCleanupPurge: cleanup.ProcessTask,
		},
	}
}
