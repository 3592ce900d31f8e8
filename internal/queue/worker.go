package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// Handler processes one task type
type Handler func(ctx context.Context, task *asynq.Task) error

// Handlers maps each logical queue to its task-type handlers. Each queue has
// exactly one processor per task type it carries.
type Handlers map[Name]map[string]Handler

// Worker consumes the logical queues. One asynq server runs per queue so
// that each queue keeps its own concurrency ceiling; inside a server the
// priority bands drain in strict order.
type Worker struct {
	servers []*queueServer
}

type queueServer struct {
	name   Name
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker creates the per-queue servers and registers the handlers
func NewWorker(redisOpt asynq.RedisConnOpt, handlers Handlers) (*Worker, error) {
	if len(handlers) == 0 {
		return nil, fmt.Errorf("no queue handlers registered")
	}

	w := &Worker{}

	for name, typeHandlers := range handlers {
		qcfg, ok := Configs[name]
		if !ok {
			return nil, fmt.Errorf("unknown queue: %s", name)
		}

		server := asynq.NewServer(redisOpt, asynq.Config{
			Concurrency:    qcfg.Concurrency,
			Queues:         BandQueues(name),
			StrictPriority: true,
			RetryDelayFunc: retryDelayFunc(qcfg),
			IsFailure:      isFailure,
			ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
				log.Printf("[Worker] queue=%s task=%s error: %v", name, task.Type(), err)
			}),
			Logger:          &asynqLogger{},
			ShutdownTimeout: 30 * time.Second,
		})

		mux := asynq.NewServeMux()
		for taskType, h := range typeHandlers {
			mux.HandleFunc(taskType, asynq.HandlerFunc(h).ProcessTask)
		}

		w.servers = append(w.servers, &queueServer{
			name:   name,
			server: server,
			mux:    mux,
		})
	}

	return w, nil
}

// Run starts all queue servers and blocks until the context is cancelled or
// a server fails
func (w *Worker) Run(ctx context.Context) error {
	egroup, ctx := errgroup.WithContext(ctx)

	for _, qs := range w.servers {
		qs := qs

		egroup.Go(func() error {
			log.Printf("[Worker] queue %s started (concurrency=%d)",
				qs.name, Configs[qs.name].Concurrency)

			if err := qs.server.Start(qs.mux); err != nil {
				return fmt.Errorf("queue %s: %w", qs.name, err)
			}

			<-ctx.Done()
			qs.server.Shutdown()
			return nil
		})
	}

	return egroup.Wait()
}

// Shutdown stops accepting new jobs and waits for active jobs to finish
func (w *Worker) Shutdown() {
	for _, qs := range w.servers {
		qs.server.Shutdown()
	}
}

// retryDelayFunc applies the queue's backoff policy. Rate-limit errors that
// escape a processor wait out the platform cooldown instead of the generic
// backoff.
func retryDelayFunc(qcfg QueueConfig) asynq.RetryDelayFunc {
	return func(n int, err error, _ *asynq.Task) time.Duration {
		if cooldown := domain.CooldownFor(err); cooldown > 0 {
			return cooldown
		}
		return qcfg.RetryDelay(n)
	}
}

// isFailure keeps rate-limit conditions out of failure metrics; they are
// backpressure, not errors
func isFailure(err error) bool {
	return !domain.IsRateLimited(err)
}

// asynqLogger adapts asynq logging to standard log
type asynqLogger struct{}

func (l *asynqLogger) Debug(...interface{}) {
	// Suppress debug logs
}

func (l *asynqLogger) Info(args ...interface{}) {
	log.Println(args...)
}

func (l *asynqLogger) Warn(args ...interface{}) {
	log.Println("[WARN]", fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	log.Println("[ERROR]", fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	log.Fatalln("[FATAL]", fmt.Sprint(args...))
}
