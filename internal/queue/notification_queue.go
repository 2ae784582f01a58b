// Package queue moves notification delivery out of the request path. The
// dispatcher enqueues one asynq task per notification; the worker consumes
// them and writes the notification rows.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"marketChat/internal/enums"
	"marketChat/internal/errs"
	"marketChat/internal/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const DefaultQueue = "notifications"

type Dispatcher struct {
	client   *asynq.Client
	queue    string
	maxRetry int
	log      *zap.SugaredLogger
}

func NewDispatcher(redis asynq.RedisConnOpt, queue string, maxRetry int, log *zap.SugaredLogger) *Dispatcher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Dispatcher{
		client:   asynq.NewClient(redis),
		queue:    queue,
		maxRetry: maxRetry,
		log:      log,
	}
}

// NewNotificationTask encodes request as a task. The request ID doubles as the
// task ID so a repeated dispatch of the same request is dropped by asynq.
func NewNotificationTask(request models.NotificationRequest, queue string, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue(queue)}
	if maxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(maxRetry))
	}
	if request.ID != "" {
		opts = append(opts, asynq.TaskID(request.ID))
	}
	return asynq.NewTask(enums.TASK_TYPE_CREATE_NOTIFICATION, payload, opts...), nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, request models.NotificationRequest) error {
	task, err := NewNotificationTask(request, d.queue, d.maxRetry)
	if err != nil {
		return errs.NotificationDispatch(err)
	}

	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			d.log.Debugw("Notification task already enqueued", "task_id", request.ID)
			return nil
		}
		return errs.NotificationDispatch(fmt.Errorf("%w: %v", errs.ErrQueueUnavailable, err))
	}
	d.log.Debugw("Notification task enqueued", "task_id", info.ID, "queue", info.Queue, "recipient_id", request.RecipientID)
	return nil
}

func (d *Dispatcher) Close() error {
	return d.client.Close()
}

// Notifier is the consumer side of a notification task.
type Notifier interface {
	Notify(ctx context.Context, request models.NotificationRequest) (*models.Notification, error)
}

// HandleNotificationTask returns the asynq handler for notification tasks.
// Malformed payloads and invalid requests are not retried.
func HandleNotificationTask(notifier Notifier, log *zap.SugaredLogger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var request models.NotificationRequest
		if err := json.Unmarshal(task.Payload(), &request); err != nil {
			log.Errorw("Dropping malformed notification task", "error", err)
			return fmt.Errorf("%w: %v: %w", errs.ErrInvalidNotificationJob, err, asynq.SkipRetry)
		}

		notification, err := notifier.Notify(ctx, request)
		if err != nil {
			if errors.Is(err, errs.ErrValidation) {
				log.Warnw("Dropping invalid notification task", "task_id", request.ID, "error", err)
				return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
			}
			return err
		}
		log.Debugw("Notification created", "notification_id", notification.ID, "recipient_id", notification.UserID)
		return nil
	}
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *zap.SugaredLogger
}

func NewWorker(redis asynq.RedisConnOpt, queue string, concurrency int, notifier Notifier, log *zap.SugaredLogger) *Worker {
	if queue == "" {
		queue = DefaultQueue
	}
	if concurrency < 1 {
		concurrency = 10
	}
	server := asynq.NewServer(redis, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		Logger:      log,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Errorw("Notification task failed", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(enums.TASK_TYPE_CREATE_NOTIFICATION, HandleNotificationTask(notifier, log))

	return &Worker{server: server, mux: mux, log: log}
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.log.Info("Notification worker started")
	return nil
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
	w.log.Info("Notification worker stopped")
}
