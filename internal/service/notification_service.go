package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/club-api/internal/models"
	"github.com/noah-isme/club-api/pkg/calendar"
	"github.com/noah-isme/club-api/pkg/jobs"
	"github.com/noah-isme/club-api/pkg/notify"
)

// CancellationReason explains why enrollments of a course were cancelled.
type CancellationReason string

const (
	ReasonCourseDeleted   CancellationReason = "COURSE_DELETED"
	ReasonScheduleChanged CancellationReason = "SCHEDULE_CHANGED"
)

const jobTypeNotification = "notification.email"

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

type notificationPayload struct {
	To      string
	Subject string
	Message string
}

// NotificationService tells members about schedule changes. Delivery is
// asynchronous and best effort; nothing here can fail a schedule operation.
type NotificationService struct {
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. A nil queue disables notifications.
func NewNotificationService(queue jobEnqueuer, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, metrics: metrics, logger: logger}
}

// NotificationHandler returns the job handler that delivers queued
// notifications through dispatcher.
func NotificationHandler(dispatcher notify.Dispatcher) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(notificationPayload)
		if !ok {
			return fmt.Errorf("unexpected notification payload %T", job.Payload)
		}
		return dispatcher.Send(ctx, payload.To, payload.Subject, payload.Message)
	}
}

// NotifyCourseCancelled enqueues one message per recipient. Enqueue failures
// are logged and counted.
func (s *NotificationService) NotifyCourseCancelled(_ context.Context, course *models.Course, recipients []models.Recipient, reason CancellationReason) {
	if s == nil || s.queue == nil || course == nil || len(recipients) == 0 {
		return
	}
	subject, body := cancellationText(course, reason)
	for _, r := range recipients {
		job := jobs.Job{
			ID:   uuid.NewString(),
			Type: jobTypeNotification,
			Payload: notificationPayload{
				To:      r.Email,
				Subject: subject,
				Message: greet(r.Name) + body,
			},
		}
		if err := s.queue.TryEnqueue(job); err != nil {
			s.metrics.RecordNotification("enqueue_failed")
			s.logger.Warn("failed to enqueue notification",
				zap.String("course_id", course.ID),
				zap.String("recipient", r.Email),
				zap.Error(err),
			)
			continue
		}
		s.metrics.RecordNotification("queued")
	}
	s.logger.Info("course cancellation notifications queued",
		zap.String("course_id", course.ID),
		zap.String("reason", string(reason)),
		zap.Int("recipients", len(recipients)),
	)
}

func cancellationText(course *models.Course, reason CancellationReason) (string, string) {
	period := fmt.Sprintf("%s to %s", course.StartDate.Format(calendar.DateLayout), course.EndDate.Format(calendar.DateLayout))
	switch reason {
	case ReasonScheduleChanged:
		return fmt.Sprintf("Schedule change: %s", course.Name),
			fmt.Sprintf("the schedule of %s (%s) has changed and your enrollment was cancelled. Please enroll again if the new schedule suits you.", course.Name, period)
	default:
		return fmt.Sprintf("Course cancelled: %s", course.Name),
			fmt.Sprintf("%s (%s) has been cancelled and your enrollment was cancelled with it.", course.Name, period)
	}
}

func greet(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hello, "
	}
	return fmt.Sprintf("Hello %s, ", name)
}
