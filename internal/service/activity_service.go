package service

import (
	"context"
	"time"

	"vibez-studio/internal/pkg/logger"
	"vibez-studio/pkg/events"
	pktNats "vibez-studio/pkg/nats"
)

// ActivityDurable is the JetStream consumer name shared by every gateway
// instance, so each event is handled once.
const ActivityDurable = "vibez-activity"

// EventSubscriber registers a durable handler for a subject.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

type IActivityService interface {
	Start(ctx context.Context) error
	Handle(ctx context.Context, event events.Event) error
}

// Activity is the frame pushed to a user's connections for each of their
// domain events.
type Activity struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

type activityService struct {
	sub    EventSubscriber
	sender ViewSender
	logger logger.ILogger
}

func NewActivityService(sub EventSubscriber, sender ViewSender, log logger.ILogger) IActivityService {
	return &activityService{sub: sub, sender: sender, logger: log}
}

// Start subscribes to every VIBEZ subject.
func (s *activityService) Start(ctx context.Context) error {
	return s.sub.Subscribe(ctx, pktNats.SubjectPrefix+".>", ActivityDurable, s.Handle)
}

func (s *activityService) Handle(ctx context.Context, event events.Event) error {
	data := event.Payload()
	userID, _ := data["user_id"].(string)

	s.logger.Info("Activity", event.EventType(), data)

	if userID == "" {
		return nil
	}
	return s.sender.Send(ctx, userID, "activity", Activity{
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Data:       data,
	})
}
