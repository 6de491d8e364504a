package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kleankickx/storefront-api/internal/domain"
	"github.com/segmentio/kafka-go"
)

const notificationsTopic = "user-notifications"

type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers ...string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  notificationsTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{writer: w}
}

func (k *KafkaNotifier) Notify(ctx context.Context, userID string, kind domain.NotificationKind, message string) error {
	n := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(userID), // user_id for per-user ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "notification_kind", Value: []byte(kind)},
		},
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification failed: %w", err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
