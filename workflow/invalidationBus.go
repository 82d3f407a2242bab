package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/mmdatafocus/shop_console/config"
	"github.com/sirupsen/logrus"
)

type InvalidationMessage struct {
	Resource string    `json:"resource"`
	Origin   string    `json:"origin"`
	SentAt   time.Time `json:"sent_at"`
}

// InvalidationBus shares cache invalidations between console instances over
// Pub/Sub. Messages an instance published itself are ignored on receipt.
type InvalidationBus struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	origin string
	logger *logrus.Logger
}

func NewInvalidationBus(ctx context.Context, client *pubsub.Client, topicName, origin string, logger *logrus.Logger) (*InvalidationBus, error) {
	topic, err := config.CreateTopicIfNotExists(ctx, client, topicName)
	if err != nil {
		return nil, err
	}
	return &InvalidationBus{client: client, topic: topic, origin: origin, logger: logger}, nil
}

func (b *InvalidationBus) Publish(ctx context.Context, resource string) error {
	data, err := json.Marshal(InvalidationMessage{Resource: resource, Origin: b.origin, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	res := b.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"resource": resource},
	})
	_, err = res.Get(ctx)
	return err
}

// Subscribe blocks, handing each foreign invalidation to handle, until ctx ends.
func (b *InvalidationBus) Subscribe(ctx context.Context, subscriptionName string, handle func(ctx context.Context, resource string)) error {
	sub, err := config.CreateSubscriptionIfNotExists(ctx, b.client, subscriptionName, b.topic)
	if err != nil {
		return err
	}
	err = sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		msg, ok := decodeInvalidation(m.Data)
		if !ok {
			b.logger.WithField("message_id", m.ID).Warn("dropping malformed invalidation message")
			m.Ack()
			return
		}
		if msg.Origin != b.origin {
			handle(ctx, msg.Resource)
		}
		m.Ack()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (b *InvalidationBus) Close() {
	b.topic.Stop()
}

func decodeInvalidation(data []byte) (InvalidationMessage, bool) {
	var msg InvalidationMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Resource == "" {
		return InvalidationMessage{}, false
	}
	return msg, true
}
