package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

// InvalidationTopic names the topic console instances use to share cache invalidations.
// Empty disables the bus.
func InvalidationTopic() string {
	return os.Getenv("CACHE_INVALIDATION_TOPIC")
}

// GetPubSubClient returns a Pub/Sub client, initializing with retries if needed.
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is provided.
func GetPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var attempt int
	for {
		attempt++

		var (
			c   *pubsub.Client
			err error
		)
		if credJSON != "" {
			c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
		} else {
			c, err = pubsub.NewClient(ctx, projectID)
		}
		if err == nil {
			pubsubClientMu.Lock()
			if pubsubClient == nil {
				pubsubClient = c
			} else {
				// Another goroutine won the race; close ours.
				_ = c.Close()
			}
			c2 := pubsubClient
			pubsubClientMu.Unlock()

			log.Printf("pubsub client ready (project_id=%s attempt=%d)", projectID, attempt)
			return c2, nil
		}

		sleep := backoff(attempt)
		log.Printf("failed to init pubsub client (project_id=%s attempt=%d): %v; retrying in %s", projectID, attempt, err, sleep)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

func CreateTopicIfNotExists(ctx context.Context, c *pubsub.Client, topic string) (*pubsub.Topic, error) {
	if c == nil {
		return nil, errors.New("pubsub client is nil")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	t := c.Topic(topic)
	ok, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return t, nil
	}
	t, err = c.CreateTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("create topic %q: %w", topic, err)
	}
	return t, nil
}

func CreateSubscriptionIfNotExists(ctx context.Context, client *pubsub.Client, name string, topic *pubsub.Topic) (*pubsub.Subscription, error) {
	if client == nil {
		return nil, errors.New("pubsub client is nil")
	}
	if name == "" {
		return nil, errors.New("subscription name is required")
	}
	if topic == nil {
		return nil, errors.New("topic is required")
	}

	sub := client.Subscription(name)
	subExists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check subscription exists: %w", err)
	}
	if !subExists {
		sub, err = client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 20 * time.Second,
			// Each console instance owns its subscription; drop it when the instance goes away.
			ExpirationPolicy: 24 * time.Hour,
		})
		if err != nil {
			return nil, fmt.Errorf("create subscription %q: %w", name, err)
		}
	}
	return sub, nil
}
