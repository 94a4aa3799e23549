package storage

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// eventsChannel carries realtime events that every instance fans out to its
// local websocket clients (presence changes today).
const eventsChannel = "skillswap:events"

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisClient{client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Event is the envelope published on the shared events channel.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func (r *RedisClient) PublishEvent(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, eventsChannel, data).Err()
}

// PublishUserStatus announces a presence change to all instances.
func (r *RedisClient) PublishUserStatus(ctx context.Context, userID string, isOnline bool) error {
	return r.PublishEvent(ctx, Event{
		Type: "user_status_changed",
		Data: map[string]any{"userId": userID, "isOnline": isOnline},
	})
}

type EventSubscriber struct {
	*redis.PubSub
}

func (s *EventSubscriber) ReceiveEvent(ctx context.Context) (*Event, error) {
	msg, err := s.PubSub.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}

	var event Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *RedisClient) SubscribeEvents(ctx context.Context) *EventSubscriber {
	return &EventSubscriber{PubSub: r.client.Subscribe(ctx, eventsChannel)}
}
