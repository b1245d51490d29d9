package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Publisher emits social events onto the bus. The feed service itself only
// consumes; this lives here for the seeder and for upstream services sharing
// the event schema.
type Publisher struct {
	w *kafka.Writer
}

func NewPublisher(brokers, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, t Type, data Payload) error {
	ev := Event{
		ID:        uuid.NewString(),
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(t),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *Publisher) Close() error { return p.w.Close() }
