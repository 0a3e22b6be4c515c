package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// MessagePublisher publishes one message and returns its server ID.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) (string, error)
}

// TopicPublisher adapts a Pub/Sub topic publisher to MessagePublisher.
type TopicPublisher struct {
	publisher *pubsub.Publisher
}

// NewTopicPublisher wraps publisher.
func NewTopicPublisher(publisher *pubsub.Publisher) *TopicPublisher {
	return &TopicPublisher{publisher: publisher}
}

// Publish sends msg and waits for the server acknowledgement.
func (p *TopicPublisher) Publish(ctx context.Context, msg *pubsub.Message) (string, error) {
	if p.publisher == nil {
		return "", fmt.Errorf("pubsub publisher is not configured")
	}
	id, err := p.publisher.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// PubSubAppender publishes each record as a JSON message.
type PubSubAppender struct {
	publisher MessagePublisher
	log       string
	stop      func()
}

// NewPubSubAppender publishes records for the named log through publisher.
// stop, if non-nil, runs on Close to flush and release the topic.
func NewPubSubAppender(publisher MessagePublisher, log string, stop func()) *PubSubAppender {
	return &PubSubAppender{publisher: publisher, log: log, stop: stop}
}

// Append marshals rec and publishes it with the log name, the domain and
// the record's trace context as attributes.
func (a *PubSubAppender) Append(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	attrs := make(map[string]string, len(rec.Trace)+2)
	maps.Copy(attrs, rec.Trace)
	attrs["log"] = a.log
	attrs["domain"] = rec.Domain.String()
	msg := &pubsub.Message{Data: data, Attributes: attrs}
	if _, err := a.publisher.Publish(ctx, msg); err != nil {
		return err
	}
	return nil
}

// Close runs the stop hook.
func (a *PubSubAppender) Close(context.Context) error {
	if a.stop != nil {
		a.stop()
	}
	return nil
}
