package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"
)

// KafkaPublisher publishes match-ended and tick events to a Kafka
// topic. Tick events are the higher-volume side of this boundary, so
// emission is debounced through a token-bucket limiter rather than
// published unconditionally on every tick: a burst of ticks (e.g.
// after a reconnect replay) should not translate into a burst of
// writes against the topic.
type KafkaPublisher struct {
	matchWriter *kafka.Writer
	tickWriter  *kafka.Writer
	tickLimiter *rate.Limiter
}

// NewKafkaPublisher prepares writers against brokers for topic (match
// events) and topic+".ticks" (tick events), one *kafka.Writer per
// topic. No connection is made until the first write.
func NewKafkaPublisher(brokers []string, topic string, ticksPerSecond float64) *KafkaPublisher {
	addr := kafka.TCP(brokers...)
	return &KafkaPublisher{
		matchWriter: &kafka.Writer{
			Addr:         addr,
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		tickWriter: &kafka.Writer{
			Addr:         addr,
			Topic:        topic + ".ticks",
			Balancer:     &kafka.LeastBytes{},
			BatchSize:    100,
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		tickLimiter: rate.NewLimiter(rate.Limit(ticksPerSecond), int(ticksPerSecond)),
	}
}

func (p *KafkaPublisher) PublishMatchEnded(ctx context.Context, ev MatchEndedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal match-ended event: %w", err)
	}
	return p.matchWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.MatchID),
		Value: payload,
	})
}

// PublishTick publishes a per-tick event, dropping it silently if the
// debounce limiter has no tokens available; per-tick events are
// optional telemetry, never load-bearing for match correctness.
func (p *KafkaPublisher) PublishTick(ctx context.Context, ev TickEvent) error {
	if !p.tickLimiter.Allow() {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal tick event: %w", err)
	}
	return p.tickWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.MatchID),
		Value: payload,
	})
}

func (p *KafkaPublisher) Close() error {
	err1 := p.matchWriter.Close()
	err2 := p.tickWriter.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// BrokersFromCSV splits a "host1:9092,host2:9092" style config value.
func BrokersFromCSV(csv string) []string {
	return strings.Split(csv, ",")
}
