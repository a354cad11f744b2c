package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"

	"github.com/beautycare/backend/internal/domain"
)

const writeTimeout = 5 * time.Second

// messageWriter is the part of kafka.Writer the sink uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events to a Kafka topic from a background goroutine.
// Emit never blocks: when the buffer is full the event is dropped. Write
// failures are logged at a bounded rate and otherwise ignored.
type KafkaSink struct {
	writer messageWriter
	queue  chan domain.Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool

	dropped atomic.Int64
	failed  atomic.Int64
	errLog  rate.Sometimes
}

// NewKafkaSink creates a sink writing JSON events to topic
func NewKafkaSink(brokers []string, topic string, bufferSize int) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           5 * time.Millisecond,
	}
	return newKafkaSink(w, bufferSize)
}

func newKafkaSink(w messageWriter, bufferSize int) *KafkaSink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	s := &KafkaSink{
		writer: w,
		queue:  make(chan domain.Event, bufferSize),
		done:   make(chan struct{}),
		errLog: rate.Sometimes{First: 3, Interval: time.Minute},
	}
	go s.run()
	return s
}

// Emit queues the event for publishing
func (s *KafkaSink) Emit(_ context.Context, event domain.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.queue <- event:
	default:
		n := s.dropped.Add(1)
		s.errLog.Do(func() {
			log.Warn().Int64("dropped", n).Msg("Analytics buffer full, dropping events")
		})
	}
}

func (s *KafkaSink) run() {
	defer close(s.done)
	for event := range s.queue {
		s.publish(event)
	}
}

func (s *KafkaSink) publish(event domain.Event) {
	body, err := json.Marshal(event)
	if err != nil {
		s.failure(err, event)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	msg := kafka.Message{Key: []byte(event.UserID), Value: body}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.failure(err, event)
	}
}

func (s *KafkaSink) failure(err error, event domain.Event) {
	n := s.failed.Add(1)
	s.errLog.Do(func() {
		log.Error().
			Err(err).
			Str("event", event.Name).
			Int64("failed", n).
			Msg("Failed to publish analytics event")
	})
}

// Dropped returns how many events were discarded on a full buffer
func (s *KafkaSink) Dropped() int64 {
	return s.dropped.Load()
}

// Failed returns how many events could not be written
func (s *KafkaSink) Failed() int64 {
	return s.failed.Load()
}

// Close flushes queued events and closes the writer. Events emitted after
// Close are dropped silently.
func (s *KafkaSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.writer.Close()
}
