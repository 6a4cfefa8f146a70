// Package kafkaclient wraps a kafka-go consumer group reader behind a
// channel of messages with manual offset commits.
package kafkaclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// readErrorBackoff is the pause after a failed read before trying again.
var readErrorBackoff = time.Second

// KafkaReader defines the interface for a Kafka message reader.
// This allows for easy mocking in unit tests.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config names the topic and consumer group to read.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaConsumer manages the Kafka consumer and its message loop.
// It satisfies the message source contract of internal/service.
type KafkaConsumer struct {
	reader KafkaReader
	// cancels the consumer loop.
	cancel context.CancelFunc
	// ensures the loop has exited before the reader is closed.
	wg       sync.WaitGroup
	stopOnce sync.Once
	// a channel to hold the Kafka messages, closed when the loop exits.
	messageChan chan kafka.Message
}

// NewKafkaConsumer creates a consumer group reader. Offsets are committed
// only through CommitOffset.
func NewKafkaConsumer(cfg Config) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
		// Disable auto-commit to manually control offset committing.
		CommitInterval: 0,
		// A new group starts from the oldest retained notification.
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return newConsumer(reader)
}

func newConsumer(reader KafkaReader) *KafkaConsumer {
	return &KafkaConsumer{
		reader:      reader,
		cancel:      func() {},
		messageChan: make(chan kafka.Message),
	}
}

func (kc *KafkaConsumer) Messages() <-chan kafka.Message {
	return kc.messageChan
}

func (kc *KafkaConsumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	zap.L().Debug("committing offset",
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset))
	return kc.reader.CommitMessages(ctx, msg)
}

// StartConsuming begins the Kafka message consumption loop in a separate goroutine.
// The loop ends when ctx is done, Stop is called, or the reader is exhausted.
func (kc *KafkaConsumer) StartConsuming(ctx context.Context) {
	ctx, kc.cancel = context.WithCancel(ctx)
	kc.wg.Add(1)
	go func() {
		defer kc.wg.Done()
		defer close(kc.messageChan)

		log := zap.L().Named("kafka")
		log.Info("starting consumer loop")

		for {
			msg, err := kc.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					log.Info("consumer loop stopped")
					return
				}
				if errors.Is(err, io.EOF) {
					log.Info("reader closed, stopping consumer loop")
					return
				}
				log.Warn("error reading message", zap.Error(err))
				select {
				case <-time.After(readErrorBackoff):
					continue
				case <-ctx.Done():
					return
				}
			}

			select {
			case kc.messageChan <- msg:
				log.Debug("message received",
					zap.String("topic", msg.Topic),
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset))
			case <-ctx.Done():
				log.Info("consumer loop stopped before handing off message")
				return
			}
		}
	}()
}

// Stop gracefully shuts down the Kafka consumer. It is safe to call more than once.
func (kc *KafkaConsumer) Stop() {
	kc.stopOnce.Do(func() {
		zap.L().Info("stopping kafka consumer")
		kc.cancel()
		kc.wg.Wait()
		if err := kc.reader.Close(); err != nil {
			zap.L().Error("failed to close kafka reader", zap.Error(err))
		}
	})
}
