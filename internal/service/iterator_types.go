package service

import (
	"context"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

// Message is a record read from the notification topic.
type Message = kafka.Message

// MessageIterator defines the contract for consuming messages from a Kafka topic.
// It is used by the service's Iterator to abstract away the details of the
// underlying Kafka consumer.
//
// Implementations are responsible for the lifecycle of the consumer connection.
type MessageIterator interface {
	// Messages returns a receive-only channel of Kafka messages. The channel
	// is closed by the implementation when the consumer is stopped or the
	// underlying source is exhausted.
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges that a message has been successfully processed.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads and decodes the object stored under bucket/key.
// Implementations must honor the provided context for cancellation.
type LoaderFunc[T any] func(ctx context.Context, bucket, key string) (T, error)

// Handler processes one loaded object. A non-nil error keeps the message
// that announced the object uncommitted.
type Handler[T any] func(ctx context.Context, obj *FetchedObject[T]) error

// KeyFilter selects the object keys an Iterator loads.
type KeyFilter func(key string) bool

// FetchedObject pairs an object loaded from the object store with the
// notification event that announced it.
type FetchedObject[T any] struct {
	// Data is the decoded object data, loaded from the object store.
	Data T
	// Key is the unescaped object key.
	Key string
	// Event is the MinIO/S3 notification event that triggered the fetch.
	Event notification.Event
}
