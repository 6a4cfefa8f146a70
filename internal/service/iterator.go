// Package service contains helpers used by application services.
// In particular, it provides an Iterator that consumes storage events from a
// message source (e.g., Kafka via pkg/kafkaclient) and loads the referenced
// objects from S3/MinIO using a pluggable LoaderFunc.
package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const objectCreatedPrefix = "s3:ObjectCreated:"

// Iterator consumes messages from a MessageIterator, interprets each message
// as a MinIO/S3 notification, loads every referenced object that passes the
// key filter via LoaderFunc, and hands FetchedObject items to a Handler. It
// is generic over the loaded item type T.
//
// The Iterator does not manage the lifecycle of the underlying message source;
// callers should start/stop their consumer outside and pass in an implementation
// of MessageIterator.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
	filter      KeyFilter
}

// NewIterator constructs an Iterator for the provided message source and
// object loader. A nil filter accepts every key.
func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T], filter KeyFilter) *Iterator[T] {
	if filter == nil {
		filter = func(string) bool { return true }
	}
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
		filter:      filter,
	}
}

// Each consumes messages until the Messages() channel is closed or ctx is
// done. For every message it:
//  1. Deserializes the message as a MinIO notification
//  2. Loads every created object whose key passes the filter
//  3. Calls fn with each FetchedObject[T]
//  4. Commits the message offset once fn returned nil for all its objects
//
// Malformed messages and messages without matching objects are logged and
// committed so they are not redelivered. A failed load or a failed fn stops
// the iteration with the message left uncommitted, so it is delivered again
// to the next consumer of the group. Offsets past it are never committed.
func (it *Iterator[T]) Each(ctx context.Context, fn Handler[T]) error {
	for {
		var (
			msg Message
			ok  bool
		)
		select {
		case <-ctx.Done():
			return nil
		case msg, ok = <-it.msgIterator.Messages():
			if !ok {
				return nil
			}
		}

		if err := it.handle(ctx, msg, fn); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return eris.Wrapf(err, "message at offset %d", msg.Offset)
		}
		if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
			zap.L().Error("failed to commit offset", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// handle loads the objects of one message and passes them to fn.
func (it *Iterator[T]) handle(ctx context.Context, msg Message, fn Handler[T]) error {
	var info notification.Info
	if err := json.Unmarshal(msg.Value, &info); err != nil {
		zap.L().Warn("skipping malformed notification", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}

	for _, event := range info.Records {
		if !strings.HasPrefix(event.EventName, objectCreatedPrefix) {
			continue
		}
		objectKey, err := url.QueryUnescape(event.S3.Object.Key)
		if err != nil {
			zap.L().Warn("skipping undecodable object key", zap.String("key", event.S3.Object.Key), zap.Error(err))
			continue
		}
		if !it.filter(objectKey) {
			zap.L().Debug("ignoring object", zap.String("key", objectKey))
			continue
		}

		data, err := it.loader(ctx, event.S3.Bucket.Name, objectKey)
		if err != nil {
			return eris.Wrapf(err, "load %s/%s", event.S3.Bucket.Name, objectKey)
		}
		if err := fn(ctx, &FetchedObject[T]{Data: data, Key: objectKey, Event: event}); err != nil {
			return eris.Wrapf(err, "handle %s", objectKey)
		}
	}
	return nil
}
