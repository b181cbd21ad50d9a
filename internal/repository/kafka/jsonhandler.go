package kafka

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// JSONHandler decodes the message value into M before calling handle.
// A payload that does not decode is logged and dropped (nil return, so
// the consumer commits it); retrying a malformed message can never
// succeed.
func JSONHandler[M any](log *zap.Logger, handle func(context.Context, []byte, *M) error) Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, key, value []byte) error {
		var msg M
		if err := json.Unmarshal(value, &msg); err != nil {
			log.Warn("drop undecodable message",
				zap.ByteString("key", key),
				zap.Int("value_len", len(value)),
				zap.Error(err),
			)
			return nil
		}
		return handle(ctx, key, &msg)
	}
}
