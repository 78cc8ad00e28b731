package obs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTimeLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	ctx := context.WithValue(context.Background(), RequestIDKey, "abc")

	func() (err error) {
		defer Time(ctx, "ok.op")(&err)
		return nil
	}()
	func() (err error) {
		defer Time(ctx, "bad.op")(&err)
		return errors.New("boom")
	}()

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "ok.op", entries[0].ContextMap()["op"])
		assert.Equal(t, zap.WarnLevel, entries[1].Level)
		assert.Equal(t, "abc", entries[1].ContextMap()["req_id"])
		assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	}
	assert.Equal(t, "abc", RequestID(ctx))
}
