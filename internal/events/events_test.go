package events

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridflow/internal/ctxlog"
)

func TestRecorderAndMulti(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	a, b := &Recorder{}, &Recorder{}
	sink := Multi{a, nil, b, NopSink{}}

	sink.Emit(ctx, Event{RunID: "r", Type: RunStarted})
	sink.Emit(ctx, Event{RunID: "r", Type: TaskStarted, Task: "train"})
	sink.Emit(ctx, Event{RunID: "r", Type: TaskSucceeded, Task: "train"})

	assert.Len(t, a.Events(), 3)
	assert.Equal(t, a.Events(), b.Events())
	assert.Equal(t, []Type{TaskStarted, TaskSucceeded}, a.ByTask("train"))
	assert.Empty(t, a.ByTask("evaluate"))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	LogSink{}.Emit(ctx, Event{RunID: "r1", Type: TaskFailed, Task: "train", Component: "train_model", Error: "boom"})
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "event=task_failed")
	assert.Contains(t, out, "error=boom")
}

func TestEventFields(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	f := Event{RunID: "r", Type: RunFinished, Time: ts}.Fields()
	assert.Equal(t, map[string]any{"run_id": "r", "type": "run_finished", "time": "2025-01-02T03:04:05Z"}, f)
}

func TestDialSocketIOErrors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	_, err := DialSocketIO(ctx, SocketIOConfig{URL: "not a url"})
	require.Error(t, err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = DialSocketIO(cctx, SocketIOConfig{URL: "http://127.0.0.1:1", ConnectTimeout: 2 * time.Second})
	require.Error(t, err)
}
