package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogUseCaseObserver_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := NewLogUseCaseObserver(logger)
	ctx := context.Background()

	obs.ObserveUseCase(ctx, UseCaseEvent{Name: "catalog.move", Duration: 3 * time.Millisecond, Success: true,
		Fields: map[string]any{"node_id": "i1", "applied": true}})
	obs.ObserveUseCase(ctx, UseCaseEvent{Name: "catalog.move", Success: true,
		Fields: map[string]any{"reconciled": true}})
	obs.ObserveUseCase(ctx, UseCaseEvent{Name: "catalog.load", Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=service_use_case component=catalog use_case=catalog.move duration_ms=3 success=true applied=true node_id=i1")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=boom")
}

func TestNewLogUseCaseObserver_NilLogger(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
	assert.IsType(t, NoopUseCaseObserver{}, useCaseObserverOrNoop(nil))
}
