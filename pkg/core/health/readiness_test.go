package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadiness_NotReadyUntilAllComponentsMarked(t *testing.T) {
	r := NewReadiness(zap.NewNop())
	r.AddComponent("http-server")
	r.AddComponent("mongo")

	assert.False(t, r.IsReady())

	r.MarkReady("http-server")
	assert.False(t, r.IsReady())

	r.MarkReady("mongo")
	assert.True(t, r.IsReady())
}

func TestReadiness_NoComponentsMeansNotReady(t *testing.T) {
	r := NewReadiness(zap.NewNop())

	assert.False(t, r.IsReady())
}

func TestReadiness_MarkReadyIsIdempotent(t *testing.T) {
	r := NewReadiness(zap.NewNop())
	r.AddComponent("mongo")

	r.MarkReady("mongo")
	r.MarkReady("mongo")

	assert.True(t, r.IsReady())
}

func TestReadiness_StatusReportsPerComponent(t *testing.T) {
	r := NewReadiness(zap.NewNop())
	r.AddComponent("http-server")
	r.AddComponent("mongo")
	r.MarkReady("mongo")

	status := r.GetStatus()

	assert.False(t, status.Ready)
	require.Len(t, status.Components, 2)
	byName := make(map[string]ComponentStatus, 2)
	for _, c := range status.Components {
		byName[c.Name] = c
	}
	assert.True(t, byName["mongo"].Ready)
	assert.False(t, byName["http-server"].Ready)
}

func TestWaitReady_UnblocksOnceReady(t *testing.T) {
	r := NewReadiness(zap.NewNop())
	r.AddComponent("mongo")

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- r.WaitReady(ctx)
	}()

	r.MarkReady("mongo")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitReady did not unblock")
	}
}

func TestWaitReady_HonorsContextCancellation(t *testing.T) {
	r := NewReadiness(zap.NewNop())
	r.AddComponent("never-ready")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, r.WaitReady(ctx), context.Canceled)
}
