package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Disabled", func(t *testing.T) {
		shutdown, err := InitTracer(context.Background(), "", logger)
		require.NoError(t, err)
		assert.NotPanics(t, func() { shutdown(context.Background()) })
	})

	t.Run("Endpoint Configured", func(t *testing.T) {
		// The gRPC exporter connects lazily, so an unreachable collector
		// does not fail startup.
		shutdown, err := InitTracer(context.Background(), "http://127.0.0.1:1", logger)
		require.NoError(t, err)
		assert.NotPanics(t, func() { shutdown(context.Background()) })
	})
}
