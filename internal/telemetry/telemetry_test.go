package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{ServiceName: "stockpilot"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_WithEndpoint(t *testing.T) {
	// Exporters connect lazily, so setup succeeds without a collector.
	ctx := context.Background()
	shutdown, err := Setup(ctx, Config{
		Endpoint:       "127.0.0.1:4318",
		ServiceName:    "stockpilot-test",
		ServiceVersion: "test",
		Insecure:       true,
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	// Flushing to a missing collector may fail; it must not hang or panic.
	_ = shutdown(canceled)
}
