package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "blogml-test", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpanEnd(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.operation")
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { span.End(errors.New("boom")) })
}
