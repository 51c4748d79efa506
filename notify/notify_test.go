package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkFunc_DelegatesToFunc(t *testing.T) {
	var got Notification
	sink := SinkFunc(func(_ context.Context, n Notification) error {
		got = n
		return nil
	})

	err := sink.Send(context.Background(), Notification{Title: "Login successful", Severity: SeverityInfo})
	require.NoError(t, err)
	assert.Equal(t, "Login successful", got.Title)
	assert.Equal(t, SeverityInfo, got.Severity)
}

func TestSinkFunc_NilIsNoop(t *testing.T) {
	var sink SinkFunc
	assert.NoError(t, sink.Send(context.Background(), Notification{}))
}
