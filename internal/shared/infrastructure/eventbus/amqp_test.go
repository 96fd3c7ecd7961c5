package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	event, err := decodeEvent([]byte(`{"event_type":"tasktrack.task.updated","aggregate_id":"4","data":{"completed":true}}`), "ignored")
	require.NoError(t, err)
	assert.Equal(t, "tasktrack.task.updated", event.RoutingKey)
	assert.Equal(t, "4", event.AggregateID)
	assert.JSONEq(t, `{"completed":true}`, string(event.Data))

	event, err = decodeEvent([]byte(`{"aggregate_id":"5"}`), "tasktrack.task.deleted")
	require.NoError(t, err)
	assert.Equal(t, "tasktrack.task.deleted", event.RoutingKey)

	_, err = decodeEvent([]byte(`not json`), "tasktrack.task.created")
	assert.ErrorContains(t, err, "failed to decode event")
}
