package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffFor(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{7, 10 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backoffFor(tt.attempt, time.Second, 10*time.Second), "attempt %d", tt.attempt)
	}

	assert.Equal(t, time.Second, backoffFor(1, 0, 0))
	assert.Equal(t, time.Minute, backoffFor(20, 0, 0))
}
