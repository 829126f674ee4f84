package asynq

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

func TestQueueInfoToCounts(t *testing.T) {
	tests := []struct {
		name             string
		info             *asynq.QueueInfo
		expectedWaiting  int
		expectedDelayed  int
		expectedPaused   bool
	}{
		{
			name: "pending maps to waiting",
			info: &asynq.QueueInfo{
				Pending:   12,
				Active:    3,
				Completed: 40,
				Failed:    2,
			},
			expectedWaiting: 12,
		},
		{
			name: "scheduled and retry both count as delayed",
			info: &asynq.QueueInfo{
				Scheduled: 4,
				Retry:     3,
			},
			expectedDelayed: 7,
		},
		{
			name:           "paused flag carried through",
			info:           &asynq.QueueInfo{Paused: true},
			expectedPaused: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := queueInfoToCounts(tt.info)
			assert.Equal(t, tt.expectedWaiting, counts.Waiting)
			assert.Equal(t, tt.info.Active, counts.Active)
			assert.Equal(t, tt.info.Completed, counts.Completed)
			assert.Equal(t, tt.info.Failed, counts.Failed)
			assert.Equal(t, tt.expectedDelayed, counts.Delayed)
			assert.Equal(t, tt.expectedPaused, counts.Paused)
		})
	}
}
