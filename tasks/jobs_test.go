package tasks

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestTaskStatusComplete(t *testing.T) {
	for status, complete := range map[TaskStatus]bool{
		TaskStatusSubmitted:        false,
		TaskStatusStarted:          false,
		TaskStatusFailed:           false,
		TaskStatusCompletedSuccess: true,
		TaskStatusCompletedFailure: true,
		TaskStatusCanceled:         true,
	} {
		assert.Equal(t, complete, status.Complete(), string(status))
	}
}
