package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collocshare/internal/models"
)

func TestBuildScheduledTask(t *testing.T) {
	due := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	interval := "FREQ=MONTHLY;BYMONTHDAY=1"

	task, err := BuildScheduledTask(
		TaskCreateRecurringExpense,
		map[string]uint{"recurring_expense_id": 7},
		due,
		&interval,
		models.ScheduledTaskTypeRecurring,
		3,
	)
	require.NoError(t, err)

	assert.Equal(t, TaskCreateRecurringExpense, task.TaskName)
	assert.Equal(t, due, task.Due)
	assert.Equal(t, models.ScheduledTaskStatusActive, task.Status)
	assert.Equal(t, models.ScheduledTaskTypeRecurring, task.TaskType)
	assert.Equal(t, 3, task.MaxAttempt)
	require.NotNil(t, task.RecurringInterval)
	assert.Equal(t, interval, *task.RecurringInterval)

	// Arguments go through JSON, so numbers come back as float64
	assert.Equal(t, float64(7), task.Arguments["recurring_expense_id"])
}

func TestBuildScheduledTaskRejectsNonObjectArgs(t *testing.T) {
	_, err := BuildScheduledTask(TaskLogInfo, "just a string", time.Now(), nil, models.ScheduledTaskTypeOneTime, 1)
	assert.Error(t, err)
}

func TestUintArg(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		want    uint
		wantErr bool
	}{
		{name: "float64 from json", args: map[string]interface{}{"id": float64(42)}, want: 42},
		{name: "plain int", args: map[string]interface{}{"id": 7}, want: 7},
		{name: "missing key", args: map[string]interface{}{}, wantErr: true},
		{name: "negative", args: map[string]interface{}{"id": float64(-1)}, wantErr: true},
		{name: "string value", args: map[string]interface{}{"id": "42"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uintArg(tt.args, "id")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	Initialize()

	_, ok := GetHandler(TaskCreateRecurringExpense)
	assert.True(t, ok)
	_, ok = GetHandler(TaskLogInfo)
	assert.True(t, ok)
	_, ok = GetHandler("no_such_task")
	assert.False(t, ok)
}
