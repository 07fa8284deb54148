package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"collocshare/internal/models"
)

// BuildScheduledTask is a helper to build ScheduledTask records generically
func BuildScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var mapArgs map[string]interface{}
	if err := json.Unmarshal(argsBytes, &mapArgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}

	return &models.ScheduledTask{
		TaskName:          taskName,
		Arguments:         mapArgs,
		Due:               due,
		RecurringInterval: recurringInterval,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          taskType,
		MaxAttempt:        maxAttempt,
	}, nil
}

// uintArg extracts a numeric argument that went through JSON, where all
// numbers come back as float64.
func uintArg(args map[string]interface{}, key string) (uint, error) {
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch v := raw.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("argument %q is negative", key)
		}
		return uint(v), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("argument %q is negative", key)
		}
		return uint(v), nil
	default:
		return 0, fmt.Errorf("argument %q is not a number", key)
	}
}
