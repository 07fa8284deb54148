package tasks

import (
	"context"

	"gorm.io/gorm"

	"collocshare/internal/logging"
)

// LogInfoHandler logs its arguments. Scheduling one of these is a cheap
// way to check the worker end to end.
func LogInfoHandler(ctx context.Context, db *gorm.DB, args map[string]interface{}) (map[string]interface{}, error) {
	message := "log_info task executed"
	if m, ok := args["message"].(string); ok && m != "" {
		message = m
	}
	logging.Logger.WithField("args", args).Info(message)
	return map[string]interface{}{"logged": true}, nil
}
