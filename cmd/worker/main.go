package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"collocshare/internal/logging"
	"collocshare/internal/models"
	"collocshare/internal/services"
	"collocshare/internal/tasks"
)

const defaultPollInterval = 5 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Logger.Info("No .env file found, using system environment")
	}
	logging.Init()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logging.Logger.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		logging.Logger.WithError(err).Fatal("Failed to connect to database")
	}

	tasks.Initialize()

	logging.Logger.Info("Worker started. Waiting for next tick...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logging.Logger.Info("Shutting down worker...")
		cancel()
	}()

	ticker := time.NewTicker(pollInterval())
	defer ticker.Stop()

	// One immediate pass on startup so a restart does not wait a full tick
	processScheduledTasks(ctx, db)

	for {
		select {
		case <-ticker.C:
			processScheduledTasks(ctx, db)
		case <-ctx.Done():
			return
		}
	}
}

func pollInterval() time.Duration {
	if raw := os.Getenv("WORKER_POLL_INTERVAL_SECONDS"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultPollInterval
}

func processScheduledTasks(ctx context.Context, db *gorm.DB) {
	logging.Logger.Debug("Checking for pending tasks...")

	var pendingTasks []models.ScheduledTask
	now := time.Now()
	if err := db.Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, now).Find(&pendingTasks).Error; err != nil {
		logging.Logger.WithError(err).Error("Error fetching pending tasks")
		return
	}

	if len(pendingTasks) == 0 {
		logging.Logger.Debug("No pending tasks found.")
		return
	}

	logging.Logger.Infof("Found %d pending tasks.", len(pendingTasks))

	for _, task := range pendingTasks {
		if ctx.Err() != nil {
			return
		}
		executeTask(ctx, db, task, 1)
	}
}

func executeTask(ctx context.Context, db *gorm.DB, task models.ScheduledTask, curAttempt int) {
	logging.Logger.WithFields(map[string]interface{}{
		"task":    task.TaskName,
		"task_id": task.ID,
		"attempt": curAttempt,
	}).Info("Processing task")

	handler, found := tasks.GetHandler(task.TaskName)
	if !found {
		logging.Logger.Errorf("Task handler not found for: %s. Marking as failure.", task.TaskName)

		now := time.Now()
		db.Model(&task).Updates(map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})

		history := models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          "handler_not_found",
			AttemptNumber:   curAttempt,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "Handler not found"},
		}
		db.Create(&history)
		return
	}

	startTime := time.Now()
	result, err := handler(ctx, db, task.Arguments)
	runtimeMs := int(time.Since(startTime).Milliseconds())

	status := "success"
	var resultData map[string]interface{}
	if err != nil {
		status = "failure"
		resultData = map[string]interface{}{"error": err.Error()}
		logging.Logger.WithError(err).Errorf("Task %s failed", task.TaskName)
	} else {
		resultData = result
		logging.Logger.Infof("Task %s completed successfully.", task.TaskName)
	}

	history := models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		RunAt:           startTime,
		Runtime:         runtimeMs,
		Status:          status,
		AttemptNumber:   curAttempt,
		Arguments:       task.Arguments,
		Result:          resultData,
	}
	db.Create(&history)

	taskUpdates := map[string]interface{}{
		"last_run": &startTime,
	}

	if status != "success" {
		if curAttempt < task.MaxAttempt {
			executeTask(ctx, db, task, curAttempt+1)
			return
		}
		taskUpdates["status"] = models.ScheduledTaskStatusFailure
	} else {
		switch task.TaskType {
		case models.ScheduledTaskTypeOneTime:
			taskUpdates["status"] = models.ScheduledTaskStatusDone
		case models.ScheduledTaskTypeRecurring:
			nextDue := task.NextDue()
			// only reschedule when the rule yields a strictly later date,
			// otherwise the task would run again on the next tick
			if nextDue.After(task.Due) {
				taskUpdates["status"] = models.ScheduledTaskStatusActive
				taskUpdates["due"] = nextDue
			} else {
				taskUpdates["status"] = models.ScheduledTaskStatusDone
			}
		}
	}

	db.Model(&task).Updates(taskUpdates)
}
