package tasks

// Task names known to the worker. Names are stored in scheduled_tasks rows,
// so renaming one requires a data migration.
const (
	// TaskCreateRecurringExpense materializes one occurrence of a
	// recurring expense template.
	TaskCreateRecurringExpense = "create_recurring_expense"

	// TaskLogInfo writes a log line. Used to verify worker liveness.
	TaskLogInfo = "log_info"
)
