package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvitationIsUsable(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		invitation Invitation
		want       bool
	}{
		{
			name:       "pending and not expired",
			invitation: Invitation{Status: InvitationStatusPending, ExpiresAt: now.Add(time.Hour)},
			want:       true,
		},
		{
			name:       "pending but expired",
			invitation: Invitation{Status: InvitationStatusPending, ExpiresAt: now.Add(-time.Hour)},
			want:       false,
		},
		{
			name:       "already accepted",
			invitation: Invitation{Status: InvitationStatusAccepted, ExpiresAt: now.Add(time.Hour)},
			want:       false,
		},
		{
			name:       "marked expired",
			invitation: Invitation{Status: InvitationStatusExpired, ExpiresAt: now.Add(time.Hour)},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.invitation.IsUsable(now))
		})
	}
}

func TestMembershipIsActive(t *testing.T) {
	left := time.Now()
	assert.True(t, Membership{}.IsActive())
	assert.False(t, Membership{LeftAt: &left}.IsActive())
}

func TestRecurringExpenseNextOccurrence(t *testing.T) {
	start := time.Now().AddDate(0, -1, 0)

	r := RecurringExpense{
		StartDate: start,
		RRule:     "FREQ=MONTHLY",
	}
	next := r.NextOccurrence()
	assert.True(t, next.After(time.Now()), "next occurrence should be in the future")

	// A broken rule falls back to the start date instead of failing
	broken := RecurringExpense{StartDate: start, RRule: "FREQ=NONSENSE"}
	assert.Equal(t, start, broken.NextOccurrence())

	empty := RecurringExpense{StartDate: start}
	assert.Equal(t, start, empty.NextOccurrence())
}

func TestScheduledTaskNextDue(t *testing.T) {
	due := time.Now().AddDate(0, 0, -2)
	interval := "FREQ=DAILY"

	onetime := ScheduledTask{TaskType: ScheduledTaskTypeOneTime, Due: due}
	assert.Equal(t, due, onetime.NextDue())

	recurring := ScheduledTask{
		TaskType:          ScheduledTaskTypeRecurring,
		Due:               due,
		RecurringInterval: &interval,
	}
	next := recurring.NextDue()
	assert.True(t, next.After(due), "recurring task should advance past the old due date")

	noRule := ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due}
	assert.Equal(t, due, noRule.NextDue())
}

func TestScheduledTaskNextDueSkipsCurrentInstant(t *testing.T) {
	due := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	interval := "FREQ=DAILY"
	task := ScheduledTask{
		TaskType:          ScheduledTaskTypeRecurring,
		Due:               due,
		RecurringInterval: &interval,
	}

	// The poll fires exactly on an occurrence; the next due date must be
	// the following one, never the poll instant itself.
	now := due.AddDate(0, 0, 5)
	next := task.nextDueFrom(now)
	assert.True(t, next.After(now), "rescheduling for the poll instant would run the occurrence twice")
	assert.Equal(t, due.AddDate(0, 0, 6), next)
}

func TestRecurringExpenseNextOccurrenceStrictlyAfter(t *testing.T) {
	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	r := RecurringExpense{StartDate: start, RRule: "FREQ=MONTHLY"}

	// Querying at the very first occurrence yields the second one.
	next := r.nextOccurrenceFrom(start)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), next)
}
