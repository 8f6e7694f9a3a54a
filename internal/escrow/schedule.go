package escrow

import "time"

// AdvanceOnPayment returns the due date after one successful redemption.
// Exactly one interval is added even when several intervals have elapsed: a
// provider who redeems late forfeits the skipped intervals. Missed-interval
// backlog is intentionally not accumulated.
func AdvanceOnPayment(due time.Time, interval time.Duration) time.Time {
	return due.Add(interval)
}

// ExtendOnResume returns the due date after a pause that started at
// pauseStart is lifted at resumeAt. The schedule only ever moves forward;
// resuming before the pause started would shrink it and is refused.
func ExtendOnResume(due, pauseStart, resumeAt time.Time) (time.Time, error) {
	if resumeAt.Before(pauseStart) {
		return time.Time{}, reject(CodeNonMonotonicSchedule, "resume time precedes pause start")
	}
	return due.Add(resumeAt.Sub(pauseStart)), nil
}
