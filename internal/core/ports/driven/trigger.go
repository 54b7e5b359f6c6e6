package driven

import "time"

// TriggerScheduler schedules one-shot future invocations of the mirror
// queue drain for a document. At most one trigger is pending per
// document: scheduling again replaces the previous one, and Cancel
// removes it so a stale trigger cannot drain a replaced queue.
type TriggerScheduler interface {
	// Schedule arranges for the drain handler to fire after delay
	Schedule(documentID string, delay time.Duration)

	// Cancel removes any pending trigger for the document
	Cancel(documentID string)
}
