package models

// ComplaintStatus is the complaint state machine:
// PENDING -> IN_PROGRESS -> {RESOLVED, REJECTED}; PENDING is re-entered on transfer.
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "PENDING"
	StatusInProgress ComplaintStatus = "IN_PROGRESS"
	StatusResolved   ComplaintStatus = "RESOLVED"
	StatusRejected   ComplaintStatus = "REJECTED"
)

// AllStatuses lists the statuses in lifecycle order
var AllStatuses = []ComplaintStatus{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

// Valid reports whether s is a known status
func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// HistoryAction tags a ledger row
type HistoryAction string

const (
	ActionSubmitted   HistoryAction = "SUBMITTED"
	ActionAssigned    HistoryAction = "ASSIGNED"
	ActionReassigned  HistoryAction = "REASSIGNED"
	ActionTransferred HistoryAction = "TRANSFERRED"
	ActionInProgress  HistoryAction = "IN_PROGRESS"
	ActionResolved    HistoryAction = "RESOLVED"
	ActionRejected    HistoryAction = "REJECTED"
)

// HistoryActionForStatus maps a status-transition target to its ledger action.
// PENDING has no action: it is only re-entered through a transfer.
func HistoryActionForStatus(s ComplaintStatus) (HistoryAction, bool) {
	switch s {
	case StatusInProgress:
		return ActionInProgress, true
	case StatusResolved:
		return ActionResolved, true
	case StatusRejected:
		return ActionRejected, true
	case StatusPending:
		return "", false
	}
	return "", false
}
