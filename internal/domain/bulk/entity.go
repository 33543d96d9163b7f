package bulk

import "time"

type Kind string

const (
	KindCreatePunches   Kind = "create_punches"
	KindDeletePunches   Kind = "delete_punches"
	KindDeleteRecords   Kind = "delete_records"
	KindInsertAbsences  Kind = "insert_absences"
	KindInsertOvertimes Kind = "insert_overtimes"
)

// ItemState follows pending -> in_flight -> succeeded | failed. There are no
// retries inside the coordinator.
type ItemState string

const (
	StatePending   ItemState = "pending"
	StateInFlight  ItemState = "in_flight"
	StateSucceeded ItemState = "succeeded"
	StateFailed    ItemState = "failed"
)

// MaxFailureDetails caps the per-item reasons returned in a summary.
const MaxFailureDetails = 5

// Item is one (employee, day) mutation of a batch.
type Item struct {
	Target Target
	State  ItemState
	Reason string

	// Linked is a side-effect mutation tracked separately but reported with
	// its parent, such as the meal-subsidy offset absence.
	Linked *Item
}

func NewItem(target Target) *Item {
	return &Item{Target: target, State: StatePending}
}

func (i *Item) Start() {
	if i.State == StatePending {
		i.State = StateInFlight
	}
}

func (i *Item) Succeed() {
	if i.State == StateInFlight {
		i.State = StateSucceeded
	}
}

func (i *Item) Fail(err error) {
	if i.State == StateInFlight {
		i.State = StateFailed
		i.Reason = err.Error()
	}
}

type FailureDetail struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
	Linked bool   `json:"linked,omitempty"`
}

type Summary struct {
	OperationID     string          `json:"operation_id"`
	Kind            Kind            `json:"kind"`
	Total           int             `json:"total"`
	SucceededCount  int             `json:"succeeded_count"`
	FailedCount     int             `json:"failed_count"`
	LinkedSucceeded int             `json:"linked_succeeded,omitempty"`
	LinkedFailed    int             `json:"linked_failed,omitempty"`
	FailureDetails  []FailureDetail `json:"failure_details,omitempty"`
	MoreFailures    int             `json:"more_failures,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
}

// Record folds a finished item into the summary.
func (s *Summary) Record(item *Item) {
	switch item.State {
	case StateSucceeded:
		s.SucceededCount++
	case StateFailed:
		s.FailedCount++
		s.addFailure(item, false)
	}

	if item.Linked == nil {
		return
	}
	switch item.Linked.State {
	case StateSucceeded:
		s.LinkedSucceeded++
	case StateFailed:
		s.LinkedFailed++
		s.addFailure(item.Linked, true)
	}
}

func (s *Summary) addFailure(item *Item, linked bool) {
	if len(s.FailureDetails) >= MaxFailureDetails {
		s.MoreFailures++
		return
	}
	s.FailureDetails = append(s.FailureDetails, FailureDetail{
		UserID: item.Target.UserID,
		Date:   item.Target.Date,
		Reason: item.Reason,
		Linked: linked,
	})
}

// Progress event names published to the initiating administrator.
const (
	EventStarted   = "bulk.started"
	EventItem      = "bulk.item"
	EventCompleted = "bulk.completed"
)

type ItemEvent struct {
	OperationID string    `json:"operation_id"`
	Index       int       `json:"index"`
	Total       int       `json:"total"`
	UserID      string    `json:"user_id"`
	Date        string    `json:"date"`
	State       ItemState `json:"state"`
	Reason      string    `json:"reason,omitempty"`
}
