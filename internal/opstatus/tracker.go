package opstatus

import (
	"fmt"
	"sync"

	"scorechain/internal/chain"
)

// State is the lifecycle phase of the current user-initiated operation.
type State int

const (
	StateIdle State = iota
	StateWriting
	StateReading
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWriting:
		return "writing"
	case StateReading:
		return "reading"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// UiState is an immutable snapshot handed to the presentation layer. Status
// and Record derive purely from the current state; nothing here is shared
// with the tracker's internals.
type UiState struct {
	State      State                 `json:"state"`
	Status     string                `json:"status"`
	InProgress bool                  `json:"inProgress"`
	TxHash     string                `json:"txHash,omitempty"`
	Record     *chain.BorrowerRecord `json:"record,omitempty"`
}

// Tracker follows the current operation through
// idle -> writing/reading -> done. A new operation may start from any
// state; overlapping operations race and the last completion wins. No
// terminal state, the tracker is reusable indefinitely.
type Tracker struct {
	mu     sync.Mutex
	state  State
	status string
	txHash string
	record *chain.BorrowerRecord
}

func NewTracker() *Tracker {
	return &Tracker{status: "Idle"}
}

func (t *Tracker) StartWrite() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateWriting
	t.status = "Submitting borrower update..."
	t.txHash = ""
	t.record = nil
}

func (t *Tracker) StartRead() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateReading
	t.status = "Fetching borrower details..."
	t.txHash = ""
	t.record = nil
}

func (t *Tracker) WriteSucceeded(txHash string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateDone
	t.status = fmt.Sprintf("Transaction submitted: %s", txHash)
	t.txHash = txHash
	t.record = nil
}

func (t *Tracker) WriteFailed(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateDone
	t.status = fmt.Sprintf("Write failed: %s", msg)
	t.txHash = ""
	t.record = nil
}

func (t *Tracker) ReadSucceeded(record chain.BorrowerRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateDone
	t.status = fmt.Sprintf("Borrower details loaded for %s", record.NID)
	t.txHash = ""
	t.record = &record
}

func (t *Tracker) ReadFailed(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateDone
	t.status = fmt.Sprintf("Read failed: %s", msg)
	t.txHash = ""
	t.record = nil
}

// Snapshot returns the current UiState. The record pointer is copied so
// later transitions cannot mutate a snapshot already handed out.
func (t *Tracker) Snapshot() UiState {
	t.mu.Lock()
	defer t.mu.Unlock()

	var rec *chain.BorrowerRecord
	if t.record != nil {
		cp := *t.record
		rec = &cp
	}
	return UiState{
		State:      t.state,
		Status:     t.status,
		InProgress: t.state == StateWriting || t.state == StateReading,
		TxHash:     t.txHash,
		Record:     rec,
	}
}
