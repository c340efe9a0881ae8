package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
)

// Entry lifecycle states. StateNoEntry is implicit: it is never stored.
const (
	StateNoEntry = "no_entry"
	StatePending = models.EntryStatusPending
	StatePosted  = models.EntryStatusPosted
)

// Entry lifecycle events
const (
	EventCreate     = "create"
	EventPatch      = "patch"
	EventSetDefault = "set_default"
	EventPost       = "post"
)

// ErrEntryPosted is returned for any event on a posted entry
var ErrEntryPosted = errors.New("entry is posted")

// EntryFSM wraps an adjustment entry with its state machine.
// A nil entry starts in StateNoEntry.
type EntryFSM struct {
	entry *models.AdjustmentEntry
	fsm   *fsm.FSM
}

// NewEntryFSM creates a new entry state machine
func NewEntryFSM(entry *models.AdjustmentEntry) *EntryFSM {
	initial := StateNoEntry
	if entry != nil {
		initial = entry.Status()
	}

	efsm := &EntryFSM{entry: entry}
	efsm.fsm = fsm.NewFSM(
		initial,
		fsm.Events{
			// no_entry → pending (create / create from default)
			{Name: EventCreate, Src: []string{StateNoEntry}, Dst: StatePending},

			// pending → pending
			{Name: EventPatch, Src: []string{StatePending}, Dst: StatePending},
			{Name: EventSetDefault, Src: []string{StatePending}, Dst: StatePending},

			// pending → posted (terminal)
			{Name: EventPost, Src: []string{StatePending}, Dst: StatePosted},
		},
		fsm.Callbacks{},
	)

	return efsm
}

// Current returns the current state
func (e *EntryFSM) Current() string {
	return e.fsm.Current()
}

// Create checks that no entry exists yet
func (e *EntryFSM) Create(ctx context.Context) error {
	if e.entry != nil {
		return fmt.Errorf("entry %d already exists", e.entry.ID)
	}
	return e.fire(ctx, EventCreate)
}

// Patch checks that a field of the entry may be changed
func (e *EntryFSM) Patch(ctx context.Context) error {
	if e.entry != nil && !e.entry.MayPatch() {
		return ErrEntryPosted
	}
	return e.fire(ctx, EventPatch)
}

// SetDefault checks that the entry may be promoted into its default template
func (e *EntryFSM) SetDefault(ctx context.Context) error {
	if e.entry != nil && !e.entry.MaySetDefault() {
		return ErrEntryPosted
	}
	return e.fire(ctx, EventSetDefault)
}

// Post transitions the entry to posted
func (e *EntryFSM) Post(ctx context.Context) error {
	if e.entry != nil && !e.entry.MayPost() {
		return ErrEntryPosted
	}
	if err := e.fire(ctx, EventPost); err != nil {
		return err
	}
	if e.entry != nil {
		e.entry.IsPosted = true
	}
	return nil
}

func (e *EntryFSM) fire(ctx context.Context, event string) error {
	err := e.fsm.Event(ctx, event)
	if err == nil {
		return nil
	}
	// Self transitions (pending → pending) report NoTransitionError on success
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	if e.fsm.Current() == StatePosted {
		return ErrEntryPosted
	}
	return fmt.Errorf("event %s not allowed in state %s: %w", event, e.fsm.Current(), err)
}
