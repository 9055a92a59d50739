package wizard

import (
	"fmt"
	"sync"

	"coach-hub/internal/common/errors"
)

// FormState is the save state of a product form.
type FormState string

const (
	FormIdle   FormState = "idle"
	FormDirty  FormState = "dirty"
	FormSaving FormState = "saving"
	FormSaved  FormState = "saved"
	FormError  FormState = "error"
)

// FormEvent drives a form between states.
type FormEvent string

const (
	EventEdit    FormEvent = "edit"
	EventSave    FormEvent = "save"
	EventSucceed FormEvent = "succeed"
	EventFail    FormEvent = "fail"
)

var formTransitions = map[FormState]map[FormEvent]FormState{
	FormIdle:   {EventEdit: FormDirty},
	FormDirty:  {EventEdit: FormDirty, EventSave: FormSaving},
	FormSaving: {EventSucceed: FormSaved, EventFail: FormError},
	FormSaved:  {EventEdit: FormDirty},
	FormError:  {EventSave: FormSaving, EventEdit: FormDirty},
}

// Form is the save state machine of one form. It is safe for concurrent use.
type Form struct {
	mu      sync.Mutex
	state   FormState
	lastErr string
}

// NewForm returns a form in the idle state.
func NewForm() *Form {
	return &Form{state: FormIdle}
}

// State returns the current state.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// HasChanges reports whether there are unsaved edits.
func (f *Form) HasChanges() bool {
	switch f.State() {
	case FormDirty, FormError:
		return true
	default:
		return false
	}
}

// LastError is the message recorded by the last failed save.
func (f *Form) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Fire applies an event, rejecting transitions the table does not allow.
func (f *Form) Fire(event FormEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fireLocked(event)
}

func (f *Form) fireLocked(event FormEvent) error {
	next, ok := formTransitions[f.state][event]
	if !ok {
		return errors.PreconditionError(fmt.Sprintf("cannot %s a form that is %s", event, f.state)).
			WithContext("state", string(f.state)).
			WithContext("event", string(event))
	}
	f.state = next
	if next != FormError {
		f.lastErr = ""
	}
	return nil
}

// Edit marks the form dirty.
func (f *Form) Edit() error {
	return f.Fire(EventEdit)
}

// Save runs save while the form is in the saving state and settles it to
// saved or error from save's result.
func (f *Form) Save(save func() error) error {
	if err := f.Fire(EventSave); err != nil {
		return err
	}

	saveErr := save()

	f.mu.Lock()
	defer f.mu.Unlock()
	if saveErr != nil {
		_ = f.fireLocked(EventFail)
		f.lastErr = errors.UserMessage(saveErr)
		return saveErr
	}
	return f.fireLocked(EventSucceed)
}
