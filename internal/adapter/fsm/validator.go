package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// events converts domain.Transitions into looplab/fsm EventDesc format.
// Rows sharing a transition name and destination collapse into one EventDesc
// with several sources (CANCEL from draft, sent and pending_signature).
var events = buildEvents()

func buildEvents() []loopfsm.EventDesc {
	type key struct {
		name string
		dst  string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range domain.Transitions {
		k := key{name: string(t.Name), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.name,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm. looplab
// machines hold their current state, so each call builds a short-lived
// machine seeded with the lease's status.
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply returns the destination of name from current, or a
// *domain.TransitionError when the table has no such edge.
func (v *Validator) Apply(ctx context.Context, current domain.Status, name domain.TransitionName) (domain.Status, error) {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(name)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{
				Transition: name,
				Current:    current,
			}
		}
		return "", err
	}

	return domain.Status(machine.Current()), nil
}

// Permitted lists the transitions looplab allows from current, in table order.
// Guards are not considered.
func (v *Validator) Permitted(current domain.Status) []domain.TransitionName {
	machine := loopfsm.NewFSM(string(current), events, nil)

	out := make([]domain.TransitionName, 0)
	for _, name := range domain.TransitionNames {
		if machine.Can(string(name)) {
			out = append(out, name)
		}
	}
	return out
}
