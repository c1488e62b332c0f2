package asyncstate

import "context"

// Action wraps a mutation taking params P.
type Action[P, T any] struct {
	m  machine[T]
	fn func(context.Context, P) (T, error)
}

func NewAction[P, T any](fn func(context.Context, P) (T, error)) *Action[P, T] {
	return &Action[P, T]{fn: fn}
}

// Execute runs the mutation. The bool is false on failure, in which case the
// error message is in State().Err and the previous data is kept.
func (a *Action[P, T]) Execute(ctx context.Context, params P) (T, bool) {
	gen := a.m.begin()
	settled := false
	defer func() {
		if !settled {
			a.m.settle(gen, func(s *State[T]) {
				s.Status = Failure
				s.Err = FallbackMessage
			})
		}
	}()

	data, err := a.fn(ctx, params)
	settled = true
	if err != nil {
		a.m.settle(gen, func(s *State[T]) {
			s.Status = Failure
			s.Err = ErrorMessage(err)
		})
		var zero T
		return zero, false
	}
	a.m.settle(gen, func(s *State[T]) {
		s.Status = Success
		s.Data = data
	})
	return data, true
}

// Reset returns to Idle. A run still in flight no longer updates the state.
func (a *Action[P, T]) Reset() { a.m.reset() }

func (a *Action[P, T]) State() State[T] { return a.m.snapshot() }

// Subscribe registers fn for every transition and returns its cancel func.
func (a *Action[P, T]) Subscribe(fn func(State[T])) func() { return a.m.subscribe(fn) }
