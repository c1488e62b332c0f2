package asyncstate

import "context"

// Query wraps a read. Runs may overlap; the state always reflects the most
// recently started one.
type Query[T any] struct {
	m     machine[T]
	fetch func(context.Context) (T, error)
}

func NewQuery[T any](fetch func(context.Context) (T, error)) *Query[T] {
	return &Query[T]{fetch: fetch}
}

// Start fetches in the background. The returned channel closes when the
// fetch has settled or been superseded.
func (q *Query[T]) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Refetch(ctx)
	}()
	return done
}

// Refetch fetches and returns the state afterwards. If a newer run started
// meanwhile, this run's result is discarded.
func (q *Query[T]) Refetch(ctx context.Context) State[T] {
	gen := q.m.begin()
	settled := false
	defer func() {
		if !settled {
			q.m.settle(gen, func(s *State[T]) {
				s.Status = Failure
				s.Err = FallbackMessage
			})
		}
	}()

	data, err := q.fetch(ctx)
	settled = true
	q.m.settle(gen, func(s *State[T]) {
		if err != nil {
			s.Status = Failure
			s.Err = ErrorMessage(err)
			return
		}
		s.Status = Success
		s.Data = data
	})
	return q.m.snapshot()
}

func (q *Query[T]) State() State[T] { return q.m.snapshot() }

// Subscribe registers fn for every transition and returns its cancel func.
func (q *Query[T]) Subscribe(fn func(State[T])) func() { return q.m.subscribe(fn) }
