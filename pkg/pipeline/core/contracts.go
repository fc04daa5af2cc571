package core

import "context"

// InputAdapter loads input records for pipeline processing.
type InputAdapter[In any] interface {
	Load(ctx context.Context) ([]In, error)
}

// OutputAdapter persists output records produced by pipeline processing.
type OutputAdapter[Out any] interface {
	Store(ctx context.Context, rows []Out) error
}

// InputFunc adapts a function to the InputAdapter interface.
type InputFunc[In any] func(ctx context.Context) ([]In, error)

func (f InputFunc[In]) Load(ctx context.Context) ([]In, error) {
	return f(ctx)
}

// OutputFunc adapts a function to the OutputAdapter interface.
type OutputFunc[Out any] func(ctx context.Context, rows []Out) error

func (f OutputFunc[Out]) Store(ctx context.Context, rows []Out) error {
	return f(ctx, rows)
}
