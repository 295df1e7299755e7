package executor

import (
	"context"
)

// DoR1 runs fn on the executor and waits for its result. If the caller is
// already on the executor, fn is called inline.
func DoR1[R any](
	ctx context.Context,
	s *Serial,
	name string,
	fn func(context.Context) R,
) (_ret R, _err error) {
	if s.IsCurrent() {
		return fn(ctx), nil
	}

	resultCh := make(chan R, 1)
	err := s.Dispatch(ctx, name, func(ctx context.Context) {
		resultCh <- fn(ctx)
	})
	if err != nil {
		return _ret, err
	}

	select {
	case r := <-resultCh:
		return r, nil
	case <-s.Done():
		select {
		case r := <-resultCh:
			return r, nil
		default:
			return _ret, ErrClosed{Executor: s.name}
		}
	case <-ctx.Done():
		return _ret, ctx.Err()
	}
}

// Do is DoR1 without a result.
func Do(
	ctx context.Context,
	s *Serial,
	name string,
	fn func(context.Context),
) error {
	_, err := DoR1(ctx, s, name, func(ctx context.Context) struct{} {
		fn(ctx)
		return struct{}{}
	})
	return err
}

// RunOrDispatch calls fn inline when already on the executor, otherwise
// dispatches it without waiting.
func RunOrDispatch(
	ctx context.Context,
	s *Serial,
	name string,
	fn func(context.Context),
) error {
	if s.IsCurrent() {
		fn(ctx)
		return nil
	}
	return s.Dispatch(ctx, name, fn)
}
