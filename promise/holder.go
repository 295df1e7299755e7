package promise

import (
	"context"
)

// Holder keeps at most one pending promise. It is not goroutine-safe: it is
// meant to be owned by a single execution context.
type Holder[T any] struct {
	p *Promise[T]
}

// Ensure returns the pending promise, creating one if there is none.
func (h *Holder[T]) Ensure() *Promise[T] {
	if h.p == nil {
		h.p = New[T]()
	}
	return h.p
}

func (h *Holder[T]) IsEmpty() bool {
	return h.p == nil
}

// Resolve resolves the pending promise and empties the holder. It panics if
// the holder is empty.
func (h *Holder[T]) Resolve(ctx context.Context, v T) {
	if h.p == nil {
		panic("resolving an empty promise holder")
	}
	p := h.p
	h.p = nil
	p.Resolve(ctx, v)
}

func (h *Holder[T]) ResolveIfExists(ctx context.Context, v T) bool {
	if h.p == nil {
		return false
	}
	h.Resolve(ctx, v)
	return true
}

func (h *Holder[T]) RejectIfExists(ctx context.Context, err error) bool {
	if h.p == nil {
		return false
	}
	p := h.p
	h.p = nil
	p.Reject(ctx, err)
	return true
}
