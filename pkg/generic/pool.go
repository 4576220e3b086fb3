// Package generic holds typed wrappers over untyped stdlib containers.
package generic

import "sync"

// Pool is a typed sync.Pool. The server reuses encode buffers through it so
// per-request JSON marshalling stays allocation-light.
type Pool[T any] struct {
	pool sync.Pool
}

// NewPool builds a pool that creates fresh values with generate.
func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

// NewHotPool pre-fills the pool with hotSize values so the first callers
// never pay the generate cost.
func NewHotPool[T any](generate func() T, hotSize int) *Pool[T] {
	p := NewPool[T](generate)
	for i := 0; i < hotSize; i++ {
		p.pool.Put(generate())
	}
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}
