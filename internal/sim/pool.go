package sim

import "sync"

// FramePool recycles body-state buffers between sampled frames.
type FramePool struct {
	pool sync.Pool
}

func NewFramePool() *FramePool {
	return &FramePool{
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]BodyState, 0, 16)
				return &s
			},
		},
	}
}

// Get returns a zeroed buffer of length n.
func (p *FramePool) Get(n int) []BodyState {
	sp := p.pool.Get().(*[]BodyState)
	s := *sp
	if cap(s) < n {
		s = make([]BodyState, n)
	}
	s = s[:n]
	clear(s)
	return s
}

func (p *FramePool) Put(s []BodyState) {
	if s == nil {
		return
	}
	s = s[:0]
	p.pool.Put(&s)
}
