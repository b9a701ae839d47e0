package indicator

import (
	"context"
	"sync"
)

// Edge is a single change recorded by a Recorder.
type Edge struct {
	Set  bool
	Mask uint32
}

// Recorder is an in-memory Port that records every edge. It is used for dry runs and
// tests.
type Recorder struct {
	mx      sync.Mutex
	state   uint32
	edges   []Edge
	inited  bool
	SetErr  error
	InitErr error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Init(ctx context.Context) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.InitErr != nil {
		return r.InitErr
	}
	r.state = 0
	r.inited = true
	return nil
}

func (r *Recorder) Set(ctx context.Context, mask uint32) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.SetErr != nil {
		return r.SetErr
	}
	r.state |= mask
	r.edges = append(r.edges, Edge{Set: true, Mask: mask})
	return nil
}

func (r *Recorder) Clear(ctx context.Context, mask uint32) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.state &^= mask
	r.edges = append(r.edges, Edge{Set: false, Mask: mask})
	return nil
}

func (r *Recorder) State() uint32 {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.state
}

func (r *Recorder) Edges() []Edge {
	r.mx.Lock()
	defer r.mx.Unlock()
	return append([]Edge(nil), r.edges...)
}

func (r *Recorder) Initialized() bool {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.inited
}
