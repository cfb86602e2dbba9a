package pipeline

import (
	"fmt"
	"os"
)

// pipePair is one inter-stage pipe: pair k joins stage k's stdout to
// stage k+1's stdin. Each end has exactly one owner at any time; the
// parent closes its copy of an end as soon as the owning child has it.
type pipePair struct {
	r, w *os.File
}

func (p *pipePair) closeRead() {
	if p.r != nil {
		p.r.Close()
		p.r = nil
	}
}

func (p *pipePair) closeWrite() {
	if p.w != nil {
		p.w.Close()
		p.w = nil
	}
}

// fabric owns the N-1 pipes of an N stage pipeline.
type fabric struct {
	pairs []pipePair
}

// newFabric allocates every inter-stage pipe up front. On any allocation
// failure all earlier pipes are closed and nothing leaks.
func newFabric(stages int) (*fabric, error) {
	f := &fabric{pairs: make([]pipePair, 0, stages-1)}
	for i := 0; i < stages-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			f.closeAll()
			return nil, fmt.Errorf("mish: pipe allocation failed: %w", err)
		}
		f.pairs = append(f.pairs, pipePair{r: r, w: w})
	}
	return f, nil
}

// stdinFor returns the read end feeding stage i, or nil for stage 0.
func (f *fabric) stdinFor(i int) *os.File {
	if i == 0 {
		return nil
	}
	return f.pairs[i-1].r
}

// stdoutFor returns the write end draining stage i, or nil for the last
// stage.
func (f *fabric) stdoutFor(i int) *os.File {
	if i >= len(f.pairs) {
		return nil
	}
	return f.pairs[i].w
}

// release closes the parent's copies of the endpoints handed to stage i.
// Called right after the stage is spawned (or marked failed) so that once
// every stage is launched the parent holds no pipe handles at all.
func (f *fabric) release(i int) {
	if i > 0 {
		f.pairs[i-1].closeRead()
	}
	if i < len(f.pairs) {
		f.pairs[i].closeWrite()
	}
}

// closeAll closes whatever endpoints the parent still holds. Safe to call
// repeatedly; used on abort paths so no descriptor outlives the pipeline.
func (f *fabric) closeAll() {
	for i := range f.pairs {
		f.pairs[i].closeRead()
		f.pairs[i].closeWrite()
	}
}
