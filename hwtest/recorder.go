// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"sync"

	"github.com/db47h/gatesim"
)

// A Batch is a notification received by a Recorder.
//
type Batch struct {
	Tick    uint64
	Changes map[string]string // net name -> value
}

// Recorder is a gatesim.Observer that records change notifications for later
// inspection. The zero value is ready to use.
//
type Recorder struct {
	mu        sync.Mutex
	batches   []Batch
	conflicts []string
	halts     []*gatesim.OscillationError
}

// Changed implements gatesim.Observer.
func (r *Recorder) Changed(tick uint64, changes []gatesim.Change) {
	b := Batch{Tick: tick, Changes: make(map[string]string, len(changes))}
	for _, c := range changes {
		b.Changes[c.Net] = c.Value.String()
	}
	r.mu.Lock()
	r.batches = append(r.batches, b)
	r.mu.Unlock()
}

// Conflict implements gatesim.Observer.
func (r *Recorder) Conflict(tick uint64, nets []string) {
	r.mu.Lock()
	r.conflicts = append(r.conflicts, nets...)
	r.mu.Unlock()
}

// Halted implements gatesim.Observer.
func (r *Recorder) Halted(err *gatesim.OscillationError) {
	r.mu.Lock()
	r.halts = append(r.halts, err)
	r.mu.Unlock()
}

// Batches returns the recorded change notifications.
//
func (r *Recorder) Batches() []Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Batch(nil), r.batches...)
}

// Conflicts returns the names of the nets reported in conflict notifications.
//
func (r *Recorder) Conflicts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.conflicts...)
}

// Halts returns the recorded oscillations.
//
func (r *Recorder) Halts() []*gatesim.OscillationError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*gatesim.OscillationError(nil), r.halts...)
}

// History returns the successive values of the named net, as strings.
//
func (r *Recorder) History(net string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var h []string
	for _, b := range r.batches {
		if v, ok := b.Changes[net]; ok {
			h = append(h, v)
		}
	}
	return h
}

// Reset clears all recorded notifications.
//
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.batches, r.conflicts, r.halts = nil, nil, nil
	r.mu.Unlock()
}
