// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import "sync"

type job struct {
	s     *State
	comps []int
}

// pool evaluates the components of large batches on several goroutines.
// Components only read committed net values and write their own pins, so
// the order of evaluation within a batch does not matter.
//
type pool struct {
	wc []chan job
	wg sync.WaitGroup
}

func newPool(workers int) *pool {
	p := &pool{wc: make([]chan job, workers)}
	for i := range p.wc {
		wc := make(chan job, 1)
		p.wc[i] = wc
		go p.worker(wc)
	}
	return p
}

func (p *pool) size() int { return len(p.wc) }

func (p *pool) worker(wc <-chan job) {
	for j := range wc {
		for _, ci := range j.comps {
			j.s.comps[ci].fn(j.s)
		}
		p.wg.Done()
	}
}

// run splits batch into chunks, one per worker, and waits for all of them to
// complete.
//
func (p *pool) run(s *State, batch []int) {
	size := len(batch) / len(p.wc)
	if size*len(p.wc) < len(batch) {
		size++
	}
	for i := 0; len(batch) > 0; i++ {
		n := size
		if n > len(batch) {
			n = len(batch)
		}
		p.wg.Add(1)
		p.wc[i] <- job{s, batch[:n]}
		batch = batch[n:]
	}
	p.wg.Wait()
}

// close stops worker goroutines.
//
func (p *pool) close() {
	for _, wc := range p.wc {
		close(wc)
	}
}
