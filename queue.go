// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import "container/heap"

// An event schedules the evaluation of a component at a given tick.
//
type event struct {
	tick uint64
	seq  uint64
	comp int
}

type eventKey struct {
	tick uint64
	comp int
}

// events is a min-heap of events ordered by tick, then by insertion order.
//
type events []event

func (h events) Len() int { return len(h) }
func (h events) Less(i, j int) bool {
	if h[i].tick != h[j].tick {
		return h[i].tick < h[j].tick
	}
	return h[i].seq < h[j].seq
}
func (h events) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *events) Push(x interface{}) { *h = append(*h, x.(event)) }
func (h *events) Pop() interface{} {
	old := *h
	e := old[len(old)-1]
	*h = old[:len(old)-1]
	return e
}

// queue is the event queue of a State. A component is queued at most once
// per tick.
//
type queue struct {
	h       events
	seq     uint64
	pending map[eventKey]struct{}
}

func newQueue() queue {
	return queue{pending: make(map[eventKey]struct{})}
}

func (q *queue) Len() int { return len(q.h) }

func (q *queue) push(tick uint64, comp int) {
	k := eventKey{tick, comp}
	if _, ok := q.pending[k]; ok {
		return
	}
	q.pending[k] = struct{}{}
	heap.Push(&q.h, event{tick: tick, seq: q.seq, comp: comp})
	q.seq++
}

// popBatch removes all events scheduled for the lowest pending tick and
// appends their components to batch, in scheduling order.
//
func (q *queue) popBatch(batch []int) (uint64, []int) {
	tick := q.h[0].tick
	for len(q.h) > 0 && q.h[0].tick == tick {
		e := heap.Pop(&q.h).(event)
		delete(q.pending, eventKey{e.tick, e.comp})
		batch = append(batch, e.comp)
	}
	return tick, batch
}
