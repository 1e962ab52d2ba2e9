// Portions of this file's event-ordering scheme are adapted from
// minesim (c) 2020 Larry Ruane, distributed under the MIT license
// (https://www.opensource.org/licenses/mit-license.php).
package simnet

import "container/heap"

// Kind tags the closed set of event variants (spec §4.1). A tagged sum
// type, not a heterogeneous list, per the design notes' "Event payload
// polymorphism" guidance — this is the Go-idiomatic replacement for the
// Python prototype's `[peer, tag, ...]` lists.
type Kind int

const (
	KindTxGen Kind = iota
	KindTxRecv
	KindMineStart
	KindBlkBroadcast
	KindMineDoneHonest
	KindBlkRecv
	KindMineDoneAdversary
)

func (k Kind) String() string {
	switch k {
	case KindTxGen:
		return "TX_GEN"
	case KindTxRecv:
		return "TX_RECV"
	case KindMineStart:
		return "MINE_START"
	case KindBlkBroadcast:
		return "BLK_BROADCAST"
	case KindMineDoneHonest:
		return "MINE_DONE_HONEST"
	case KindBlkRecv:
		return "BLK_RECV"
	case KindMineDoneAdversary:
		return "MINE_DONE_ADVERSARY"
	default:
		return "UNKNOWN"
	}
}

// isBlockCreationEvent reports whether this kind counts toward the
// simulator's block-creation quota N (spec §4.1). Only completions count:
// KindMineStart is the beginning of a mining attempt, not a block, and
// counting it lets the quota be satisfied by the seeded initial
// MINE_START events before any real block has ever been produced.
func (k Kind) isBlockCreationEvent() bool {
	return k == KindMineDoneHonest || k == KindMineDoneAdversary
}

// Event is the scheduler's payload. Only the fields relevant to Kind are
// populated; callers switch on Kind before reading them.
type Event struct {
	Kind     Kind
	Time     float64
	Peer     PeerID
	Other    PeerID // TX_GEN receiver
	Tx       Transaction
	Block    Block
	candTxs  []Transaction // not populated: onMineDoneHonest picks the candidate's txs when the event fires
	seq      int64         // insertion sequence, set by Scheduler.Push
}

// heapItem wraps an Event for container/heap, ordering by (Time, seq) per
// spec §5's "strict (time, seq) ordering, ties broken by insertion order."
type heapItem struct {
	ev  Event
}

type eventHeap []heapItem

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].ev.Time != h[j].ev.Time {
		return h[i].ev.Time < h[j].ev.Time
	}
	return h[i].ev.seq < h[j].ev.seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(heapItem))
}
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler is the single min-heap of future events keyed by
// (time, insertion_sequence), grounded on LarryRuane-minesim's eventlist.
type Scheduler struct {
	h       eventHeap
	nextSeq int64
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{h: make(eventHeap, 0)}
}

// Push schedules ev to fire at ev.Time. O(log n).
func (s *Scheduler) Push(ev Event) {
	ev.seq = s.nextSeq
	s.nextSeq++
	heap.Push(&s.h, heapItem{ev: ev})
}

// Pop removes and returns the earliest-scheduled event. O(log n). The
// caller is responsible for advancing its notion of "now" to ev.Time.
func (s *Scheduler) Pop() (Event, bool) {
	if s.h.Len() == 0 {
		return Event{}, false
	}
	item := heap.Pop(&s.h).(heapItem)
	return item.ev, true
}

// Len reports the number of pending events.
func (s *Scheduler) Len() int { return s.h.Len() }
