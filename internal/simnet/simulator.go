package simnet

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Simulator wires together the scheduler, link model, id generator, the
// peer arena, and the global UTX/now state, then drives the event loop to
// completion (spec §2's "Simulator" component).
type Simulator struct {
	Now   float64
	Sched *Scheduler
	UTX   *UTXPool
	Ids   *IdGen
	Link  *LinkModel

	Peers       map[PeerID]*Peer
	Adversaries map[PeerID]*Adversary
	order       []PeerID // 0..n-1, for picking random tx receivers deterministically

	Ttx   float64
	Tk    float64
	Quota int

	blockEvents int
	globalRNG   *rand.Rand
	log         logrus.FieldLogger
}

func newSimulator(n int, ttx, tk float64, quota int, seed int64, log logrus.FieldLogger) *Simulator {
	order := make([]PeerID, n)
	for i := range order {
		order[i] = PeerID(i)
	}
	return &Simulator{
		Sched:       NewScheduler(),
		UTX:         NewUTXPool(),
		Ids:         NewIdGen(),
		Link:        NewLinkModel(rand.New(rand.NewSource(seed))),
		Peers:       make(map[PeerID]*Peer, n),
		Adversaries: make(map[PeerID]*Adversary),
		order:       order,
		Ttx:         ttx,
		Tk:          tk,
		Quota:       quota,
		globalRNG:   rand.New(rand.NewSource(seed + 1000)),
		log:         log,
	}
}

func (s *Simulator) isAdversary(id PeerID) bool {
	_, ok := s.Adversaries[id]
	return ok
}

// randomOtherPeer picks a uniformly random peer id distinct from self,
// using the simulator's global RNG stream (design notes §9: "one global
// [RNG] for adversary-independent choices").
func (s *Simulator) randomOtherPeer(self PeerID) PeerID {
	n := len(s.order)
	for {
		cand := PeerID(s.globalRNG.Intn(n))
		if cand != self {
			return cand
		}
	}
}

// NewHonestSimulator builds a simulator for an honest-only run (spec §6).
// neighbors[i] lists peer i's neighbor ids, supplied by the external
// overlay builder.
func NewHonestSimulator(cfg Config, neighbors [][]PeerID, seed int64, log logrus.FieldLogger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(neighbors) != cfg.N {
		return nil, errWrap(ErrInvalidConfig, "neighbor list length must equal n")
	}
	sim := newSimulator(cfg.N, cfg.Ttx, cfg.Tk, cfg.BlockQuota(), seed, log)

	numLow := int(cfg.Z1 / 100 * float64(cfg.N))
	numSlow := int(cfg.Z0 / 100 * float64(cfg.N))
	lowMask := shuffledBoolMask(cfg.N, numLow, rand.New(rand.NewSource(seed+2000)))
	slowMask := shuffledBoolMask(cfg.N, numSlow, rand.New(rand.NewSource(seed+3000)))

	totalWeight := 0.0
	weight := make([]float64, cfg.N)
	for i := 0; i < cfg.N; i++ {
		w := 10.0
		if lowMask[i] {
			w = 1.0
		}
		weight[i] = w
		totalWeight += w
	}

	for i := 0; i < cfg.N; i++ {
		id := PeerID(i)
		hf := weight[i] / totalWeight
		p := NewPeer(id, slowMask[i], hf, neighbors[i], seed+int64(i)*7+1, log)
		sim.Peers[id] = p
	}
	sim.seedInitialEvents()
	return sim, nil
}

// NewSelfishSimulator builds a simulator for a selfish-mining run (spec
// §6). Peers 0 and 1 are always the two adversaries.
func NewSelfishSimulator(cfg SelfishConfig, neighbors [][]PeerID, seed int64, log logrus.FieldLogger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(neighbors) != cfg.N {
		return nil, errWrap(ErrInvalidConfig, "neighbor list length must equal n")
	}
	sim := newSimulator(cfg.N, cfg.Ttx, cfg.Tk, cfg.BlockQuota(), seed, log)

	honestCount := cfg.N - 2
	remaining := (100 - cfg.C1 - cfg.C2) / 100
	var perHonest float64
	if honestCount > 0 {
		perHonest = remaining / float64(honestCount)
	}
	numSlow := honestCount / 2

	for i := 0; i < cfg.N; i++ {
		id := PeerID(i)
		var hf float64
		var isSlow bool
		switch id {
		case 0:
			hf = cfg.C1 / 100
			isSlow = false
		case 1:
			hf = cfg.C2 / 100
			isSlow = false
		default:
			hf = perHonest
			isSlow = (i - 2) < numSlow
		}
		p := NewPeer(id, isSlow, hf, neighbors[i], seed+int64(i)*7+1, log)
		sim.Peers[id] = p
		if id == 0 || id == 1 {
			sim.Adversaries[id] = NewAdversary(p)
		}
	}
	sim.seedInitialEvents()
	return sim, nil
}

// shuffledBoolMask returns an n-length bool slice with exactly `count`
// entries true, at positions chosen by a Fisher-Yates shuffle of [0,n).
func shuffledBoolMask(n, count int, rng *rand.Rand) []bool {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	mask := make([]bool, n)
	if count > n {
		count = n
	}
	for i := 0; i < count; i++ {
		mask[idx[i]] = true
	}
	return mask
}

// seedInitialEvents schedules, for every peer (adversary or honest alike),
// the first TX_GEN and the initial MINE_START (spec §6's implicit "all
// peers start at time zero"; spec §4.1's event table does not exempt
// adversaries from the one-shot initial MINE_START seed, only from
// MINE_DONE_HONEST).
func (s *Simulator) seedInitialEvents() {
	for _, id := range s.order {
		receiver := s.randomOtherPeer(id)
		s.Sched.Push(Event{Kind: KindTxGen, Time: 0, Peer: id, Other: receiver})
	}
	for _, id := range s.order {
		s.Sched.Push(Event{Kind: KindMineStart, Time: 0, Peer: id})
	}
}

// Run drives the event loop until the block-creation quota is reached,
// then drains any remaining BLK_BROADCAST/BLK_RECV events so all
// in-flight blocks settle (spec §4.1).
func (s *Simulator) Run() {
	for s.blockEvents < s.Quota {
		ev, ok := s.Sched.Pop()
		if !ok {
			return
		}
		s.Now = ev.Time
		s.dispatch(ev)
		if ev.Kind.isBlockCreationEvent() {
			s.blockEvents++
		}
	}
	s.drain()
}

// drain processes only propagation events (spec §4.1's drain phase).
// Mining and tx events still in the heap, including any that a BLK_RECV
// handled here schedules (an idle peer restarts mining when it accepts a
// block), are popped and discarded, so the drain phase only ever settles
// gossip.
func (s *Simulator) drain() {
	for {
		ev, ok := s.Sched.Pop()
		if !ok {
			return
		}
		s.Now = ev.Time
		switch ev.Kind {
		case KindBlkBroadcast, KindBlkRecv:
			s.dispatch(ev)
		default:
			// drop: mining/tx events don't matter once we've stopped
			// counting toward the quota.
		}
	}
}

func (s *Simulator) dispatch(ev Event) {
	switch ev.Kind {
	case KindTxGen:
		p := s.Peers[ev.Peer]
		p.generateTx(s, ev.Other)
		next := s.randomOtherPeer(ev.Peer)
		s.Sched.Push(Event{
			Kind:  KindTxGen,
			Time:  s.Now + p.txRNG.ExpFloat64()*s.Ttx,
			Peer:  ev.Peer,
			Other: next,
		})

	case KindTxRecv:
		s.Peers[ev.Peer].receiveTx(s, ev.Tx)

	case KindMineStart:
		if adv, ok := s.Adversaries[ev.Peer]; ok {
			adv.startMining(s)
		} else {
			s.Peers[ev.Peer].startMining(s)
		}

	case KindBlkBroadcast:
		s.Peers[ev.Peer].doBroadcast(s, ev.Block, ev.Time)

	case KindMineDoneHonest:
		s.Peers[ev.Peer].onMineDoneHonest(s, ev.Block)

	case KindBlkRecv:
		if adv, ok := s.Adversaries[ev.Peer]; ok {
			adv.onBlkRecv(s, ev.Block, ev.Time)
		} else {
			s.Peers[ev.Peer].onBlkRecv(s, ev.Block, ev.Time)
		}

	case KindMineDoneAdversary:
		s.Adversaries[ev.Peer].onMineDoneAdversary(s, ev.Block)
	}
}
