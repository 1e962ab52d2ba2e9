package simnet

import (
	"math/rand"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
)

// seenCacheSize bounds the per-peer "already relayed" LRU used as a
// fast-path optimization on top of the authoritative neighbor-side
// membership check, so long runs (large N) do not grow this bookkeeping
// without bound.
const seenCacheSize = 4096

// Peer is a participant that validates, mines, and gossips (spec §3/§4.5).
// Cross-references to other peers are by PeerID, looked up through the
// owning Simulator's arena, per the design notes' guidance to avoid
// cyclic owning pointers.
type Peer struct {
	ID           PeerID
	IsSlow       bool
	HashFraction float64
	Neighbors    []PeerID

	Tree    *BlockTree
	Pool    *Mempool
	Balance int64
	IsMining bool

	txRNG  *rand.Rand
	blkRNG *rand.Rand

	seenBlocks *lru.Cache

	log logrus.FieldLogger
}

// NewPeer constructs a peer with a fresh BlockTree/Mempool and seeded RNG
// streams (design notes §9: one RNG per peer for mining/tx intervals).
func NewPeer(id PeerID, isSlow bool, hashFraction float64, neighbors []PeerID, seed int64, log logrus.FieldLogger) *Peer {
	cache, _ := lru.New(seenCacheSize)
	return &Peer{
		ID:           id,
		IsSlow:       isSlow,
		HashFraction: hashFraction,
		Neighbors:    neighbors,
		Tree:         NewBlockTree(),
		Pool:         NewMempool(),
		Balance:      defaultNewPeerBal,
		txRNG:        rand.New(rand.NewSource(seed)),
		blkRNG:       rand.New(rand.NewSource(seed + 1)),
		seenBlocks:   cache,
		log:          log.WithField("peer", int(id)),
	}
}

func (p *Peer) bothFast(other *Peer) bool { return !p.IsSlow && !other.IsSlow }

// generateTx implements spec §4.4's generate_tx. Suppressed (no tx
// emitted) if the peer's cached balance is below 1.
func (p *Peer) generateTx(sim *Simulator, receiver PeerID) {
	if p.Balance < 1 {
		return
	}
	amount := int64(1 + p.txRNG.Intn(int(p.Balance)))
	tx := Transaction{
		ID:        sim.Ids.Next(),
		Sender:    p.ID,
		Receiver:  receiver,
		Amount:    amount,
		CreatedAt: sim.Now,
	}
	p.Balance -= amount // optimistic; resynced from the chain tip by syncBalance
	p.log.WithFields(logrus.Fields{"tx": tx.ID, "amount": amount, "to": int(receiver)}).Debug("generated transaction")
	p.receiveTx(sim, tx)
}

// receiveTx adds tx to this peer's pool and the global universe, then
// gossips it onward (spec §4.4 UpdateTx / TX_RECV handler).
func (p *Peer) receiveTx(sim *Simulator, tx Transaction) {
	if !p.Pool.Add(tx) {
		return
	}
	sim.UTX.Add(tx)
	p.gossipTx(sim, tx)
}

// gossipTx schedules TX_RECV for every neighbor that does not already
// hold tx (spec §4.4 gossip_tx).
func (p *Peer) gossipTx(sim *Simulator, tx Transaction) {
	for _, nid := range p.Neighbors {
		n := sim.Peers[nid]
		if n.Pool.Has(tx.ID) {
			continue
		}
		d := sim.Link.TxDelay(p.ID, nid, p.bothFast(n))
		sim.Sched.Push(Event{
			Kind: KindTxRecv,
			Time: sim.Now + d,
			Peer: nid,
			Tx:   tx,
		})
	}
}

// findValidTxs implements spec §4.4's find_valid_txs: starting from the
// current longest-chain tip's balance snapshot, greedily accept UTX
// transactions (insertion order) whose application keeps both sender and
// receiver non-negative and whose timestamp does not exceed
// candidateTimestamp, stopping at maxTxPerBlock. Accepted txs are removed
// from UTX.
func (p *Peer) findValidTxs(sim *Simulator, candidateTimestamp float64) []Transaction {
	tip := p.Tree.LastBlock()
	bal := p.Tree.BalancesAt(tip.ID)
	var accepted []Transaction
	for _, tx := range sim.UTX.Snapshot() {
		if len(accepted) >= maxTxPerBlock {
			break
		}
		if tx.CreatedAt > candidateTimestamp {
			continue
		}
		if !applyTx(bal, tx) {
			continue
		}
		accepted = append(accepted, tx)
	}
	for _, tx := range accepted {
		sim.UTX.Remove(tx.ID)
	}
	return accepted
}

// startMining constructs a candidate block atop the current tip with
// empty content and schedules MINE_DONE_HONEST after an exponential delay
// with mean Tk/hashFraction (spec §4.5).
func (p *Peer) startMining(sim *Simulator) {
	parent := p.Tree.LastBlock()
	cand := Block{
		ID:        sim.Ids.Next(),
		ParentID:  parent.ID,
		Miner:     p.ID,
		CreatedAt: sim.Now,
	}
	mean := sim.Tk / p.HashFraction
	solve := p.blkRNG.ExpFloat64() * mean
	p.IsMining = true
	sim.Sched.Push(Event{
		Kind:  KindMineDoneHonest,
		Time:  sim.Now + solve,
		Peer:  p.ID,
		Block: cand,
	})
}

// onMineDoneHonest implements spec §4.5's MINE_DONE_HONEST handler.
func (p *Peer) onMineDoneHonest(sim *Simulator, cand Block) {
	tip := p.Tree.LastBlock()
	if cand.ParentID != tip.ID {
		// StaleCandidate: the tip moved while we were "mining". Restart
		// mining on the new tip; no txs were ever attached so nothing to
		// return to UTX.
		p.IsMining = false
		p.startMining(sim)
		return
	}
	cand.Txs = p.findValidTxs(sim, cand.CreatedAt)
	if !p.validate(cand) {
		sim.UTX.returnAll(cand.Txs)
		p.IsMining = false
		p.startMining(sim)
		return
	}
	if !p.Tree.AddBlock(cand, sim.Now) {
		sim.UTX.returnAll(cand.Txs)
		p.IsMining = false
		p.startMining(sim)
		return
	}
	p.syncBalance()
	p.IsMining = false
	p.log.WithFields(logrus.Fields{"block": cand.ID, "txs": len(cand.Txs)}).Info("mined block accepted")
	p.scheduleBroadcast(sim, cand)
	p.startMining(sim)
}

// validate implements spec §4.5's checkValidation / §4.3 block validation:
// fold the block's txs over balances[parent] with the same +100 default
// rule, rejecting if any balance would go negative.
func (p *Peer) validate(b Block) bool {
	parentBal, ok := p.Tree.balances[b.ParentID]
	if !ok {
		return false
	}
	bal := parentBal.clone()
	for _, tx := range b.Txs {
		if !applyTx(bal, tx) {
			return false
		}
	}
	return true
}

// syncBalance re-reads the cached balance from the current longest-chain
// tip (spec §9 Open Question 2: balance is resynced on every tip change,
// in addition to being set optimistically at generation time).
func (p *Peer) syncBalance() {
	tip := p.Tree.LastBlock()
	bal := p.Tree.BalancesAt(tip.ID)
	if v, ok := bal[p.ID]; ok {
		p.Balance = v
	} else {
		p.Balance = defaultNewPeerBal
	}
}

// scheduleBroadcast pushes a BLK_BROADCAST event for b at the current
// simulated time (spec §4.1's event table: block acceptance and neighbor
// fan-out are two distinct steps in the event stream).
func (p *Peer) scheduleBroadcast(sim *Simulator, b Block) {
	sim.Sched.Push(Event{
		Kind:  KindBlkBroadcast,
		Time:  sim.Now,
		Peer:  p.ID,
		Block: b,
	})
}

// doBroadcast is the BLK_BROADCAST handler: schedule BLK_RECV for every
// neighbor lacking the block (spec §4.5 gossip rule), fast-pathed through
// the local seenBlocks cache.
func (p *Peer) doBroadcast(sim *Simulator, b Block, arrivalTime float64) {
	if p.seenBlocks.Contains(b.ID) {
		return // already relayed by this peer
	}
	p.seenBlocks.Add(b.ID, struct{}{})
	for _, nid := range p.Neighbors {
		n := sim.Peers[nid]
		if n.Tree.Has(b.ID) {
			continue
		}
		d := sim.Link.BlockDelay(p.ID, nid, p.bothFast(n))
		sim.Sched.Push(Event{
			Kind:  KindBlkRecv,
			Time:  arrivalTime + d,
			Peer:  nid,
			Block: b,
		})
	}
}

// onBlkRecv implements spec §4.5's BLK_RECV handler (UpdateChain).
func (p *Peer) onBlkRecv(sim *Simulator, b Block, arrivalTime float64) {
	if p.Tree.Has(b.ID) {
		return // DuplicateBlock: silent drop
	}
	if !p.validate(b) {
		p.log.WithField("block", b.ID).Warn("rejected invalid block")
		return // NegativeBalance or UnknownParent: silent drop
	}
	if !p.Tree.AddBlock(b, arrivalTime) {
		p.log.WithField("block", b.ID).Warn("rejected block with unknown parent")
		return
	}
	p.syncBalance()
	p.scheduleBroadcast(sim, b)
	newTip := p.Tree.LastBlock().ID
	if b.ID != newTip {
		// Resolves spec §9 Open Question 1: a fork is logged when the
		// newly accepted block did not become the new tip, not the
		// inverted condition the original prototype printed under.
		p.log.WithFields(logrus.Fields{"block": b.ID, "tip": newTip}).Info("fork at peer: accepted block is not the new tip")
	}
	if !p.IsMining {
		p.startMining(sim)
	}
}
