package simnet

// Adversary specializes Peer with the selfish-mining strategy (spec §4.6).
// Adversaries are always peers 0 and 1 under a selfish-mining run.
type Adversary struct {
	*Peer

	PrivateSuffix []Block // mined privately, not yet released
	PrivateAnchor string  // id of the public block the private suffix starts from
	State0        bool    // "0'" position: released and tied the public chain at lead 0
}

// NewAdversary wraps peer as a selfish miner anchored at genesis.
func NewAdversary(peer *Peer) *Adversary {
	return &Adversary{
		Peer:          peer,
		PrivateAnchor: GenesisBlockID,
	}
}

// startMining mines atop the tip of the private suffix if non-empty, else
// atop private_anchor (spec §4.6 "Mining"). Schedules
// MINE_DONE_ADVERSARY instead of the honest variant.
func (a *Adversary) startMining(sim *Simulator) {
	parentID := a.PrivateAnchor
	if n := len(a.PrivateSuffix); n > 0 {
		parentID = a.PrivateSuffix[n-1].ID
	}
	cand := Block{
		ID:        sim.Ids.Next(),
		ParentID:  parentID,
		Miner:     a.ID,
		CreatedAt: sim.Now,
	}
	mean := sim.Tk / a.HashFraction
	solve := a.blkRNG.ExpFloat64() * mean
	a.IsMining = true
	sim.Sched.Push(Event{
		Kind:  KindMineDoneAdversary,
		Time:  sim.Now + solve,
		Peer:  a.ID,
		Block: cand,
	})
}

// onMineDoneAdversary implements spec §4.6's "On own MINE_DONE_ADVERSARY".
func (a *Adversary) onMineDoneAdversary(sim *Simulator, b Block) {
	if a.State0 && b.ParentID == a.PrivateAnchor {
		// State 0' -> 0: release immediately.
		if a.release(sim, b) {
			a.PrivateAnchor = b.ID
			a.State0 = false
		}
	} else if len(a.PrivateSuffix) > 0 || b.ParentID == a.PrivateAnchor {
		a.PrivateSuffix = append(a.PrivateSuffix, b)
	}
	// else: b's parent was an anchor abandoned by a lead<0 reset (onBlkRecv)
	// while b was still mining; b is stale and silently dropped rather than
	// corrupting PrivateSuffix's chain-of-custody from PrivateAnchor.
	a.startMining(sim)
}

// release adds b to the adversary's own tree and broadcasts it to
// neighbors — the only path by which an adversary ever emits
// BLK_BROADCAST (spec §4.6's closing note: outbound gossip is suppressed
// except for chosen releases).
func (a *Adversary) release(sim *Simulator, b Block) bool {
	if !a.Tree.AddBlock(b, sim.Now) {
		return false
	}
	a.syncBalance()
	a.scheduleBroadcast(sim, b)
	a.log.WithField("block", b.ID).Info("adversary released private block")
	return true
}

// onBlkRecv implements spec §4.6's adversary override of BLK_RECV: run
// normal validation/append, then react to the resulting lead. The
// adversary never relays blocks mined by others (Peer.scheduleBroadcast is
// not called here for b itself).
func (a *Adversary) onBlkRecv(sim *Simulator, b Block, arrivalTime float64) {
	if a.Tree.Has(b.ID) {
		return
	}
	if !a.validate(b) {
		a.log.WithField("block", b.ID).Warn("adversary rejected invalid public block")
		return
	}
	oldTip := a.Tree.LastBlock().ID
	if !a.Tree.AddBlock(b, arrivalTime) {
		return
	}
	a.syncBalance()
	newTip := a.Tree.LastBlock().ID
	if newTip == oldTip {
		return // public longest chain did not change
	}

	lead := a.Tree.DepthOf(a.PrivateAnchor) + len(a.PrivateSuffix) - a.Tree.DepthOf(newTip)
	switch {
	case lead >= 2:
		if len(a.PrivateSuffix) > 0 {
			head := a.PrivateSuffix[0]
			if a.release(sim, head) {
				a.PrivateAnchor = head.ID
				a.PrivateSuffix = a.PrivateSuffix[1:]
			}
		}
	case lead == 1:
		a.releaseAll(sim)
	case lead == 0:
		a.releaseAll(sim)
		a.State0 = true
		a.log.Info("adversary entered state 0'")
	default: // lead < 0
		a.State0 = false
		a.PrivateSuffix = nil
		a.PrivateAnchor = newTip
	}
}

// releaseAll releases the entire private suffix in order, moving
// private_anchor to the last released block's id (spec §4.6 lead==1 and
// lead==0 branches).
func (a *Adversary) releaseAll(sim *Simulator) {
	for _, blk := range a.PrivateSuffix {
		a.release(sim, blk)
	}
	if n := len(a.PrivateSuffix); n > 0 {
		a.PrivateAnchor = a.PrivateSuffix[n-1].ID
	}
	a.PrivateSuffix = nil
}
