package simnet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAdversary(sim *Simulator, id PeerID) *Adversary {
	p := sim.Peers[id]
	adv := NewAdversary(p)
	sim.Adversaries[id] = adv
	return adv
}

func TestAdversaryStartMiningMinesAtopPrivateSuffixTip(t *testing.T) {
	sim := newTestSim(3, 10, 10, 10)
	adv := newTestAdversary(sim, 0)
	priv := mkBlock("priv1", GenesisBlockID, 0)
	adv.PrivateSuffix = []Block{priv}

	adv.startMining(sim)

	ev, ok := sim.Sched.Pop()
	require.True(t, ok)
	require.Equal(t, KindMineDoneAdversary, ev.Kind)
	require.Equal(t, "priv1", ev.Block.ParentID)
}

// TestAdversaryLeadTwoReleasesOnlyOldestPrivateBlock covers spec §4.6's
// lead>=2 branch: only the head of the private suffix is released.
func TestAdversaryLeadTwoReleasesOnlyOldestPrivateBlock(t *testing.T) {
	sim := newTestSim(3, 10, 10, 10)
	adv := newTestAdversary(sim, 0)

	b1 := mkBlock("p1", GenesisBlockID, 0)
	b2 := mkBlock("p2", "p1", 0)
	b3 := mkBlock("p3", "p2", 0)
	adv.PrivateSuffix = []Block{b1, b2, b3}
	adv.PrivateAnchor = GenesisBlockID

	pub := mkBlock("pub1", GenesisBlockID, 1)
	adv.onBlkRecv(sim, pub, 5)

	// lead = depth(anchor=genesis,1) + 3 - depth(newTip=pub1,2) = 2 -> release p1 only.
	require.True(t, adv.Tree.Has("p1"))
	require.False(t, adv.Tree.Has("p2"))
	require.Equal(t, "p1", adv.PrivateAnchor)
	require.Equal(t, []Block{b2, b3}, adv.PrivateSuffix)
}

// TestAdversaryLeadOneReleasesAll covers the lead==1 branch.
func TestAdversaryLeadOneReleasesAll(t *testing.T) {
	sim := newTestSim(3, 10, 10, 10)
	adv := newTestAdversary(sim, 0)

	b1 := mkBlock("p1", GenesisBlockID, 0)
	b2 := mkBlock("p2", "p1", 0)
	adv.PrivateSuffix = []Block{b1, b2}
	adv.PrivateAnchor = GenesisBlockID

	pub := mkBlock("pub1", GenesisBlockID, 1)
	adv.onBlkRecv(sim, pub, 5)

	// lead = 1 + 2 - 2 = 1 -> release everything.
	require.True(t, adv.Tree.Has("p1"))
	require.True(t, adv.Tree.Has("p2"))
	require.Empty(t, adv.PrivateSuffix)
	require.Equal(t, "p2", adv.PrivateAnchor)
}

// TestAdversaryLeadZeroEntersState0 covers the lead==0 race branch.
func TestAdversaryLeadZeroEntersState0(t *testing.T) {
	sim := newTestSim(3, 10, 10, 10)
	adv := newTestAdversary(sim, 0)

	b1 := mkBlock("p1", GenesisBlockID, 0)
	adv.PrivateSuffix = []Block{b1}
	adv.PrivateAnchor = GenesisBlockID

	pub1 := mkBlock("pub1", GenesisBlockID, 1)
	adv.onBlkRecv(sim, pub1, 5)

	// lead = 1 + 1 - 2 = 0 -> release all, enter state 0'.
	require.True(t, adv.Tree.Has("p1"))
	require.True(t, adv.State0)
	require.Empty(t, adv.PrivateSuffix)
}

// TestAdversaryState0ReleaseOnOwnMineDone covers the 0'->0 transition: once
// in state 0', the next self-mined block atop the (now-public) anchor is
// released immediately rather than kept private.
func TestAdversaryState0ReleaseOnOwnMineDone(t *testing.T) {
	sim := newTestSim(3, 10, 10, 10)
	adv := newTestAdversary(sim, 0)
	tip := mkBlock("tip", GenesisBlockID, 1)
	require.True(t, adv.Tree.AddBlock(tip, 1))
	adv.PrivateAnchor = "tip"
	adv.State0 = true

	won := Block{ID: "won", ParentID: "tip", Miner: 0}
	adv.onMineDoneAdversary(sim, won)

	require.True(t, adv.Tree.Has("won"))
	require.False(t, adv.State0)
	require.Equal(t, "won", adv.PrivateAnchor)
}

// TestAdversaryLeadNegativeAbandonsPrivateChain covers lead<0: the
// adversary gives up its private fork and resets anchor to the new public
// tip.
func TestAdversaryLeadNegativeAbandonsPrivateChain(t *testing.T) {
	sim := newTestSim(3, 10, 10, 10)
	adv := newTestAdversary(sim, 0)
	adv.PrivateSuffix = nil
	adv.PrivateAnchor = GenesisBlockID

	pub1 := mkBlock("pub1", GenesisBlockID, 1)
	pub2 := mkBlock("pub2", "pub1", 1)
	require.True(t, adv.Tree.AddBlock(pub1, 1))
	adv.onBlkRecv(sim, pub2, 2)

	require.False(t, adv.State0)
	require.Empty(t, adv.PrivateSuffix)
	require.Equal(t, "pub2", adv.PrivateAnchor)
}

// TestAdversaryOnMineDoneAdversaryDropsStaleAbandonedAnchorBlock covers
// the race between a lead<0 reset (onBlkRecv) and an in-flight mining
// attempt: once the adversary abandons anchor A for a new public tip, a
// late-arriving MINE_DONE_ADVERSARY for a block still parented on A must
// be dropped, not appended into PrivateSuffix (which would corrupt the
// PrivateSuffix[0].ParentID == PrivateAnchor invariant that release/
// releaseAll rely on).
func TestAdversaryOnMineDoneAdversaryDropsStaleAbandonedAnchorBlock(t *testing.T) {
	sim := newTestSim(3, 10, 10, 10)
	adv := newTestAdversary(sim, 0)
	adv.PrivateSuffix = nil
	// A lead<0 reset (onBlkRecv) already moved the anchor away from
	// "anchor-a" to the new public tip before this stale completion fires.
	adv.PrivateAnchor = "new-public-tip"

	staleChild := Block{ID: "stale-child", ParentID: "anchor-a", Miner: 0}
	adv.onMineDoneAdversary(sim, staleChild)

	require.Empty(t, adv.PrivateSuffix)
	require.False(t, adv.Tree.Has("stale-child"))
}

// TestAdversaryOnMineDoneAdversaryKeepsBlockMatchingCurrentAnchor is the
// non-stale counterpart: a freshly mined block whose parent is the
// current anchor (suffix still empty) is a legitimate first private
// block and must be appended.
func TestAdversaryOnMineDoneAdversaryKeepsBlockMatchingCurrentAnchor(t *testing.T) {
	sim := newTestSim(3, 10, 10, 10)
	adv := newTestAdversary(sim, 0)
	adv.PrivateSuffix = nil
	adv.PrivateAnchor = GenesisBlockID

	first := Block{ID: "first", ParentID: GenesisBlockID, Miner: 0}
	adv.onMineDoneAdversary(sim, first)

	require.Len(t, adv.PrivateSuffix, 1)
	require.Equal(t, "first", adv.PrivateSuffix[0].ID)
}

func TestAdversaryOnBlkRecvNeverRebroadcastsOthersBlocks(t *testing.T) {
	sim := newTestSim(3, 10, 10, 10)
	adv := newTestAdversary(sim, 0)
	pub1 := mkBlock("pub1", GenesisBlockID, 1)
	adv.onBlkRecv(sim, pub1, 1)

	for {
		ev, ok := sim.Sched.Pop()
		if !ok {
			break
		}
		if ev.Kind == KindBlkBroadcast {
			require.NotEqual(t, "pub1", ev.Block.ID)
		}
	}
}
