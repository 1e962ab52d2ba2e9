package simnet

import "fmt"

// PeerID identifies a peer. Peers are numbered 0..n-1; under selfish-mining
// configurations, peers 0 and 1 are always the two adversaries.
type PeerID int

// txSizeBits is the transaction wire size used by LinkModel, expressed in
// bits to match spec §4.2's formula directly. blockBaseSizeKB is the block
// header size counted by Block.SizeKB.
const (
	txSizeBits       = 8_000
	blockBaseSizeKB  = 1
	maxTxPerBlock    = 999
	coinbaseReward   = 50
	defaultNewPeerBal = 100
)

// Transaction is immutable after creation. Size is a constant 1KB, folded
// into block size accounting rather than tracked per-transaction.
type Transaction struct {
	ID        string
	Sender    PeerID
	Receiver  PeerID
	Amount    int64
	CreatedAt float64 // simulated time
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s: %d pays %d %d coins", t.ID, t.Sender, t.Receiver, t.Amount)
}

// SizeKB is the constant wire size of a transaction.
func (t Transaction) SizeKB() int { return 1 }

// Block is immutable after creation; its id never changes. ParentID is
// empty only for the genesis block itself, which additionally has no
// miner (Miner == NoMiner).
type Block struct {
	ID        string
	ParentID  string
	Miner     PeerID
	IsGenesis bool
	CreatedAt float64
	Txs       []Transaction
}

// NoMiner marks the genesis block, which nobody mined.
const NoMiner PeerID = -1

// SizeKB is 1 (header) plus one KB per included transaction.
func (b Block) SizeKB() int { return blockBaseSizeKB + len(b.Txs) }

func newGenesisBlock() Block {
	return Block{
		ID:        GenesisBlockID,
		ParentID:  "",
		Miner:     NoMiner,
		IsGenesis: true,
		CreatedAt: 0,
		Txs:       nil,
	}
}

// Config parameterizes an honest-only run (spec §6).
type Config struct {
	N   int     // peer count, >= 2
	Z0  float64 // percent of slow peers, 0-100
	Z1  float64 // percent of low-CPU peers, 0-100 (low:high ratio is 1:10)
	Ttx float64 // mean seconds between a peer's tx generations
	Tk  float64 // mean seconds between block-mining attempts per unit hash fraction
	N_  int     // blocks to generate before stopping (see BlockQuota)
}

// BlockQuota is the number of blocks to mine before the simulator stops
// accepting new MINE_START/MINE_DONE_HONEST events and begins draining.
// Named distinctly from Config.N (peer count) to avoid the spec's own
// ambiguous double use of "N".
func (c Config) BlockQuota() int { return c.N_ }

// Validate enforces spec §7's InvalidConfig rules.
func (c Config) Validate() error {
	if c.N < 2 {
		return errWrap(ErrInvalidConfig, "n must be >= 2")
	}
	if c.Z0 < 0 || c.Z0 > 100 {
		return errWrap(ErrInvalidConfig, "z0 must be within [0,100]")
	}
	if c.Z1 < 0 || c.Z1 > 100 {
		return errWrap(ErrInvalidConfig, "z1 must be within [0,100]")
	}
	if c.Ttx <= 0 {
		return errWrap(ErrInvalidConfig, "Ttx must be > 0")
	}
	if c.Tk <= 0 {
		return errWrap(ErrInvalidConfig, "Tk must be > 0")
	}
	if c.N_ < 1 {
		return errWrap(ErrInvalidConfig, "N must be >= 1")
	}
	return nil
}

// SelfishConfig parameterizes a selfish-mining run (spec §6). The two
// adversaries are always peers 0 and 1; the remaining 100-C1-C2 percent of
// hash power is split uniformly over peers 2..n-1, half slow / half fast.
type SelfishConfig struct {
	N   int
	Ttx float64
	Tk  float64
	C1  float64 // percent hash power of adversary 0
	C2  float64 // percent hash power of adversary 1
	N_  int
}

func (c SelfishConfig) BlockQuota() int { return c.N_ }

func (c SelfishConfig) Validate() error {
	if c.N < 2 {
		return errWrap(ErrInvalidConfig, "n must be >= 2")
	}
	if c.Ttx <= 0 {
		return errWrap(ErrInvalidConfig, "Ttx must be > 0")
	}
	if c.Tk <= 0 {
		return errWrap(ErrInvalidConfig, "Tk must be > 0")
	}
	if c.C1 < 0 || c.C2 < 0 || c.C1+c.C2 >= 100 {
		return errWrap(ErrInvalidConfig, "C1+C2 must be within [0,100)")
	}
	if c.N_ < 1 {
		return errWrap(ErrInvalidConfig, "N must be >= 1")
	}
	return nil
}
