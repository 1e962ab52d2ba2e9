package simnet

import "math/rand"

// LinkModel computes message latency between peers (spec §4.2):
//
//	d(i,j,S) = rho_ij + S/c_ij + Exp(mean = 96000/c_ij)
//
// where c_ij is 100Mbps if both endpoints are fast, else 5Mbps. rho_ij is
// sampled once, uniformly in [10,500], and cached per ordered (source,
// dest) pair — matching the Python prototype's per-source `self.p` dict,
// which is not enforced-symmetric (spec §9 open-question note: the cache
// is kept ordered-pair, not unordered-pair, on purpose).
type LinkModel struct {
	rho map[[2]PeerID]float64
	rng *rand.Rand
}

// NewLinkModel returns a LinkModel whose rho sampling uses rng.
func NewLinkModel(rng *rand.Rand) *LinkModel {
	return &LinkModel{
		rho: make(map[[2]PeerID]float64),
		rng: rng,
	}
}

func (lm *LinkModel) rhoFor(from, to PeerID) float64 {
	key := [2]PeerID{from, to}
	if v, ok := lm.rho[key]; ok {
		return v
	}
	v := 10 + lm.rng.Float64()*(500-10)
	lm.rho[key] = v
	return v
}

// blockSizeBits is the wire size of a block: 8e6 bits per the spec's fixed
// block message size (the spec treats block size in bits as a constant
// 8*10^6 regardless of transaction count for propagation purposes; per-KB
// accounting only affects the stored Block.SizeKB()).
const blockSizeBits = 8_000_000

// TxDelay is the latency for sending a transaction from `from` to `to`.
func (lm *LinkModel) TxDelay(from, to PeerID, bothFast bool) float64 {
	return lm.delay(from, to, bothFast, txSizeBits)
}

// BlockDelay is the latency for sending a block from `from` to `to`.
func (lm *LinkModel) BlockDelay(from, to PeerID, bothFast bool) float64 {
	return lm.delay(from, to, bothFast, blockSizeBits)
}

func (lm *LinkModel) delay(from, to PeerID, bothFast bool, sizeBits float64) float64 {
	cij := 5_000_000.0
	if bothFast {
		cij = 100_000_000.0
	}
	rho := lm.rhoFor(from, to)
	prop := sizeBits / cij
	queueMean := 96_000 / cij
	queueDelay := lm.rng.ExpFloat64() * queueMean
	return rho + prop + queueDelay
}
