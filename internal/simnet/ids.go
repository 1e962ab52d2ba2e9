package simnet

import (
	uuid "github.com/hashicorp/go-uuid"
)

// GenesisBlockID is the sentinel parent id shared by every peer's BlockTree
// at startup. It is never produced by IdGen.
const GenesisBlockID = "00000000-0000-0000-0000-000000000000"

// IdGen mints globally unique opaque identifiers for transactions and
// blocks. Ids carry no cryptographic meaning; they are unique tags only.
type IdGen struct{}

// NewIdGen returns a ready-to-use id generator.
func NewIdGen() *IdGen {
	return &IdGen{}
}

// Next returns a fresh unique id. Panics only if the OS random source is
// exhausted, which in practice never happens.
func (g *IdGen) Next() string {
	id, err := uuid.GenerateUUID()
	if err != nil {
		// The only failure mode is a broken entropy source; there is no
		// sane way to recover inside a deterministic simulation.
		panic(errWrap(err, "idgen: failed to mint id"))
	}
	return id
}
