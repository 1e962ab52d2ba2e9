package simnet

import (
	"io"

	"github.com/sirupsen/logrus"
)

// silentLog is a real logrus logger with output discarded, used across
// white-box tests so peers/adversaries can be built directly without a
// full Simulator constructor.
func silentLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newTestSim builds a bare Simulator with n honest peers on a fully
// connected neighbor graph, bypassing NewHonestSimulator's config
// validation so tests can exercise peer/adversary mechanics directly.
func newTestSim(n int, tk, ttx float64, quota int) *Simulator {
	sim := newSimulator(n, ttx, tk, quota, 42, silentLog())
	for i := 0; i < n; i++ {
		var neighbors []PeerID
		for j := 0; j < n; j++ {
			if j != i {
				neighbors = append(neighbors, PeerID(j))
			}
		}
		sim.Peers[PeerID(i)] = NewPeer(PeerID(i), false, 1.0/float64(n), neighbors, 42+int64(i), silentLog())
	}
	return sim
}
