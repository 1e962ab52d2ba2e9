// Package report renders a simnet.BlockTree as output the teaching
// harness can inspect: an indented ASCII tree dump, grounded on the
// Python prototype's Tree.PrintTree, and Graphviz DOT source, grounded
// on Blockchain.visualize_blockchain.
package report

import (
	"fmt"
	"io"

	"github.com/Saran9999/P2P-Cryptocurrency-Network/internal/simnet"
)

// WriteTree writes an indented, marker-prefixed dump of t's block DAG
// starting from genesis, one block per line.
func WriteTree(w io.Writer, t *simnet.BlockTree) error {
	return writeTreeNode(w, t, simnet.GenesisBlockID, nil)
}

func writeTreeNode(w io.Writer, t *simnet.BlockTree, id string, levelMarkers []bool) error {
	const markerStr = "+- "
	emptyStr := "   "
	connectionStr := "|  "

	var prefix string
	for _, draw := range levelMarkers {
		if draw {
			prefix += connectionStr
		} else {
			prefix += emptyStr
		}
	}
	if len(levelMarkers) > 0 {
		prefix += markerStr
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", prefix, id); err != nil {
		return err
	}

	children := t.Children(id)
	for i, child := range children {
		isLast := i == len(children)-1
		if err := writeTreeNode(w, t, child, append(append([]bool{}, levelMarkers...), !isLast)); err != nil {
			return err
		}
	}
	return nil
}

// nodeColor mirrors visualize_blockchain's miner-based coloring: genesis
// is blue, adversary 0 is green, adversary 1 is red, everyone else black.
func nodeColor(b simnet.Block, adv0, adv1 simnet.PeerID) string {
	switch {
	case b.IsGenesis:
		return "blue"
	case b.Miner == adv0:
		return "green"
	case b.Miner == adv1:
		return "red"
	default:
		return "black"
	}
}

// WriteDOT writes Graphviz DOT source for t's longest chain and all known
// forks, with nodes colored by miner identity. Rendering DOT to an image
// is left to the caller's `dot` invocation or graphviz binding of choice.
func WriteDOT(w io.Writer, t *simnet.BlockTree, adv0, adv1 simnet.PeerID) error {
	if _, err := io.WriteString(w, "digraph Blockchain {\n  rankdir=LR;\n"); err != nil {
		return err
	}
	if err := writeDOTNode(w, t, simnet.GenesisBlockID, adv0, adv1); err != nil {
		return err
	}
	_, err := io.WriteString(w, "}\n")
	return err
}

func writeDOTNode(w io.Writer, t *simnet.BlockTree, id string, adv0, adv1 simnet.PeerID) error {
	b, ok := t.Block(id)
	if !ok {
		return nil
	}
	minerLabel := "Genesis Block"
	if !b.IsGenesis {
		minerLabel = fmt.Sprintf("Peer %d", b.Miner)
	}
	arrival := t.ArrivalOf(id)
	if _, err := fmt.Fprintf(w, "  %q [label=%q, color=%q];\n",
		id,
		fmt.Sprintf("Miner: %s\narr_time: %.2f\nBlock Size: %dKB", minerLabel, arrival, b.SizeKB()),
		nodeColor(b, adv0, adv1),
	); err != nil {
		return err
	}
	if !b.IsGenesis {
		if _, err := fmt.Fprintf(w, "  %q -> %q;\n", b.ParentID, id); err != nil {
			return err
		}
	}
	for _, child := range t.Children(id) {
		if err := writeDOTNode(w, t, child, adv0, adv1); err != nil {
			return err
		}
	}
	return nil
}
