package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/Saran9999/P2P-Cryptocurrency-Network/internal/overlay"
	"github.com/Saran9999/P2P-Cryptocurrency-Network/internal/report"
	"github.com/Saran9999/P2P-Cryptocurrency-Network/internal/simnet"
)

var log = logrus.New()

func main() {
	app := &cli.App{
		Name:  "nakasim",
		Usage: "discrete-event simulator for a Nakamoto-consensus P2P network",
		Commands: []*cli.Command{
			honestCommand(),
			selfishCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "n", Usage: "peer count", Required: true},
		&cli.Float64Flag{Name: "ttx", Usage: "mean seconds between tx generations", Value: 5},
		&cli.Float64Flag{Name: "tk", Usage: "mean seconds per mining attempt at full hash power", Value: 600},
		&cli.IntFlag{Name: "blocks", Usage: "number of blocks to mine before stopping", Value: 10},
		&cli.Int64Flag{Name: "seed", Usage: "rng seed", Value: 1},
		&cli.StringFlag{Name: "tree-out", Usage: "path to write the ASCII block tree dump"},
		&cli.StringFlag{Name: "dot-out", Usage: "path to write Graphviz DOT source"},
	}
}

func honestCommand() *cli.Command {
	return &cli.Command{
		Name:  "honest",
		Usage: "run an honest-only simulation",
		Flags: append(commonFlags(),
			&cli.Float64Flag{Name: "z0", Usage: "percent of slow peers", Value: 0},
			&cli.Float64Flag{Name: "z1", Usage: "percent of low-cpu peers", Value: 0},
		),
		Action: func(c *cli.Context) error {
			cfg := simnet.Config{
				N:   c.Int("n"),
				Z0:  c.Float64("z0"),
				Z1:  c.Float64("z1"),
				Ttx: c.Float64("ttx"),
				Tk:  c.Float64("tk"),
				N_:  c.Int("blocks"),
			}
			seed := c.Int64("seed")
			rng := rand.New(rand.NewSource(seed))
			g, err := overlay.Build(cfg.N, rng)
			if err != nil {
				return err
			}
			sim, err := simnet.NewHonestSimulator(cfg, toPeerIDGraph(g), seed, log)
			if err != nil {
				return err
			}
			sim.Run()
			return writeReports(c, sim, simnet.NoMiner, simnet.NoMiner)
		},
	}
}

func selfishCommand() *cli.Command {
	return &cli.Command{
		Name:  "selfish",
		Usage: "run a simulation with two selfish-mining adversaries at peers 0 and 1",
		Flags: append(commonFlags(),
			&cli.Float64Flag{Name: "c1", Usage: "percent hash power of adversary 0", Required: true},
			&cli.Float64Flag{Name: "c2", Usage: "percent hash power of adversary 1", Required: true},
		),
		Action: func(c *cli.Context) error {
			cfg := simnet.SelfishConfig{
				N:   c.Int("n"),
				Ttx: c.Float64("ttx"),
				Tk:  c.Float64("tk"),
				C1:  c.Float64("c1"),
				C2:  c.Float64("c2"),
				N_:  c.Int("blocks"),
			}
			seed := c.Int64("seed")
			rng := rand.New(rand.NewSource(seed))
			g, err := overlay.Build(cfg.N, rng)
			if err != nil {
				return err
			}
			sim, err := simnet.NewSelfishSimulator(cfg, toPeerIDGraph(g), seed, log)
			if err != nil {
				return err
			}
			sim.Run()
			return writeReports(c, sim, 0, 1)
		},
	}
}

func toPeerIDGraph(g overlay.Graph) [][]simnet.PeerID {
	out := make([][]simnet.PeerID, len(g.Neighbors))
	for i, nbs := range g.Neighbors {
		row := make([]simnet.PeerID, len(nbs))
		for j, nb := range nbs {
			row[j] = simnet.PeerID(nb)
		}
		out[i] = row
	}
	return out
}

func writeReports(c *cli.Context, sim *simnet.Simulator, adv0, adv1 simnet.PeerID) error {
	tree := sim.Peers[0].Tree
	if path := c.String("tree-out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := report.WriteTree(f, tree); err != nil {
			return err
		}
	}
	if path := c.String("dot-out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := report.WriteDOT(f, tree, adv0, adv1); err != nil {
			return err
		}
	}
	log.WithField("tip", tree.LastBlock().ID).Info("simulation complete")
	return nil
}
