// Command topodemo runs a few ring and hypercube exchanges
// on simulated processes and prints rank-ordered reports.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/topocomm/allreduce"
	"github.com/unixpickle/topocomm/collcomm"
	"github.com/unixpickle/topocomm/config"
	"github.com/unixpickle/topocomm/mpiwrap"
	"github.com/unixpickle/topocomm/report"
	"github.com/unixpickle/topocomm/simulator"
	"github.com/unixpickle/topocomm/topology"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	tagRing = iota + 1
	tagCube
	tagRoll
	tagVerdict
	tagReduce
)

func main() {
	var configPath string
	var ranks int
	flag.StringVar(&configPath, "config", "", "TOML or YAML config file")
	flag.IntVar(&ranks, "ranks", 0, "number of simulated processes (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		essentials.Must(err)
	}
	if ranks != 0 {
		cfg.Ranks = ranks
	}
	essentials.Must(essentials.AddCtx("validate config", cfg.Validate()))

	logger, err := cfg.NewLogger()
	essentials.Must(err)
	defer logger.Sync()
	collcomm.SetLogger(logger.Named("collcomm"))
	mpiwrap.SetLogger(logger.Named("mpiwrap"))

	d := &Demo{Config: cfg, Width: terminalWidth()}
	network := simulator.NewOrderedNetwork(cfg.Network.Rate, cfg.Network.MaxLatency)
	loop, err := collcomm.Simulate(cfg.Ranks, network, func(c *collcomm.Comms) {
		if err := d.Run(c); err != nil {
			logger.Error("rank failed", zap.Int("rank", c.Rank()), zap.Error(err))
		}
	})
	essentials.Must(essentials.AddCtx("simulate", err))
	logger.Info("simulation finished", zap.Float64("virtualTime", loop.Time()))
}

// terminalWidth returns the width of stdout, or zero if it
// is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

// Demo is the program run by every simulated process.
type Demo struct {
	Config *config.Config

	// Width is the maximum table width, or zero for no
	// limit.
	Width int
}

// Run executes every step of the demo on one process.
func (d *Demo) Run(c *collcomm.Comms) (err error) {
	seed := d.Config.Seed + int64(c.Rank())
	w := mpiwrap.New(c, mpiwrap.WithSeed(seed))
	defer func() {
		if closeErr := w.Close(); err == nil {
			err = closeErr
		}
	}()
	rng := rand.New(rand.NewSource(seed))

	value := rng.Intn(w.Size() * 100)
	if err := w.Header(d.Config.Report.Label); err != nil {
		return err
	}
	if err := d.report(w, value, "value"); err != nil {
		return err
	}

	steps := []func(*mpiwrap.Wrapper, int) error{d.ringSum, d.cubeMax, d.reduceSum}
	for _, step := range steps {
		if err := step(w, value); err != nil {
			return err
		}
	}

	w.SetWorkFunc(func(iter *mpiwrap.Wrapper) bool {
		done, err := d.rollDice(iter, rng)
		if err != nil {
			mpiwrap.Logger().Error("roll failed", zap.Int("rank", iter.Rank()), zap.Error(err))
			return true
		}
		return done
	})
	return w.Work()
}

func (d *Demo) report(w *mpiwrap.Wrapper, value int, label string) error {
	r := d.Config.Report
	if r.Mode == config.ModeList {
		return mpiwrap.List(w, value, label, r.Marker, r.Filter)
	}
	return mpiwrap.FitTable(w, value, label, d.Width)
}

// ringSum passes a running total once around the ring.
func (d *Demo) ringSum(w *mpiwrap.Wrapper, value int) error {
	if w.Size() == 1 {
		return nil
	}
	if err := w.Header("Ring sum"); err != nil {
		return err
	}
	var total int
	if w.Rank() == collcomm.Root {
		if err := mpiwrap.SendRing(w, value, tagRing); err != nil {
			return err
		}
		sum, err := mpiwrap.Receive[int](w, w.PrevRank(), tagRing)
		if err != nil {
			return err
		}
		total = sum
	} else {
		partial, err := mpiwrap.Receive[int](w, w.PrevRank(), tagRing)
		if err != nil {
			return err
		}
		total = partial + value
		if err := mpiwrap.SendRing(w, total, tagRing); err != nil {
			return err
		}
	}
	return d.report(w, total, "sum")
}

// cubeMax finds the largest value by exchanging along
// every hypercube dimension.
// It is skipped unless the number of ranks is a power of
// two.
func (d *Demo) cubeMax(w *mpiwrap.Wrapper, value int) error {
	dims, ok := topology.Dimensions(w.Size())
	if !ok {
		return w.Header(fmt.Sprintf("Skipping cube max: %d ranks do not form a hypercube", w.Size()))
	}
	if err := w.Header("Cube max"); err != nil {
		return err
	}
	for dim := 0; dim < dims; dim++ {
		if err := mpiwrap.SendCube(w, value, dim, tagCube); err != nil {
			return err
		}
		other, err := mpiwrap.Receive[int](w, w.CubeRank(dim), tagCube)
		if err != nil {
			return err
		}
		value = max(value, other)
	}
	return d.report(w, value, "max")
}

// reduceSum computes the same total as ringSum, but
// every process ends up with it.
func (d *Demo) reduceSum(w *mpiwrap.Wrapper, value int) error {
	if err := w.Header("Allreduce sum"); err != nil {
		return err
	}
	total, err := allreduce.Ring(w, []int{value}, allreduce.Sum[int], tagReduce)
	if err != nil {
		return err
	}
	return d.report(w, total[0], "sum")
}

// rollDice has every process roll a die and report it to
// the root.
// The root decides if the rolls are good enough and tells
// every process, so that all processes agree on when to
// stop.
func (d *Demo) rollDice(w *mpiwrap.Wrapper, rng *rand.Rand) (bool, error) {
	roll := int8(rng.Intn(6) + 1)
	if err := mpiwrap.List(w, roll, "rolled", "> ", report.AllRanks); err != nil {
		return false, err
	}
	if w.Rank() != collcomm.Root {
		if err := mpiwrap.Send(w, roll, collcomm.Root, tagRoll); err != nil {
			return false, err
		}
		verdict, err := mpiwrap.Receive[uint8](w, collcomm.Root, tagVerdict)
		return verdict != 0, err
	}

	total := int(roll)
	for i := 1; i < w.Size(); i++ {
		other, err := mpiwrap.ReceiveTagged[int8](w, tagRoll)
		if err != nil {
			return false, err
		}
		total += int(other)
	}
	var verdict uint8
	if total >= 4*w.Size() {
		verdict = 1
	}
	if err := w.Print(fmt.Sprintf("total roll %d, need %d", total, 4*w.Size())); err != nil {
		return false, err
	}
	for i := 1; i < w.Size(); i++ {
		if err := mpiwrap.Send(w, verdict, i, tagVerdict); err != nil {
			return false, err
		}
	}
	return verdict != 0, nil
}
