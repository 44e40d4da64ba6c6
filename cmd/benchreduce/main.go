// Command benchreduce prints a markdown table of the
// virtual time taken by each allreduce algorithm.
package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/topocomm/allreduce"
	"github.com/unixpickle/topocomm/collcomm"
	"github.com/unixpickle/topocomm/mpiwrap"
	"github.com/unixpickle/topocomm/simulator"
)

const reduceTag = 1

// RunInfo describes a specific network configuration.
type RunInfo struct {
	NumNodes int
	Latency  float64
	Rate     float64
}

// Run simulates every node running the reducer and
// returns the virtual time it took.
func (r *RunInfo) Run(reducer allreduce.Allreducer[float64], size int) float64 {
	network := simulator.NewOrderedNetwork(r.Rate, r.Latency)
	loop, err := collcomm.Simulate(r.NumNodes, network, func(c *collcomm.Comms) {
		w := mpiwrap.New(c, mpiwrap.WithOutput(io.Discard))
		defer w.Close()
		vec := make([]float64, size)
		_, err := reducer(w, vec, allreduce.Sum[float64], reduceTag)
		essentials.Must(err)
	})
	essentials.Must(err)
	return loop.Time()
}

func main() {
	reducers := []allreduce.Allreducer[float64]{
		allreduce.Naive[float64],
		allreduce.Tree[float64],
		allreduce.Ring[float64],
		allreduce.Cube[float64],
	}
	reducerNames := []string{"Naive", "Tree", "Ring", "Cube"}
	runs := []RunInfo{
		{
			NumNodes: 2,
			Latency:  0.1,
			Rate:     1e6,
		},
		{
			NumNodes: 16,
			Latency:  1e-3,
			Rate:     1e6,
		},
		{
			NumNodes: 32,
			Latency:  0.1,
			Rate:     1e6,
		},
		{
			NumNodes: 32,
			Latency:  1e-4,
			Rate:     1e9,
		},
	}
	vecSizes := []int{10, 10000, 1000000}

	// Markdown table header.
	fmt.Print("| Nodes | Latency | NIC rate | Size ")
	for _, reducerName := range reducerNames {
		fmt.Printf("| %s ", reducerName)
	}
	fmt.Println("|")
	for i := 0; i < 4+len(reducers); i++ {
		fmt.Print("|:--")
	}
	fmt.Println("|")

	// Markdown table body.
	for _, runInfo := range runs {
		for _, size := range vecSizes {
			fmt.Printf(
				"| %d | %s | %s | %d ",
				runInfo.NumNodes,
				strconv.FormatFloat(runInfo.Latency, 'f', -1, 64),
				strconv.FormatFloat(runInfo.Rate, 'E', -1, 64),
				size,
			)
			for _, reducer := range reducers {
				fmt.Printf("| %f ", runInfo.Run(reducer, size))
			}
			fmt.Println("|")
		}
	}
}
