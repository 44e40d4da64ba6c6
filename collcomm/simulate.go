package collcomm

import "github.com/unixpickle/topocomm/simulator"

// Simulate runs f on numNodes freshly created nodes that
// are connected by network, and blocks until every node
// returns.
//
// If network is nil, an OrderedNetwork with a fast link
// and no latency is used.
//
// The loop is returned so that callers can inspect the
// final virtual time. The error is non-nil if the nodes
// deadlocked.
func Simulate(numNodes int, network simulator.Network, f func(c *Comms)) (*simulator.EventLoop, error) {
	if numNodes < 1 {
		panic("at least one node is required")
	}
	if network == nil {
		network = simulator.NewOrderedNetwork(1e9, 0)
	}
	loop := simulator.NewEventLoop()
	nodes := make([]*simulator.Node, numNodes)
	for i := range nodes {
		nodes[i] = simulator.NewNode()
	}
	SpawnComms(loop, network, nodes, f)
	return loop, loop.Run()
}
