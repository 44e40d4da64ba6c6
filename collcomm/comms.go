package collcomm

import (
	"fmt"

	"github.com/unixpickle/topocomm/simulator"
	"go.uber.org/zap"
)

// headerSize approximates the bytes of framing that
// accompany every packet on the simulated network.
const headerSize = 16

// Comms manages a set of connections between a bunch of
// nodes.
// Each node has a local Comms object that represents its
// view of the world, and Comms implements Transport for
// that node.
type Comms struct {
	// Handle is the node's main Goroutine's handle on the
	// event loop.
	Handle *simulator.Handle

	// Port is the current node's port.
	Port *simulator.Port

	// Ports contains ports to all the nodes in the
	// network, including the current node.
	// A node's rank is its index in Ports.
	Ports []*simulator.Port

	// Network is the network connecting the nodes.
	Network simulator.Network

	rank      int
	finalized bool
}

// packet is the payload of every simulator.Message sent
// by a Comms.
type packet struct {
	Tag   int
	Kind  Kind
	Count int
	Data  []byte
}

// SpawnComms creates Comms objects for every node in a
// network and calls f for each node in its own Goroutine.
func SpawnComms(loop *simulator.EventLoop, network simulator.Network, nodes []*simulator.Node,
	f func(c *Comms)) {
	ports := make([]*simulator.Port, len(nodes))
	for i, node := range nodes {
		ports[i] = node.Port(loop)
	}
	for i := range nodes {
		rank := i
		loop.Go(func(h *simulator.Handle) {
			f(&Comms{
				Handle:  h,
				Port:    ports[rank],
				Ports:   ports,
				Network: network,
				rank:    rank,
			})
		})
	}
}

// Rank returns the current node's index in the list of
// nodes.
func (c *Comms) Rank() int {
	return c.rank
}

// Size gets the number of nodes.
func (c *Comms) Size() int {
	return len(c.Ports)
}

// IndexOf returns any node's index.
func (c *Comms) IndexOf(p *simulator.Port) int {
	for i, port := range c.Ports {
		if port == p {
			return i
		}
	}
	panic("unreachable")
}

// Send schedules a buffer to be sent to the destination.
func (c *Comms) Send(data []byte, kind Kind, count, dest, tag int) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	if tag < 0 {
		return fmt.Errorf("send: %w: %d", ErrInvalidTag, tag)
	}
	if err := c.checkRank(dest); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	p, err := newPacket(data, kind, count, tag)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	Logger().Debug("send",
		zap.Int("rank", c.rank),
		zap.Int("dest", dest),
		zap.Int("tag", tag),
		zap.Stringer("kind", kind),
		zap.Int("count", count))
	c.sendPacket(c.Ports[dest], p)
	return nil
}

// Recv waits for a buffer from source with the given tag.
func (c *Comms) Recv(kind Kind, count, source, tag int) ([]byte, Status, error) {
	if err := c.checkLive(); err != nil {
		return nil, Status{}, err
	}
	if err := c.checkFilter(source, tag); err != nil {
		return nil, Status{}, fmt.Errorf("recv: %w", err)
	}
	if !kind.Valid() {
		return nil, Status{}, fmt.Errorf("recv: %w: %d", ErrInvalidKind, int(kind))
	}
	msg, p := c.recvPacket(source, tag)
	status := Status{
		Source:  c.IndexOf(msg.Source),
		Tag:     p.Tag,
		Count:   p.Count,
		Matched: true,
	}
	Logger().Debug("recv",
		zap.Int("rank", c.rank),
		zap.Int("source", status.Source),
		zap.Int("tag", status.Tag),
		zap.Int("count", status.Count))
	if p.Kind != kind {
		return nil, status, fmt.Errorf("recv: %w: got %s, want %s", ErrKindMismatch, p.Kind, kind)
	}
	if p.Count > count {
		return nil, status, fmt.Errorf("recv: %w: got %d elements, want at most %d",
			ErrTruncate, p.Count, count)
	}
	return p.Data, status, nil
}

// Probe checks for a pending buffer without blocking.
//
// Since virtual time only advances while every node is
// blocked, a node that polls Probe in a loop should also
// block (e.g. Handle.Sleep) between probes.
func (c *Comms) Probe(source, tag int) (Status, bool, error) {
	if err := c.checkLive(); err != nil {
		return Status{}, false, err
	}
	if err := c.checkFilter(source, tag); err != nil {
		return Status{}, false, fmt.Errorf("probe: %w", err)
	}
	msg, ok := c.Port.Peek(c.Handle, c.matcher(source, tag))
	if !ok {
		return Status{Source: source, Tag: tag}, false, nil
	}
	p := msg.Message.(*packet)
	return Status{
		Source:  c.IndexOf(msg.Source),
		Tag:     p.Tag,
		Count:   p.Count,
		Matched: true,
	}, true, nil
}

// Barrier waits until all nodes have reached the barrier.
//
// Every node reports to Root, which then releases every
// node with a broadcast.
func (c *Comms) Barrier() error {
	if err := c.checkLive(); err != nil {
		return err
	}
	c.barrier()
	return nil
}

func (c *Comms) barrier() {
	if c.Size() == 1 {
		return
	}
	if c.rank != Root {
		c.sendPacket(c.Ports[Root], &packet{Tag: tagBarrier, Kind: KindChar})
		c.recvPacket(Root, tagRelease)
		return
	}
	for i := range c.Ports {
		if i != Root {
			c.recvPacket(i, tagBarrier)
		}
	}
	c.bcast(&packet{Tag: tagRelease, Kind: KindChar})
	Logger().Debug("barrier released", zap.Int("rank", c.rank))
}

// Gather sends every node's buffer to root.
//
// The root receives from each rank explicitly, so the
// result is ordered by rank regardless of arrival order.
func (c *Comms) Gather(data []byte, kind Kind, root int) ([][]byte, error) {
	if err := c.checkLive(); err != nil {
		return nil, err
	}
	if err := c.checkRank(root); err != nil {
		return nil, fmt.Errorf("gather: %w", err)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("gather: %w: %d", ErrInvalidKind, int(kind))
	}
	if len(data)%kind.Size() != 0 {
		return nil, fmt.Errorf("gather: %w", ErrBufferSize)
	}
	count := len(data) / kind.Size()
	p, err := newPacket(data, kind, count, tagGather)
	if err != nil {
		return nil, fmt.Errorf("gather: %w", err)
	}
	if c.rank != root {
		c.sendPacket(c.Ports[root], p)
		return nil, nil
	}

	res := make([][]byte, c.Size())
	res[root] = p.Data
	for i := range c.Ports {
		if i == root {
			continue
		}
		_, incoming := c.recvPacket(i, tagGather)
		if incoming.Kind != kind || incoming.Count != count {
			return nil, fmt.Errorf("gather: %w: rank %d sent %d x %s", ErrKindMismatch,
				i, incoming.Count, incoming.Kind)
		}
		res[i] = incoming.Data
	}
	Logger().Debug("gathered", zap.Int("rank", c.rank), zap.Int("count", count))
	return res, nil
}

// bcast sends a packet to every other node.
func (c *Comms) bcast(p *packet) {
	messages := make([]*simulator.Message, 0, len(c.Ports)-1)
	for _, port := range c.Ports {
		if port == c.Port {
			continue
		}
		messages = append(messages, &simulator.Message{
			Source:  c.Port,
			Dest:    port,
			Message: p,
			Size:    p.size(),
		})
	}
	c.Network.Send(c.Handle, messages...)
}

// Finalize synchronizes with every other node and then
// closes this node's view of the network.
func (c *Comms) Finalize() error {
	if err := c.checkLive(); err != nil {
		return err
	}
	c.barrier()
	c.finalized = true
	Logger().Debug("finalized", zap.Int("rank", c.rank))
	return nil
}

func (c *Comms) checkLive() error {
	if c.finalized {
		return ErrFinalized
	}
	return nil
}

func (c *Comms) checkRank(rank int) error {
	if rank < 0 || rank >= c.Size() {
		return fmt.Errorf("%w: %d (size %d)", ErrInvalidRank, rank, c.Size())
	}
	return nil
}

func (c *Comms) checkFilter(source, tag int) error {
	if source != AnySource {
		if err := c.checkRank(source); err != nil {
			return err
		}
	}
	if tag < AnyTag {
		return fmt.Errorf("%w: %d", ErrInvalidTag, tag)
	}
	return nil
}

func (c *Comms) matcher(source, tag int) func(m *simulator.Message) bool {
	return func(m *simulator.Message) bool {
		p := m.Message.(*packet)
		if tag == AnyTag {
			if p.Tag < 0 {
				return false
			}
		} else if p.Tag != tag {
			return false
		}
		return source == AnySource || c.Ports[source] == m.Source
	}
}

func (c *Comms) recvPacket(source, tag int) (*simulator.Message, *packet) {
	msg := c.Port.RecvMatch(c.Handle, c.matcher(source, tag))
	return msg, msg.Message.(*packet)
}

func (c *Comms) sendPacket(dst *simulator.Port, p *packet) {
	c.Network.Send(c.Handle, &simulator.Message{
		Source:  c.Port,
		Dest:    dst,
		Message: p,
		Size:    p.size(),
	})
}

func newPacket(data []byte, kind Kind, count, tag int) (*packet, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, int(kind))
	}
	if count < 0 || len(data) != count*kind.Size() {
		return nil, fmt.Errorf("%w: %d bytes for %d x %s", ErrBufferSize, len(data), count, kind)
	}
	return &packet{
		Tag:   tag,
		Kind:  kind,
		Count: count,
		Data:  append([]byte{}, data...),
	}, nil
}

func (p *packet) size() float64 {
	return float64(len(p.Data) + headerSize)
}
