package simulator

import (
	"math/rand"
	"sync"
)

// A Node represents a machine on a virtual network.
type Node struct {
	unused int
}

// NewNode creates a new, unique Node.
func NewNode() *Node {
	return &Node{}
}

// Port creates a new Port connected to the Node.
func (n *Node) Port(loop *EventLoop) *Port {
	return &Port{Node: n, Incoming: loop.Stream()}
}

// A Port identifies a point of communication on a Node.
// Data is sent from Ports and received on Ports.
type Port struct {
	// The Node to which the Port is attached.
	Node *Node

	// A stream of *Message objects.
	Incoming *EventStream
}

// Recv receives the next message.
func (p *Port) Recv(h *Handle) *Message {
	return p.RecvMatch(h, nil)
}

// RecvMatch receives the next message accepted by match.
// Other messages stay queued on the Port.
func (p *Port) RecvMatch(h *Handle, match func(m *Message) bool) *Message {
	return h.PollMatch(messageMatcher(match), p.Incoming).Message.(*Message)
}

// Peek finds the oldest queued message accepted by match
// without blocking or consuming it.
func (p *Port) Peek(h *Handle, match func(m *Message) bool) (*Message, bool) {
	msg, ok := h.Peek(p.Incoming, messageMatcher(match))
	if !ok {
		return nil, false
	}
	return msg.(*Message), true
}

func messageMatcher(match func(m *Message) bool) Matcher {
	if match == nil {
		return nil
	}
	return func(msg interface{}) bool {
		return match(msg.(*Message))
	}
}

// A Message is a chunk of data sent between nodes over a
// network.
type Message struct {
	Source  *Port
	Dest    *Port
	Message interface{}
	Size    float64
}

// A Network represents an abstract way of communicating
// between nodes.
type Network interface {
	// Send message objects from one node to another.
	// The message will arrive on the receiving port's
	// incoming EventStream if the communication is
	// successful.
	//
	// This is a non-blocking operation.
	//
	// Messages between one pair of ports must arrive in
	// the order they were sent.
	Send(h *Handle, msgs ...*Message)
}

// An OrderedNetwork delivers messages sent to endpoints in
// order, while allowing non-determinism in the relative
// arrival of messages from different senders.
//
// Every message takes Size/Rate time to transmit, plus a
// random latency of up to MaxRandomLatency.
// A destination receives one message at a time, so a
// message never overtakes an earlier one to the same
// node.
type OrderedNetwork struct {
	Rate             float64
	MaxRandomLatency float64

	lock      sync.Mutex
	nextTimes map[*Node]float64
}

// NewOrderedNetwork creates an OrderedNetwork.
//
// The rate must be positive.
func NewOrderedNetwork(rate float64, maxRandomLatency float64) *OrderedNetwork {
	if rate <= 0 {
		panic("rate must be positive")
	}
	return &OrderedNetwork{
		Rate:             rate,
		MaxRandomLatency: maxRandomLatency,
		nextTimes:        map[*Node]float64{},
	}
}

// Send sends the messages over the network in order.
func (o *OrderedNetwork) Send(h *Handle, msgs ...*Message) {
	o.lock.Lock()
	defer o.lock.Unlock()

	curTime := h.Time()

	for _, msg := range msgs {
		dest := msg.Dest.Node
		latency := rand.Float64() * o.MaxRandomLatency
		delay := latency + msg.Size/o.Rate

		if t, ok := o.nextTimes[dest]; !ok || t <= curTime {
			h.Schedule(msg.Dest.Incoming, msg, delay)
			o.nextTimes[dest] = curTime + delay
		} else {
			h.Schedule(msg.Dest.Incoming, msg, delay+(t-curTime))
			o.nextTimes[dest] = delay + t
		}
	}
}
