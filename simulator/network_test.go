package simulator

import "testing"

func TestOrderedNetworkPairOrder(t *testing.T) {
	for trial := 0; trial < 20; trial++ {
		loop := NewEventLoop()
		network := NewOrderedNetwork(1e3, 0.5)

		sender := NewNode().Port(loop)
		other := NewNode().Port(loop)
		receiver := NewNode().Port(loop)

		const numMessages = 50
		loop.Go(func(h *Handle) {
			for i := 0; i < numMessages; i++ {
				network.Send(h, &Message{Source: sender, Dest: receiver, Message: i, Size: 8})
			}
		})
		loop.Go(func(h *Handle) {
			for i := 0; i < numMessages; i++ {
				network.Send(h, &Message{Source: other, Dest: receiver, Message: -i, Size: 8})
				h.Sleep(0.01)
			}
		})
		loop.Go(func(h *Handle) {
			next := 0
			for i := 0; i < numMessages*2; i++ {
				msg := receiver.Recv(h)
				if msg.Source != sender {
					continue
				}
				if msg.Message != next {
					t.Errorf("expected message %d but got %v", next, msg.Message)
					return
				}
				next++
			}
			if next != numMessages {
				t.Errorf("expected %d messages from sender but got %d", numMessages, next)
			}
		})

		if err := loop.Run(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOrderedNetworkRecvMatch(t *testing.T) {
	loop := NewEventLoop()
	network := NewOrderedNetwork(1.0, 0)

	a := NewNode().Port(loop)
	b := NewNode().Port(loop)
	c := NewNode().Port(loop)

	loop.Go(func(h *Handle) {
		network.Send(h, &Message{Source: a, Dest: c, Message: "from a", Size: 1})
	})
	loop.Go(func(h *Handle) {
		h.Sleep(10)
		network.Send(h, &Message{Source: b, Dest: c, Message: "from b", Size: 1})
	})
	loop.Go(func(h *Handle) {
		fromB := c.RecvMatch(h, func(m *Message) bool {
			return m.Source == b
		})
		if fromB.Message != "from b" {
			t.Errorf("unexpected message: %v", fromB.Message)
		}
		if msg, ok := c.Peek(h, nil); !ok || msg.Message != "from a" {
			t.Errorf("expected queued message from a")
		}
		if val := c.Recv(h).Message; val != "from a" {
			t.Errorf("unexpected message: %v", val)
		}
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
	if loop.Time() != 11 {
		t.Errorf("time should be 11 but got %f", loop.Time())
	}
}
