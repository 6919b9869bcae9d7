package sacn

import (
	"net"
	"testing"
	"time"

	"github.com/lumentile/sacn/internal/memsock"
)

func newTestReceiver(t *testing.T, mnet *memsock.Network, ip net.IP, port int) (*Receiver, *memsock.Socket) {
	t.Helper()
	sock := mnet.NewSocket(ip)
	r, err := NewReceiver(ip.String(), port, WithReceiveSocket(sock))
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	return r, sock
}

func TestReceiverAvailabilityAndDataDispatch(t *testing.T) {
	network := memsock.New()
	receiverIP := net.IPv4(127, 0, 0, 1)
	r, _ := newTestReceiver(t, network, receiverIP, Port)
	r.Start()
	defer r.Stop()

	events := make(chan string, 8)
	r.OnAvailability(func(universe uint16, state string) {
		events <- state
	})
	frames := make(chan *DataPacket, 8)
	r.OnUniverse(1, func(pkt *DataPacket) {
		frames <- pkt
	})

	senderSock := network.NewSocket(net.IPv4(10, 0, 0, 1))
	pkt, err := NewDataPacket(DataPacketOptions{CID: testCID(), SourceName: "src", Universe: 1, Priority: 100})
	if err != nil {
		t.Fatalf("NewDataPacket: %v", err)
	}
	if err := senderSock.SendUnicast(pkt.Encode(), receiverIP, Port); err != nil {
		t.Fatalf("SendUnicast: %v", err)
	}

	select {
	case state := <-events:
		if state != Available {
			t.Fatalf("first event = %s, want %s", state, Available)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for availability callback")
	}

	select {
	case got := <-frames:
		if got.Universe != 1 {
			t.Fatalf("Universe = %d, want 1", got.Universe)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for data callback")
	}
}

func TestReceiverPriorityArbitrationDropsLowerPriority(t *testing.T) {
	network := memsock.New()
	receiverIP := net.IPv4(127, 0, 0, 1)
	r, _ := newTestReceiver(t, network, receiverIP, Port)
	r.Start()
	defer r.Stop()

	var frames []uint8 // priorities we actually dispatched data for
	done := make(chan struct{}, 8)
	r.OnUniverse(1, func(pkt *DataPacket) {
		frames = append(frames, pkt.Priority)
		done <- struct{}{}
	})

	senderSock := network.NewSocket(net.IPv4(10, 0, 0, 1))
	send := func(priority uint8, seq uint8, val byte) {
		pkt, _ := NewDataPacket(DataPacketOptions{CID: testCID(), Universe: 1, Priority: priority, Sequence: seq, Data: []byte{val}})
		_ = senderSock.SendUnicast(pkt.Encode(), receiverIP, Port)
	}

	send(100, 0, 1)
	<-done

	send(50, 1, 2) // lower priority: must be dropped
	select {
	case <-done:
		t.Fatal("lower-priority packet should not have been dispatched")
	case <-time.After(100 * time.Millisecond):
	}

	send(150, 2, 3) // higher priority: becomes the new winner
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("higher-priority packet should have been dispatched")
	}

	if len(frames) != 2 || frames[0] != 100 || frames[1] != 150 {
		t.Fatalf("dispatched priorities = %v, want [100 150]", frames)
	}
}

func TestReceiverStreamTerminatedFiresTimeout(t *testing.T) {
	network := memsock.New()
	receiverIP := net.IPv4(127, 0, 0, 1)
	r, _ := newTestReceiver(t, network, receiverIP, Port)
	r.Start()
	defer r.Stop()

	events := make(chan string, 8)
	r.OnAvailability(func(universe uint16, state string) { events <- state })

	senderSock := network.NewSocket(net.IPv4(10, 0, 0, 1))
	pkt, _ := NewDataPacket(DataPacketOptions{CID: testCID(), Universe: 1, Priority: 100})
	_ = senderSock.SendUnicast(pkt.Encode(), receiverIP, Port)
	if got := <-events; got != Available {
		t.Fatalf("first event = %s, want %s", got, Available)
	}

	term, _ := NewDataPacket(DataPacketOptions{CID: testCID(), Universe: 1, Priority: 100, StreamTerminated: true})
	_ = senderSock.SendUnicast(term.Encode(), receiverIP, Port)
	if got := <-events; got != Timeout {
		t.Fatalf("event after Stream_Terminated = %s, want %s", got, Timeout)
	}
}

func TestReceiverJoinLeaveMulticast(t *testing.T) {
	network := memsock.New()
	receiverIP := net.IPv4(127, 0, 0, 1)
	r, sock := newTestReceiver(t, network, receiverIP, Port)
	r.Start()
	defer r.Stop()

	if err := r.JoinMulticast(1); err != nil {
		t.Fatalf("JoinMulticast: %v", err)
	}

	frames := make(chan *DataPacket, 1)
	r.OnUniverse(1, func(pkt *DataPacket) { frames <- pkt })

	senderSock := network.NewSocket(net.IPv4(10, 0, 0, 1))
	pkt, _ := NewDataPacket(DataPacketOptions{CID: testCID(), Universe: 1, Priority: 100})
	_ = senderSock.SendMulticast(pkt.Encode(), MulticastAddr(1).IP, Port, DefaultTTL)

	select {
	case <-frames:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for multicast delivery")
	}

	if err := r.LeaveMulticast(1); err != nil {
		t.Fatalf("LeaveMulticast: %v", err)
	}
	if err := r.LeaveMulticast(1); err != nil {
		t.Fatalf("LeaveMulticast should be a no-op on an already-left group: %v", err)
	}
	_ = sock
}
