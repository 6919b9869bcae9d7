package sacn

import (
	"sync"
	"time"
)

// Availability states delivered to availability callbacks.
const (
	Available = "available"
	Timeout   = "timeout"
)

const (
	// recvTimeout is the read-timeout floor the receiver worker suspends
	// in between checking for shutdown and running its timeout sweep.
	recvTimeout = 100 * time.Millisecond

	// dataLossTimeout is the E131_NETWORK_DATA_LOSS_TIMEOUT: a universe with
	// no packet in this long is considered gone.
	dataLossTimeout = 2500 * time.Millisecond

	// recvBufSize covers the largest possible PDU: a full UNIVERSE_DISCOVERY
	// page (120 + 512*2 = 1144 bytes).
	recvBufSize = 1144
)

// AvailabilityCallback is invoked with (universe, Available|Timeout).
type AvailabilityCallback func(universe uint16, state string)

// DataCallback is invoked with a decoded DATA PDU for a universe it was
// registered on.
type DataCallback func(pkt *DataPacket)

// Receiver is the sACN receiver engine: a continuous UDP consumer applying
// source-timeout detection, sequence validation, priority arbitration, and
// subscriber dispatch.
type Receiver struct {
	sock   ReceiveSocket
	logger Logger
	state  *sourceTable

	bindAddress string
	bindPort    int

	cbMu            sync.Mutex
	availabilityCbs []AvailabilityCallback
	universeCbs     map[uint16][]DataCallback

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// ReceiverOption configures a Receiver at construction time.
type ReceiverOption func(*Receiver)

// WithReceiverLogger injects a Logger, overriding the no-op default.
func WithReceiverLogger(l Logger) ReceiverOption {
	return func(r *Receiver) { r.logger = orNoop(l) }
}

// WithReceiveSocket injects a ReceiveSocket, overriding the real UDP
// implementation. Used by tests to drive the engine over internal/memsock.
func WithReceiveSocket(s ReceiveSocket) ReceiverOption {
	return func(r *Receiver) { r.sock = s }
}

// NewReceiver creates and binds a receiver. bindAddress defaults to
// "0.0.0.0" and bindPort to Port (5568) when zero values are passed.
func NewReceiver(bindAddress string, bindPort int, opts ...ReceiverOption) (*Receiver, error) {
	if bindAddress == "" {
		bindAddress = "0.0.0.0"
	}
	if bindPort == 0 {
		bindPort = Port
	}

	r := &Receiver{
		logger:      noopLogger{},
		state:       newSourceTable(),
		bindAddress: bindAddress,
		bindPort:    bindPort,
		universeCbs: map[uint16][]DataCallback{},
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.sock == nil {
		r.sock = NewUDPReceiveSocket(nil)
	}

	if err := r.sock.Bind(r.bindAddress, r.bindPort); err != nil {
		return nil, err
	}

	return r, nil
}

// OnAvailability registers an availability subscriber.
func (r *Receiver) OnAvailability(cb AvailabilityCallback) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.availabilityCbs = append(r.availabilityCbs, cb)
}

// OnUniverse registers a data subscriber for one universe.
func (r *Receiver) OnUniverse(universe uint16, cb DataCallback) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.universeCbs[universe] = append(r.universeCbs[universe], cb)
}

// RegisterListener is a trigger-keyed registration API for callers that
// address callbacks by string trigger name rather than the typed
// OnAvailability/OnUniverse methods.
func (r *Receiver) RegisterListener(trigger string, callback any, universe ...uint16) error {
	switch trigger {
	case "availability":
		cb, ok := callback.(AvailabilityCallback)
		if !ok {
			return invalidArgument("callback", "expected AvailabilityCallback")
		}
		r.OnAvailability(cb)
		return nil
	case "universe":
		if len(universe) != 1 {
			return invalidArgument("universe", universe)
		}
		cb, ok := callback.(DataCallback)
		if !ok {
			return invalidArgument("callback", "expected DataCallback")
		}
		r.OnUniverse(universe[0], cb)
		return nil
	default:
		return invalidArgument("trigger", trigger)
	}
}

// JoinMulticast joins the multicast group for a universe.
func (r *Receiver) JoinMulticast(universe uint16) error {
	return r.sock.JoinMulticast(MulticastAddr(universe).IP)
}

// LeaveMulticast leaves the multicast group for a universe. Leaving a
// non-joined group is a no-op.
func (r *Receiver) LeaveMulticast(universe uint16) error {
	return r.sock.LeaveMulticast(MulticastAddr(universe).IP)
}

// PossibleUniverses returns the current key set of the data-timestamp map.
func (r *Receiver) PossibleUniverses() []uint16 {
	return r.state.universes()
}

// Start spawns the receiver's worker goroutine. It is independent of the
// caller's control flow.
func (r *Receiver) Start() {
	r.wg.Add(1)
	go r.run()
}

// Stop flips the enable flag; the worker observes it at the next loop
// iteration boundary. Idempotent and safe even if Start was never called.
func (r *Receiver) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	_ = r.sock.Close()
}

func (r *Receiver) run() {
	defer r.wg.Done()

	r.logger.Infof("receiver started bind=%s:%d", r.bindAddress, r.bindPort)
	buf := make([]byte, recvBufSize)

	for {
		select {
		case <-r.done:
			r.logger.Infof("receiver stopped")
			return
		default:
		}

		r.sweepTimeouts()

		n, _, err := r.sock.Recv(buf, recvTimeout)
		if err != nil {
			if IsTimeout(err) {
				continue
			}
			r.logger.Warnf("recv error: %v", err)
			continue
		}

		pkt, err := DecodeDataPacket(buf[:n])
		if err != nil {
			r.logger.Debugf("dropping malformed packet: %v", err)
			continue
		}

		r.handleDataPacket(pkt)
	}
}

func (r *Receiver) sweepTimeouts() {
	now := time.Now()
	for _, u := range r.state.sweepTimeouts(now, dataLossTimeout) {
		r.fireAvailability(u, Timeout)
	}
}

// handleDataPacket runs the full per-packet pipeline: stream-terminated
// drop, availability, priority arbitration, sequence check, and
// change-detected dispatch.
func (r *Receiver) handleDataPacket(pkt *DataPacket) {
	now := time.Now()

	if pkt.StreamTerminated {
		r.state.dropSource(pkt.Universe)
		r.fireAvailability(pkt.Universe, Timeout)
		return
	}

	if r.state.markAvailable(pkt.Universe, now) {
		r.fireAvailability(pkt.Universe, Available)
	}

	r.state.refreshPriority(pkt.Universe, pkt.Priority, now, dataLossTimeout)

	active, ok := r.state.activePriority(pkt.Universe)
	if ok && pkt.Priority < active {
		return
	}

	if !r.state.acceptSequence(pkt.Universe, pkt.Sequence) {
		return
	}

	if r.state.dispatchIfChanged(pkt.Universe, pkt.Data) {
		r.fireUniverse(pkt)
	}
}

func (r *Receiver) fireAvailability(universe uint16, state string) {
	r.cbMu.Lock()
	cbs := append([]AvailabilityCallback(nil), r.availabilityCbs...)
	r.cbMu.Unlock()

	for _, cb := range cbs {
		r.safeCall(func() { cb(universe, state) })
	}
}

func (r *Receiver) fireUniverse(pkt *DataPacket) {
	r.cbMu.Lock()
	cbs := append([]DataCallback(nil), r.universeCbs[pkt.Universe]...)
	r.cbMu.Unlock()

	for _, cb := range cbs {
		p := pkt
		r.safeCall(func() { cb(p) })
	}
}

// safeCall runs a callback, catching a panic so a misbehaving subscriber
// cannot halt the worker.
func (r *Receiver) safeCall(f func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("callback panic: %v", rec)
		}
	}()
	f()
}
