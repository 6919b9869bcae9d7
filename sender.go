package sacn

import (
	"net"
	"sort"
	"sync"
	"time"
)

// intervalCorrectionFactor compensates for scheduling jitter so periodic
// sends fire slightly before their nominal interval rather than drifting
// late, mirroring original_source/sacn/sending/output_thread.py's
// INTERVAL_CORRECTION_FACTOR.
const intervalCorrectionFactor = 0.984

const (
	keepAliveInterval = time.Duration(float64(time.Second) * intervalCorrectionFactor)
	discoveryInterval = time.Duration(float64(10*time.Second) * intervalCorrectionFactor)

	// defaultSyncUniverse is the universe number Flush uses to carry the
	// SYNC packet: the highest valid universe number.
	defaultSyncUniverse = 63999

	// terminatedPacketCount is how many Stream_Terminated packets
	// Deactivate sends before removing an output.
	terminatedPacketCount = 3
)

// Sender is the sACN sender engine: a periodic emitter that drives
// per-universe keep-alive, sub-samples changes at FPS, broadcasts universe
// discovery, and supports synchronized multi-universe flush.
type Sender struct {
	sock   SendSocket
	logger Logger

	cid        CID
	sourceName string

	bindAddress string
	bindPort    int
	fps         int

	discoveryEnabled          bool
	perAddressPriorityEnabled bool

	outputsMu sync.Mutex
	outputs   map[uint16]*output

	manualFlushMu sync.Mutex
	manualFlush   bool

	syncSeqMu sync.Mutex
	syncSeq   uint8

	lastDiscoveryMu sync.Mutex
	lastDiscovery   time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// SenderOption configures a Sender at construction time.
type SenderOption func(*Sender)

// WithSenderLogger injects a Logger, overriding the no-op default.
func WithSenderLogger(l Logger) SenderOption {
	return func(s *Sender) { s.logger = orNoop(l) }
}

// WithSendSocket injects a SendSocket, overriding the real UDP
// implementation.
func WithSendSocket(sock SendSocket) SenderOption {
	return func(s *Sender) { s.sock = sock }
}

// WithCID overrides the randomly generated CID.
func WithCID(cid CID) SenderOption {
	return func(s *Sender) { s.cid = cid }
}

// WithFPS overrides the default 30 FPS emission rate.
func WithFPS(fps int) SenderOption {
	return func(s *Sender) { s.fps = fps }
}

// WithUniverseDiscovery toggles the periodic discovery broadcast (default
// enabled).
func WithUniverseDiscovery(enabled bool) SenderOption {
	return func(s *Sender) { s.discoveryEnabled = enabled }
}

// WithPerAddressPriority enables the optional 0xDD per-slot priority send
// path (SPEC_FULL.md supplement 1; default disabled).
func WithPerAddressPriority(enabled bool) SenderOption {
	return func(s *Sender) { s.perAddressPriorityEnabled = enabled }
}

// NewSender constructs a sender. bindAddress defaults to "0.0.0.0" and
// bindPort to Port (5568) when zero values are passed; fps defaults to 30
// and universe discovery defaults to enabled.
func NewSender(bindAddress string, bindPort int, sourceName string, opts ...SenderOption) *Sender {
	if bindAddress == "" {
		bindAddress = "0.0.0.0"
	}
	if bindPort == 0 {
		bindPort = Port
	}

	s := &Sender{
		logger:           noopLogger{},
		cid:              NewCID(),
		sourceName:       sourceName,
		bindAddress:      bindAddress,
		bindPort:         bindPort,
		fps:              30,
		discoveryEnabled: true,
		outputs:          map[uint16]*output{},
		done:             make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ActivateOutput creates a universe's output record, defaulting priority
// to DefaultPriority, TTL to DefaultTTL, and destination to multicast.
// Calling it again on an already-active universe is a no-op.
func (s *Sender) ActivateOutput(universe uint16) error {
	if err := CheckUniverse(int(universe)); err != nil {
		return err
	}

	s.outputsMu.Lock()
	defer s.outputsMu.Unlock()
	if _, ok := s.outputs[universe]; ok {
		return nil
	}
	s.outputs[universe] = newOutput(s.cid, s.sourceName, universe)
	return nil
}

// DeactivateOutput emits three Stream_Terminated packets (best-effort) and
// removes the universe's output record. A universe that was never
// activated is a silent no-op.
func (s *Sender) DeactivateOutput(universe uint16) error {
	if err := CheckUniverse(int(universe)); err != nil {
		return err
	}

	s.outputsMu.Lock()
	out, ok := s.outputs[universe]
	if ok {
		delete(s.outputs, universe)
	}
	s.outputsMu.Unlock()

	if !ok {
		return nil
	}

	out.markTerminated()
	for i := 0; i < terminatedPacketCount; i++ {
		s.emit(universe, out) // best-effort: errors are logged, not surfaced
	}
	return nil
}

// MoveUniverse relocates an active output from one universe number to
// another, per original_source/sender.py.move_universe: deactivate (with
// its three terminated packets) on the old number, then reactivate under
// the new one carrying over all prior settings.
func (s *Sender) MoveUniverse(from, to uint16) error {
	if err := CheckUniverse(int(from)); err != nil {
		return err
	}
	if err := CheckUniverse(int(to)); err != nil {
		return err
	}

	s.outputsMu.Lock()
	out, ok := s.outputs[from]
	s.outputsMu.Unlock()
	if !ok {
		return nil
	}

	if err := s.DeactivateOutput(from); err != nil {
		return err
	}

	out.mu.Lock()
	out.packet.Universe = to
	out.packet.StreamTerminated = false
	if out.priority != nil {
		out.priority.Universe = to
	}
	out.dirty = true
	out.mu.Unlock()

	s.outputsMu.Lock()
	s.outputs[to] = out
	s.outputsMu.Unlock()
	return nil
}

// ActiveOutputs returns the universes with an active output, per
// original_source/sender.py.get_active_outputs.
func (s *Sender) ActiveOutputs() []uint16 {
	s.outputsMu.Lock()
	defer s.outputsMu.Unlock()
	out := make([]uint16, 0, len(s.outputs))
	for u := range s.outputs {
		out = append(out, u)
	}
	return out
}

// Output returns a read-only snapshot of an active output, per
// original_source/sender.py.__getitem__.
func (s *Sender) Output(universe uint16) (OutputView, bool) {
	s.outputsMu.Lock()
	out, ok := s.outputs[universe]
	s.outputsMu.Unlock()
	if !ok {
		return OutputView{}, false
	}
	return out.view(universe), true
}

func (s *Sender) mustOutput(universe uint16) (*output, error) {
	s.outputsMu.Lock()
	out, ok := s.outputs[universe]
	s.outputsMu.Unlock()
	if !ok {
		return nil, invalidArgument("universe", "not active")
	}
	return out, nil
}

// SetDMXData normalizes data to 512 bytes and marks the output dirty,
// triggering an out-of-cycle emission within one frame interval.
func (s *Sender) SetDMXData(universe uint16, data []byte) error {
	out, err := s.mustOutput(universe)
	if err != nil {
		return err
	}
	out.setData(data)
	return nil
}

// SetPriority validates and updates a universe's priority.
func (s *Sender) SetPriority(universe uint16, priority uint8) error {
	out, err := s.mustOutput(universe)
	if err != nil {
		return err
	}
	return out.setPriority(priority)
}

// SetMulticast toggles multicast (true) vs. unicast (false) delivery.
func (s *Sender) SetMulticast(universe uint16, enabled bool) error {
	out, err := s.mustOutput(universe)
	if err != nil {
		return err
	}
	out.setMulticast(enabled)
	return nil
}

// SetDestination sets the unicast destination used when multicast is
// disabled.
func (s *Sender) SetDestination(universe uint16, dest net.IP) error {
	out, err := s.mustOutput(universe)
	if err != nil {
		return err
	}
	out.setDestination(dest)
	return nil
}

// SetTTL sets the multicast TTL.
func (s *Sender) SetTTL(universe uint16, ttl int) error {
	out, err := s.mustOutput(universe)
	if err != nil {
		return err
	}
	out.setTTL(ttl)
	return nil
}

// SetPreviewData sets the Preview_Data option bit.
func (s *Sender) SetPreviewData(universe uint16, preview bool) error {
	out, err := s.mustOutput(universe)
	if err != nil {
		return err
	}
	out.setPreviewData(preview)
	return nil
}

// SetPerAddressPriorities enables and updates the optional 0xDD per-slot
// priority companion packet for a universe (SPEC_FULL.md supplement 1).
func (s *Sender) SetPerAddressPriorities(universe uint16, priorities []byte) error {
	out, err := s.mustOutput(universe)
	if err != nil {
		return err
	}
	out.setPerAddressPriorities(s.cid, s.sourceName, universe, priorities)
	return nil
}

// SetManualFlush toggles manual-flush mode; while enabled, the loop does
// not emit keep-alive/change packets on its own and the application must
// call Flush explicitly.
func (s *Sender) SetManualFlush(enabled bool) {
	s.manualFlushMu.Lock()
	defer s.manualFlushMu.Unlock()
	s.manualFlush = enabled
}

func (s *Sender) isManualFlush() bool {
	s.manualFlushMu.Lock()
	defer s.manualFlushMu.Unlock()
	return s.manualFlush
}

// Start binds the sender's socket and spawns its worker goroutine. Bind
// failures are surfaced synchronously to the caller.
func (s *Sender) Start() error {
	if s.sock == nil {
		s.sock = NewUDPSendSocket(nil)
	}
	if err := s.sock.Bind(s.bindAddress, s.bindPort); err != nil {
		return err
	}

	s.wg.Add(1)
	go s.run()
	return nil
}

// Stop flips the enable flag; the worker observes it after its current
// sleep. Idempotent and safe even if Start was never called.
func (s *Sender) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	if s.sock != nil {
		_ = s.sock.Close()
	}
}

func (s *Sender) run() {
	defer s.wg.Done()
	s.logger.Infof("sender started bind=%s:%d fps=%d", s.bindAddress, s.bindPort, s.fps)

	frameInterval := time.Second / time.Duration(s.fps)

	for {
		select {
		case <-s.done:
			s.logger.Infof("sender stopped")
			return
		default:
		}

		start := time.Now()
		s.iterate(start)

		elapsed := time.Since(start)
		sleepFor := frameInterval - elapsed
		if sleepFor < 0 {
			sleepFor = 0
		}

		select {
		case <-s.done:
			s.logger.Infof("sender stopped")
			return
		case <-time.After(sleepFor):
		}
	}
}

func (s *Sender) iterate(now time.Time) {
	if s.discoveryEnabled && s.discoveryDue(now) {
		s.sendDiscovery()
	}

	outputs := s.snapshotOutputs()

	if s.perAddressPriorityEnabled {
		for u, out := range outputs {
			if out.perAddressPriority {
				s.emitPriority(u, out, now)
			}
		}
	}

	if s.isManualFlush() {
		return
	}

	for u, out := range outputs {
		if out.shouldSend(now, keepAliveInterval) {
			s.emit(u, out)
			out.markSent(now)
		}
	}
}

// snapshotOutputs copies the current value set so the loop tolerates
// concurrent insertion/removal from the application thread.
func (s *Sender) snapshotOutputs() map[uint16]*output {
	s.outputsMu.Lock()
	defer s.outputsMu.Unlock()
	out := make(map[uint16]*output, len(s.outputs))
	for u, o := range s.outputs {
		out[u] = o
	}
	return out
}

func (s *Sender) discoveryDue(now time.Time) bool {
	s.lastDiscoveryMu.Lock()
	defer s.lastDiscoveryMu.Unlock()
	if now.Sub(s.lastDiscovery) < discoveryInterval {
		return false
	}
	s.lastDiscovery = now
	return true
}

func (s *Sender) sendDiscovery() {
	universes := s.ActiveOutputs()
	if len(universes) == 0 {
		return
	}
	sort.Slice(universes, func(i, j int) bool { return universes[i] < universes[j] })

	for _, page := range BuildDiscoveryPages(s.cid, s.sourceName, universes) {
		if err := s.sock.SendBroadcast(page.Encode(), Port); err != nil {
			s.logger.Warnf("discovery send error: %v", err)
		}
	}
}

// emit sends an output's current DATA PDU to its configured destination
// (multicast group or unicast address).
func (s *Sender) emit(universe uint16, out *output) {
	out.mu.Lock()
	data := out.packet.Encode()
	multicast := out.multicast
	dest := out.destination
	ttl := out.ttl
	out.mu.Unlock()

	var err error
	if multicast {
		err = s.sock.SendMulticast(data, MulticastAddr(universe).IP, Port, ttl)
	} else {
		err = s.sock.SendUnicast(data, dest, Port)
	}
	if err != nil {
		s.logger.Warnf("send error universe=%d: %v", universe, err)
	}
}

func (s *Sender) emitPriority(universe uint16, out *output, now time.Time) {
	out.mu.Lock()
	if out.priority == nil {
		out.mu.Unlock()
		return
	}
	if !out.perAddressPriorityDirty && now.Sub(out.lastPrioritySent) < keepAliveInterval {
		out.mu.Unlock()
		return
	}
	out.priority.Sequence = out.packet.Sequence
	data := out.priority.Encode()
	multicast := out.multicast
	dest := out.destination
	ttl := out.ttl
	out.perAddressPriorityDirty = false
	out.lastPrioritySent = now
	out.mu.Unlock()

	var err error
	if multicast {
		err = s.sock.SendMulticast(data, MulticastAddr(universe).IP, Port, ttl)
	} else {
		err = s.sock.SendUnicast(data, dest, Port)
	}
	if err != nil {
		s.logger.Warnf("priority send error universe=%d: %v", universe, err)
	}
}

// Flush emits every active output followed by one SYNC packet, using the
// E1.31 sync mechanism to try to align receivers that support it. It runs
// on the caller's goroutine, not the sender's loop.
func (s *Sender) Flush() {
	s.FlushWithSyncUniverse(defaultSyncUniverse)
}

// FlushWithSyncUniverse is Flush with an explicit sync universe.
func (s *Sender) FlushWithSyncUniverse(syncUniverse uint16) {
	outputs := s.snapshotOutputs()
	now := time.Now()

	for u, out := range outputs {
		out.mu.Lock()
		out.packet.SyncUniverse = syncUniverse
		out.mu.Unlock()

		s.emit(u, out)
		out.markSent(now)

		out.mu.Lock()
		out.packet.SyncUniverse = 0
		out.mu.Unlock()
	}

	seq := s.nextSyncSequence()
	sync, err := NewSyncPacket(s.cid, seq, syncUniverse)
	if err != nil {
		s.logger.Errorf("flush: invalid sync universe %d: %v", syncUniverse, err)
		return
	}

	if err := s.sock.SendMulticast(sync.Encode(), MulticastAddr(syncUniverse).IP, Port, DefaultTTL); err != nil {
		s.logger.Warnf("sync send error: %v", err)
	}
}

func (s *Sender) nextSyncSequence() uint8 {
	s.syncSeqMu.Lock()
	defer s.syncSeqMu.Unlock()
	seq := s.syncSeq
	s.syncSeq++
	return seq
}
