package sacn

import (
	"net"
	"sync"
	"time"
)

// output is the per-universe sending record: the current DATA PDU
// template, destination, TTL, last-sent timestamp, dirty flag, and an
// optional per-address-priority companion packet.
type output struct {
	mu sync.Mutex

	packet   *DataPacket
	priority *DataPacket // per-address-priority companion, nil unless enabled

	multicast   bool
	destination net.IP
	ttl         int
	dirty       bool
	lastSent    time.Time

	perAddressPriority      bool
	perAddressPriorityDirty bool
	lastPrioritySent        time.Time
}

func newOutput(cid CID, sourceName string, universe uint16) *output {
	pkt, _ := NewDataPacket(DataPacketOptions{
		CID:        cid,
		SourceName: sourceName,
		Universe:   universe,
		Priority:   DefaultPriority,
		StartCode:  StartCodeNull,
	})
	return &output{
		packet:    pkt,
		multicast: true,
		ttl:       DefaultTTL,
		dirty:     true,
	}
}

// OutputView is a read-only snapshot of an active output's settings,
// returned by Sender.Output to avoid exposing the mutable internal
// record, grounded on original_source/sender.py.__getitem__.
type OutputView struct {
	Universe    uint16
	Priority    uint8
	Multicast   bool
	Destination net.IP
	TTL         int
	Data        [dmxSlotCount]byte
}

func (o *output) view(universe uint16) OutputView {
	o.mu.Lock()
	defer o.mu.Unlock()
	return OutputView{
		Universe:    universe,
		Priority:    o.packet.Priority,
		Multicast:   o.multicast,
		Destination: o.destination,
		TTL:         o.ttl,
		Data:        o.packet.Data,
	}
}

// setData sets the DMX payload and marks the output dirty, triggering an
// out-of-cycle emission on the next sender loop iteration.
func (o *output) setData(data []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.packet.SetData(data)
	o.dirty = true
}

func (o *output) setPriority(priority uint8) error {
	if err := CheckPriority(int(priority)); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.packet.Priority = priority
	o.dirty = true
	return nil
}

func (o *output) setMulticast(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.multicast = enabled
	o.dirty = true
}

func (o *output) setDestination(dest net.IP) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destination = dest
	o.dirty = true
}

func (o *output) setTTL(ttl int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ttl = ttl
}

func (o *output) setPreviewData(preview bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.packet.PreviewData = preview
	o.dirty = true
}

// setPerAddressPriorities enables the optional 0xDD per-slot priority
// companion packet.
func (o *output) setPerAddressPriorities(cid CID, sourceName string, universe uint16, priorities []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.priority == nil {
		o.priority, _ = NewDataPacket(DataPacketOptions{
			CID:        cid,
			SourceName: sourceName,
			Universe:   universe,
			Priority:   DefaultPriority,
			StartCode:  StartCodePerAddressPriority,
		})
	}
	o.priority.SetData(priorities)
	o.perAddressPriority = true
	o.perAddressPriorityDirty = true
}

func (o *output) shouldSend(now time.Time, interval time.Duration) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dirty || now.Sub(o.lastSent) >= interval
}

func (o *output) markSent(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastSent = now
	o.dirty = false
	o.packet.IncrementSequence()
}

func (o *output) markTerminated() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.packet.StreamTerminated = true
}
