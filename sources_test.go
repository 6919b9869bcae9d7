package sacn

import (
	"testing"
	"time"
)

func TestAcceptSequenceRejectsWithinRejectWindow(t *testing.T) {
	st := newSourceTable()

	if !st.acceptSequence(1, 50) {
		t.Fatal("first packet on a universe must always be accepted")
	}
	if st.acceptSequence(1, 45) {
		t.Error("seq 45 after 50 should be rejected (diff = -5)")
	}
	if !st.acceptSequence(1, 51) {
		t.Error("seq 51 after 50 should be accepted (diff = +1)")
	}
	if !st.acceptSequence(1, 30) {
		t.Error("seq 30 after 51 should be accepted (diff = -21, outside reject window)")
	}
}

func TestRefreshPriorityArbitration(t *testing.T) {
	st := newSourceTable()
	now := time.Unix(0, 0)

	st.refreshPriority(1, 100, now, dataLossTimeout)
	if p, _ := st.activePriority(1); p != 100 {
		t.Fatalf("active priority = %d, want 100", p)
	}

	// A lower priority within the stale window does not replace the winner.
	st.refreshPriority(1, 50, now.Add(10*time.Millisecond), dataLossTimeout)
	if p, _ := st.activePriority(1); p != 100 {
		t.Fatalf("lower priority should not win: active = %d", p)
	}

	// A higher (or equal) priority does replace it.
	st.refreshPriority(1, 150, now.Add(20*time.Millisecond), dataLossTimeout)
	if p, _ := st.activePriority(1); p != 150 {
		t.Fatalf("higher priority should win: active = %d", p)
	}
}

func TestRefreshPriorityReplacesStaleWinner(t *testing.T) {
	st := newSourceTable()
	now := time.Unix(0, 0)

	st.refreshPriority(1, 150, now, dataLossTimeout)
	st.refreshPriority(1, 50, now.Add(dataLossTimeout+time.Millisecond), dataLossTimeout)

	if p, _ := st.activePriority(1); p != 50 {
		t.Fatalf("a stale winner should be replaced even by a lower priority: active = %d", p)
	}
}

func TestSweepTimeoutsRemovesStaleUniverses(t *testing.T) {
	st := newSourceTable()
	now := time.Unix(0, 0)
	st.markAvailable(1, now)

	timedOut := st.sweepTimeouts(now.Add(dataLossTimeout-time.Millisecond), dataLossTimeout)
	if len(timedOut) != 0 {
		t.Fatalf("universe should not time out before dataLossTimeout: got %v", timedOut)
	}

	timedOut = st.sweepTimeouts(now.Add(dataLossTimeout+time.Millisecond), dataLossTimeout)
	if len(timedOut) != 1 || timedOut[0] != 1 {
		t.Fatalf("universe 1 should time out: got %v", timedOut)
	}
}

func TestMarkAvailableReportsFirstSighting(t *testing.T) {
	st := newSourceTable()
	now := time.Unix(0, 0)

	if !st.markAvailable(1, now) {
		t.Error("first sighting of a universe should report wasAbsent = true")
	}
	if st.markAvailable(1, now.Add(time.Second)) {
		t.Error("second sighting of the same universe should report wasAbsent = false")
	}
}

func TestDispatchIfChangedDetectsDuplicate(t *testing.T) {
	st := newSourceTable()
	var data [dmxSlotCount]byte
	data[0] = 1

	if !st.dispatchIfChanged(1, data) {
		t.Error("first frame should always be dispatched")
	}
	if st.dispatchIfChanged(1, data) {
		t.Error("an identical frame should not be re-dispatched")
	}
	data[0] = 2
	if !st.dispatchIfChanged(1, data) {
		t.Error("a changed frame should be dispatched")
	}
}
