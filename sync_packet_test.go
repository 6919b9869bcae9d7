package sacn

import "testing"

func TestNewSyncPacketValidation(t *testing.T) {
	if _, err := NewSyncPacket(testCID(), 0, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewSyncPacket(testCID(), 0, 0); err != nil {
		t.Fatalf("sync universe 0 should be valid: %v", err)
	}
	if _, err := NewSyncPacket(testCID(), 0, 64000); err == nil {
		t.Fatal("expected error for out-of-range sync universe")
	}
}

func TestSyncPacketEncodeLength(t *testing.T) {
	pkt, _ := NewSyncPacket(testCID(), 5, 63999)
	if got := len(pkt.Encode()); got != 49 {
		t.Fatalf("Encode() length = %d, want 49", got)
	}
}

func TestSyncPacketEncodeDecodeRoundTrip(t *testing.T) {
	pkt, _ := NewSyncPacket(testCID(), 200, 63999)
	decoded, err := DecodeSyncPacket(pkt.Encode())
	if err != nil {
		t.Fatalf("DecodeSyncPacket: %v", err)
	}
	if decoded.CID != pkt.CID {
		t.Errorf("CID mismatch")
	}
	if decoded.Sequence != pkt.Sequence {
		t.Errorf("Sequence = %d, want %d", decoded.Sequence, pkt.Sequence)
	}
	if decoded.SyncUniverse != pkt.SyncUniverse {
		t.Errorf("SyncUniverse = %d, want %d", decoded.SyncUniverse, pkt.SyncUniverse)
	}
}

func TestDecodeSyncPacketRejectsShortBuffer(t *testing.T) {
	if _, err := DecodeSyncPacket(make([]byte, 48)); err == nil {
		t.Fatal("expected error for buffer shorter than 49 bytes")
	}
}

func FuzzSyncPacketEncodeDecodeRoundTrip(f *testing.F) {
	f.Add(uint8(0), uint16(1))
	f.Add(uint8(255), uint16(63999))
	f.Add(uint8(128), uint16(0))

	f.Fuzz(func(t *testing.T, seq uint8, syncUniverse uint16) {
		pkt, err := NewSyncPacket(testCID(), seq, syncUniverse)
		if err != nil {
			return
		}
		decoded, err := DecodeSyncPacket(pkt.Encode())
		if err != nil {
			t.Fatalf("DecodeSyncPacket: %v", err)
		}
		if decoded.Sequence != seq || decoded.SyncUniverse != syncUniverse {
			t.Fatalf("roundtrip mismatch: got seq=%d sync=%d, want seq=%d sync=%d",
				decoded.Sequence, decoded.SyncUniverse, seq, syncUniverse)
		}
	})
}

func FuzzDecodeSyncPacket(f *testing.F) {
	pkt, _ := NewSyncPacket(testCID(), 1, 1)
	f.Add(pkt.Encode())
	f.Add([]byte{})
	f.Add(make([]byte, 48))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodeSyncPacket(data) // must not panic
	})
}
