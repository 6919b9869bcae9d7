package sacn

import "testing"

func TestBuildDiscoveryPagesSplitsAt512(t *testing.T) {
	universes := make([]uint16, 1000)
	for i := range universes {
		universes[i] = uint16(i + 1)
	}

	pages := BuildDiscoveryPages(testCID(), "test", universes)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if len(pages[0].Universes) != 512 {
		t.Errorf("page 0 has %d universes, want 512", len(pages[0].Universes))
	}
	if len(pages[1].Universes) != 488 {
		t.Errorf("page 1 has %d universes, want 488", len(pages[1].Universes))
	}
	for _, p := range pages {
		if p.LastPage != 1 {
			t.Errorf("LastPage = %d, want 1", p.LastPage)
		}
	}
	if pages[0].Page != 0 || pages[1].Page != 1 {
		t.Errorf("page numbers wrong: %d, %d", pages[0].Page, pages[1].Page)
	}
}

func TestBuildDiscoveryPagesEmpty(t *testing.T) {
	if pages := BuildDiscoveryPages(testCID(), "test", nil); pages != nil {
		t.Errorf("expected nil pages for empty universe list, got %d", len(pages))
	}
}

func TestDiscoveryPacketEncodeDecodeRoundTrip(t *testing.T) {
	universes := []uint16{1, 2, 3, 500, 63999}
	pkt, err := NewDiscoveryPacket(testCID(), "console-1", 0, 0, universes)
	if err != nil {
		t.Fatalf("NewDiscoveryPacket: %v", err)
	}

	decoded, err := DecodeDiscoveryPacket(pkt.Encode())
	if err != nil {
		t.Fatalf("DecodeDiscoveryPacket: %v", err)
	}
	if decoded.SourceName != pkt.SourceName {
		t.Errorf("SourceName = %q, want %q", decoded.SourceName, pkt.SourceName)
	}
	if len(decoded.Universes) != len(universes) {
		t.Fatalf("got %d universes, want %d", len(decoded.Universes), len(universes))
	}
	for i, u := range universes {
		if decoded.Universes[i] != u {
			t.Errorf("universe[%d] = %d, want %d", i, decoded.Universes[i], u)
		}
	}
}

func TestNewDiscoveryPacketRejectsOverlongPage(t *testing.T) {
	universes := make([]uint16, 513)
	if _, err := NewDiscoveryPacket(testCID(), "test", 0, 0, universes); err == nil {
		t.Fatal("expected error for a page exceeding 512 universes")
	}
}

func FuzzDecodeDiscoveryPacket(f *testing.F) {
	pkt, _ := NewDiscoveryPacket(testCID(), "test", 0, 0, []uint16{1, 2, 3})
	f.Add(pkt.Encode())
	f.Add([]byte{})
	f.Add(make([]byte, 119))
	f.Add(make([]byte, 120))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodeDiscoveryPacket(data) // must not panic
	})
}
