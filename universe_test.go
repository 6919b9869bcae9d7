package sacn

import "testing"

func TestMulticastAddrBoundaries(t *testing.T) {
	cases := []struct {
		universe uint16
		want     string
	}{
		{1, "239.255.0.1"},
		{63999, "239.255.249.255"},
		{256, "239.255.1.0"},
		{513, "239.255.2.1"},
	}
	for _, tc := range cases {
		if got := MulticastAddr(tc.universe).IP.String(); got != tc.want {
			t.Errorf("MulticastAddr(%d) = %s, want %s", tc.universe, got, tc.want)
		}
	}
}

func TestCheckUniverseRange(t *testing.T) {
	if err := CheckUniverse(0); err == nil {
		t.Error("universe 0 should be invalid")
	}
	if err := CheckUniverse(64000); err == nil {
		t.Error("universe 64000 should be invalid")
	}
	if err := CheckUniverse(1); err != nil {
		t.Errorf("universe 1 should be valid: %v", err)
	}
	if err := CheckUniverse(63999); err != nil {
		t.Errorf("universe 63999 should be valid: %v", err)
	}
}

func TestCheckPriorityRange(t *testing.T) {
	if err := CheckPriority(201); err == nil {
		t.Error("priority 201 should be invalid")
	}
	if err := CheckPriority(0); err != nil {
		t.Errorf("priority 0 should be valid: %v", err)
	}
	if err := CheckPriority(200); err != nil {
		t.Errorf("priority 200 should be valid: %v", err)
	}
}
