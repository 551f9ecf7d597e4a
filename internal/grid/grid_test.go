package grid

import "testing"

func TestKeyRoundTrip(t *testing.T) {
	sites := []Site{{0, 0}, {2, 3}, {7, 7}, {15, 0}}
	for _, want := range sites {
		got, err := ParseKey(want.Key())
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", want.Key(), err)
		}
		if got != want {
			t.Errorf("ParseKey(%q) = %v, want %v", want.Key(), got, want)
		}
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "3", "a_b", "x_1", "1_y"} {
		if _, err := ParseKey(key); err == nil {
			t.Errorf("ParseKey(%q) succeeded, want error", key)
		}
	}
}

func TestIndexRoundTrip(t *testing.T) {
	const cols = 8
	for i := 0; i < 64; i++ {
		site := SiteForIndex(i, cols)
		if got := site.Index(cols); got != i {
			t.Errorf("SiteForIndex(%d).Index() = %d", i, got)
		}
	}
	if got := (Site{Row: 2, Col: 3}).Index(cols); got != 19 {
		t.Errorf("Site(2,3).Index(8) = %d, want 19", got)
	}
}
