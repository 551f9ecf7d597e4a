package link

import (
	"errors"
	"testing"

	"github.com/photonlab/qgrid/internal/grid"
)

func TestSimFireRendersDisc(t *testing.T) {
	sim := NewSimConn(8, 8, 480, 640)

	if err := sim.SendCommand("FIRE_LASER 2 3 100"); err != nil {
		t.Fatalf("FIRE_LASER: %v", err)
	}
	if err := sim.SendCommand("CAPTURE_FRAME"); err != nil {
		t.Fatalf("CAPTURE_FRAME: %v", err)
	}

	data, err := sim.ReceiveFrame(480, 640)
	if err != nil {
		t.Fatalf("ReceiveFrame: %v", err)
	}

	// Cell center for (2, 3) on a 480x640 sensor over an 8x8 grid.
	cx, cy := 3*80+40, 2*60+30
	if data[cy*640+cx] != 255 {
		t.Errorf("cell center (%d, %d) = %d, want 255", cx, cy, data[cy*640+cx])
	}
	// A distant corner stays dark.
	if data[0] != 0 {
		t.Errorf("corner pixel = %d, want 0", data[0])
	}
}

func TestSimReceiveClearsActiveSet(t *testing.T) {
	sim := NewSimConn(8, 8, 480, 640)
	sim.SendCommand("FIRE_LASER 0 0 100")

	if _, err := sim.ReceiveFrame(480, 640); err != nil {
		t.Fatalf("ReceiveFrame: %v", err)
	}

	data, err := sim.ReceiveFrame(480, 640)
	if err != nil {
		t.Fatalf("second ReceiveFrame: %v", err)
	}
	for i, p := range data {
		if p != 0 {
			t.Fatalf("pixel %d = %d after capture, want dark frame", i, p)
		}
	}
}

func TestSimCaptureDarkClears(t *testing.T) {
	sim := NewSimConn(8, 8, 480, 640)
	sim.SendCommand("FIRE_LASER 1 1 100")
	sim.SendCommand("CAPTURE_DARK")

	data, _ := sim.ReceiveFrame(480, 640)
	for _, p := range data {
		if p != 0 {
			t.Fatal("dark capture is not dark")
		}
	}
}

func TestSimDeadSiteNeverIlluminates(t *testing.T) {
	sim := NewSimConn(8, 8, 480, 640)
	sim.SetDead(grid.Site{Row: 4, Col: 4})

	if err := sim.SendCommand("FIRE_LASER 4 4 100"); err != nil {
		t.Fatalf("firing a dead site must still acknowledge: %v", err)
	}
	if len(sim.ActiveSites()) != 0 {
		t.Error("dead site entered the active set")
	}
}

func TestSimPulseOffResonance(t *testing.T) {
	sim := NewSimConn(8, 8, 480, 640)

	if err := sim.SendCommand("APPLY_PULSE 0 2.5 1.0 50 3.14159"); err != nil {
		t.Fatalf("on-resonance pulse rejected: %v", err)
	}
	err := sim.SendCommand("APPLY_PULSE 0 4.0 1.0 50 0")
	if err == nil {
		t.Fatal("off-resonance pulse accepted")
	}
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("error = %v, want ErrProtocol", err)
	}
}

func TestSimRejectsUnknownCommand(t *testing.T) {
	sim := NewSimConn(8, 8, 480, 640)
	err := sim.SendCommand("SELF_DESTRUCT")
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("error = %v, want ErrProtocol", err)
	}
}

func TestSimFrameSizeMismatch(t *testing.T) {
	sim := NewSimConn(8, 8, 480, 640)
	if _, err := sim.ReceiveFrame(100, 100); !errors.Is(err, ErrProtocol) {
		t.Errorf("error = %v, want ErrProtocol", err)
	}
}

func TestSimDeterministicFrames(t *testing.T) {
	render := func() []byte {
		sim := NewSimConn(8, 8, 480, 640)
		sim.SendCommand("FIRE_LASER 0 7 100")
		sim.SendCommand("FIRE_LASER 7 0 100")
		data, err := sim.ReceiveFrame(480, 640)
		if err != nil {
			t.Fatalf("ReceiveFrame: %v", err)
		}
		return data
	}

	a, b := render(), render()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("frames differ at pixel %d", i)
		}
	}
}
