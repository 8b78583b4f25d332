package terminal

import (
	"testing"
)

// drainEvents collects all buffered events from the reader channel
func drainEvents(r *inputReader) []Event {
	var evs []Event
	for {
		select {
		case ev := <-r.eventCh:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

// parse runs parseInput over data and returns events plus consumed count
func parse(t *testing.T, data []byte) ([]Event, int) {
	t.Helper()
	r := newInputReader(nil)
	n := r.parseInput(data)
	return drainEvents(r), n
}

// ============================================================================
// Printable and Control Input
// ============================================================================

func TestParsePrintableASCII(t *testing.T) {
	evs, n := parse(t, []byte("abc"))

	if n != 3 {
		t.Fatalf("consumed = %d, want 3", n)
	}
	if len(evs) != 3 {
		t.Fatalf("events = %d, want 3", len(evs))
	}
	for i, want := range []rune{'a', 'b', 'c'} {
		if evs[i].Key != KeyRune || evs[i].Rune != want {
			t.Errorf("event %d = {%v %q}, want KeyRune %q", i, evs[i].Key, evs[i].Rune, want)
		}
	}
}

func TestParseControlCharacters(t *testing.T) {
	tests := []struct {
		b    byte
		want Key
	}{
		{0x03, KeyCtrlC},
		{0x09, KeyTab},
		{0x0d, KeyEnter},
		{0x0a, KeyEnter},
		{0x12, KeyCtrlR},
		{0x1a, KeyCtrlZ},
	}

	for _, tt := range tests {
		evs, _ := parse(t, []byte{tt.b})
		if len(evs) != 1 || evs[0].Key != tt.want {
			t.Errorf("control 0x%02x -> %v, want %v", tt.b, evs, tt.want)
		}
	}
}

func TestParseDEL(t *testing.T) {
	evs, _ := parse(t, []byte{0x7f})
	if len(evs) != 1 || evs[0].Key != KeyBackspace {
		t.Errorf("DEL -> %v, want KeyBackspace", evs)
	}
}

// ============================================================================
// Escape Sequences
// ============================================================================

func TestParseCSIArrows(t *testing.T) {
	tests := []struct {
		seq  string
		want Key
		mod  Modifier
	}{
		{"\x1b[A", KeyUp, ModNone},
		{"\x1b[B", KeyDown, ModNone},
		{"\x1b[C", KeyRight, ModNone},
		{"\x1b[D", KeyLeft, ModNone},
		{"\x1b[1;5C", KeyRight, ModCtrl},
		{"\x1b[Z", KeyBacktab, ModShift},
		{"\x1b[3~", KeyDelete, ModNone},
		{"\x1b[5~", KeyPageUp, ModNone},
	}

	for _, tt := range tests {
		evs, n := parse(t, []byte(tt.seq))
		if n != len(tt.seq) {
			t.Errorf("%q consumed = %d, want %d", tt.seq, n, len(tt.seq))
		}
		if len(evs) != 1 || evs[0].Key != tt.want || evs[0].Modifiers != tt.mod {
			t.Errorf("%q -> %+v, want key %v mod %v", tt.seq, evs, tt.want, tt.mod)
		}
	}
}

func TestParseSS3Keys(t *testing.T) {
	evs, _ := parse(t, []byte("\x1bOP"))
	if len(evs) != 1 || evs[0].Key != KeyF1 {
		t.Errorf("SS3 P -> %v, want KeyF1", evs)
	}
}

func TestParseAltPrintable(t *testing.T) {
	evs, _ := parse(t, []byte("\x1bx"))
	if len(evs) != 1 || evs[0].Key != KeyRune || evs[0].Rune != 'x' || evs[0].Modifiers != ModAlt {
		t.Errorf("ESC x -> %+v, want Alt+x", evs)
	}
}

func TestParseIncompleteCSIWaits(t *testing.T) {
	// Truncated sequence must not be consumed; the reader waits for more bytes
	evs, n := parse(t, []byte("\x1b[1;5"))
	if n != 0 {
		t.Errorf("incomplete CSI consumed = %d, want 0", n)
	}
	if len(evs) != 0 {
		t.Errorf("incomplete CSI emitted %d events, want 0", len(evs))
	}
}

func TestParseUnknownCSISwallowed(t *testing.T) {
	// Valid but unmapped CSI is consumed without an event
	evs, n := parse(t, []byte("\x1b[99~x"))
	if n != 6 {
		t.Errorf("consumed = %d, want 6", n)
	}
	if len(evs) != 1 || evs[0].Rune != 'x' {
		t.Errorf("events = %+v, want only trailing 'x'", evs)
	}
}

// ============================================================================
// UTF-8 Input
// ============================================================================

func TestParseUTF8(t *testing.T) {
	evs, n := parse(t, []byte("é→🔥"))

	if n != len("é→🔥") {
		t.Fatalf("consumed = %d, want %d", n, len("é→🔥"))
	}
	want := []rune{'é', '→', '🔥'}
	if len(evs) != len(want) {
		t.Fatalf("events = %d, want %d", len(evs), len(want))
	}
	for i, r := range want {
		if evs[i].Rune != r {
			t.Errorf("event %d rune = %q, want %q", i, evs[i].Rune, r)
		}
	}
}

func TestParsePartialUTF8Waits(t *testing.T) {
	full := []byte("🔥")
	evs, n := parse(t, full[:2])
	if n != 0 || len(evs) != 0 {
		t.Errorf("partial UTF-8: consumed=%d events=%d, want 0/0", n, len(evs))
	}
}

// ============================================================================
// SGR Mouse Sequences
// ============================================================================

func TestParseSGRMousePress(t *testing.T) {
	evs, n := parse(t, []byte("\x1b[<0;10;5M"))

	if n != 10 {
		t.Fatalf("consumed = %d, want 10", n)
	}
	if len(evs) != 1 {
		t.Fatalf("events = %d, want 1", len(evs))
	}
	ev := evs[0]
	if ev.Type != EventMouse {
		t.Fatalf("type = %v, want EventMouse", ev.Type)
	}
	// Wire coordinates are 1-indexed
	if ev.MouseX != 9 || ev.MouseY != 4 {
		t.Errorf("position = (%d, %d), want (9, 4)", ev.MouseX, ev.MouseY)
	}
	if ev.MouseBtn != MouseBtnLeft || ev.MouseAction != MouseActionPress {
		t.Errorf("btn/action = %v/%v, want Left/Press", ev.MouseBtn, ev.MouseAction)
	}
}

func TestParseSGRMouseRelease(t *testing.T) {
	evs, _ := parse(t, []byte("\x1b[<0;3;3m"))
	if len(evs) != 1 || evs[0].MouseAction != MouseActionRelease {
		t.Errorf("lowercase m -> %+v, want Release", evs)
	}
}

func TestParseSGRMouseMotion(t *testing.T) {
	// 35 = release-button bits + motion flag
	evs, _ := parse(t, []byte("\x1b[<35;20;10M"))
	if len(evs) != 1 {
		t.Fatalf("events = %d, want 1", len(evs))
	}
	ev := evs[0]
	if ev.MouseAction != MouseActionMove || ev.MouseBtn != MouseBtnNone {
		t.Errorf("motion -> %v/%v, want Move/None", ev.MouseAction, ev.MouseBtn)
	}
	if ev.MouseX != 19 || ev.MouseY != 9 {
		t.Errorf("position = (%d, %d), want (19, 9)", ev.MouseX, ev.MouseY)
	}
}

func TestParseSGRMouseWheel(t *testing.T) {
	evs, _ := parse(t, []byte("\x1b[<64;5;5M"))
	if len(evs) != 1 || evs[0].MouseBtn != MouseBtnWheelUp {
		t.Errorf("wheel -> %+v, want WheelUp", evs)
	}
}

func TestParseSGRMouseModifiers(t *testing.T) {
	// 16 = ctrl flag on left button
	evs, _ := parse(t, []byte("\x1b[<16;1;1M"))
	if len(evs) != 1 || evs[0].Modifiers&ModCtrl == 0 {
		t.Errorf("ctrl+click -> %+v, want ModCtrl set", evs)
	}
}
