package rapi

import (
	"errors"
	"testing"

	"github.com/kilianp07/chargewindow/core/model"
)

func TestChecksumKnownValues(t *testing.T) {
	// '$' 0x24 ^ 'G' 0x47 ^ 'D' 0x44 = 0x27
	if got := Checksum("$GD"); got != 0x27 {
		t.Fatalf("checksum($GD) = %#x, want 0x27", got)
	}
	if got := Frame("$GD"); got != "$GD^27" {
		t.Fatalf("frame = %q", got)
	}
	if got := Frame("$OK"); got != "$OK^20" {
		t.Fatalf("frame = %q", got)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	for _, cmd := range []string{"$GD", "$ST 18 2 6 58", "$OK 0 0 0 0", "$FP 0 0 hello", ""} {
		v, err := Decode(Frame(cmd))
		if err != nil {
			t.Fatalf("decode %q: %v", cmd, err)
		}
		if v != cmd {
			t.Fatalf("round trip %q -> %q", cmd, v)
		}
	}
}

func TestDecodeAcceptsPaddedChecksum(t *testing.T) {
	// checksum of "$OK 1 2 3 4" rendered with and without zero padding
	value := "$OK 1 2 3 4"
	sum := FormatChecksum(Checksum(value))
	if _, err := Decode(value + "^0" + sum); err != nil {
		t.Fatalf("padded checksum rejected: %v", err)
	}
}

func TestDecodeCorruption(t *testing.T) {
	framed := Frame("$OK 18 2 6 58")
	corrupted := []byte(framed)
	corrupted[4] = '9'
	_, err := Decode(string(corrupted))
	var ce *model.ChecksumMismatchError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ChecksumMismatchError, got %v", err)
	}
	if ce.Expected == ce.Received {
		t.Fatalf("expected and received should differ: %+v", ce)
	}
}

func TestDecodeMissingChecksum(t *testing.T) {
	for _, raw := range []string{"$OK", "$OK^", "$OK^zz", ""} {
		_, err := Decode(raw)
		var ce *model.ChecksumMismatchError
		if !errors.As(err, &ce) {
			t.Fatalf("%q: expected ChecksumMismatchError, got %v", raw, err)
		}
	}
}

func TestScheduleCommands(t *testing.T) {
	s := model.Schedule{StartHour: 18, StartMinute: 2, EndHour: 6, EndMinute: 58}
	if got := SetCommand(s); got != "$ST 18 2 6 58" {
		t.Fatalf("set command %q", got)
	}
	if got := ExpectedReport(s); got != "$OK 18 2 6 58" {
		t.Fatalf("report %q", got)
	}
}

func TestParseResponseSplitsAtLastSeparator(t *testing.T) {
	r := ParseResponse(" $OK a^b^3C \n")
	if r.Value != "$OK a^b" || r.Checksum != "3C" {
		t.Fatalf("unexpected split %+v", r)
	}
	r = ParseResponse("$OK")
	if r.Value != "$OK" || r.Checksum != "" {
		t.Fatalf("unexpected split without checksum %+v", r)
	}
}
