package rapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kilianp07/chargewindow/core/model"
)

const separator = "^"

// Checksum returns the XOR of every byte of s.
func Checksum(s string) byte {
	var sum byte
	for i := 0; i < len(s); i++ {
		sum ^= s[i]
	}
	return sum
}

// FormatChecksum renders a checksum in uppercase hexadecimal without padding.
func FormatChecksum(sum byte) string {
	return strconv.FormatUint(uint64(sum), 16)
}

// Frame appends the checksum to cmd.
func Frame(cmd string) string {
	return cmd + separator + strings.ToUpper(FormatChecksum(Checksum(cmd)))
}

// Response is a framed value returned by the charger.
type Response struct {
	Value    string
	Checksum string
}

// ParseResponse splits a raw "<value>^<checksum>" payload. It does not verify
// the checksum; see Validate.
func ParseResponse(raw string) Response {
	raw = strings.TrimSpace(raw)
	i := strings.LastIndex(raw, separator)
	if i < 0 {
		return Response{Value: raw}
	}
	return Response{Value: raw[:i], Checksum: raw[i+1:]}
}

// Validate recomputes the checksum over Value and compares it with the
// transmitted one. A missing or unparsable checksum counts as a mismatch.
func (r Response) Validate() error {
	want := Checksum(r.Value)
	got, err := strconv.ParseUint(r.Checksum, 16, 8)
	if err != nil || byte(got) != want {
		return &model.ChecksumMismatchError{
			Value:    r.Value,
			Expected: strings.ToUpper(FormatChecksum(want)),
			Received: r.Checksum,
		}
	}
	return nil
}

// Decode parses and validates raw in one step.
func Decode(raw string) (string, error) {
	r := ParseResponse(raw)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r.Value, nil
}

// SetCommand builds the "$ST" command programming s.
func SetCommand(s model.Schedule) string {
	return fmt.Sprintf("%s %s", CmdSetSchedule, s)
}

// ExpectedReport is the "$GD" reply of a charger already programmed with s.
func ExpectedReport(s model.Schedule) string {
	return fmt.Sprintf("%s %s", ReplyOK, s)
}
