package session

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	in := testSession()
	in.IsLoggedIn = true

	data, err := Encode(&in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", *out, in)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	valid, err := Encode(&Session{UserID: "u", SessionToken: "t", IsLoggedIn: true})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "unknown version", data: append([]byte{9}, valid[1:]...)},
		{name: "truncated", data: valid[:len(valid)-1]},
		{name: "trailing bytes", data: append(append([]byte{}, valid...), 0)},
		{name: "json from an older client", data: []byte(`{"isLoggedIn":true}`)},
		{name: "verified without token", data: []byte{sessionFormatVersionCurrent, 0, byte(LevelVerified), 0, 0, 0, 0, 0}},
		{name: "level out of range", data: []byte{sessionFormatVersionCurrent, 0, 42, 0, 0, 0, 0, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.data); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestEncodeRejectsOversizedFields(t *testing.T) {
	s := testSession()
	s.Email = strings.Repeat("a", 256)
	if _, err := Encode(&s); err == nil {
		t.Fatal("expected error for oversized email")
	}
}

func TestParseVerificationLevel(t *testing.T) {
	cases := map[string]VerificationLevel{
		"verified":   LevelVerified,
		" Approved ": LevelVerified,
		"pending":    LevelPending,
		"rejected":   LevelRejected,
		"unverified": LevelUnverified,
		"":           LevelUnset,
		"weird":      LevelUnset,
	}
	for in, want := range cases {
		if got := ParseVerificationLevel(in); got != want {
			t.Fatalf("ParseVerificationLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if LevelPending.NeedsKYC() || LevelVerified.NeedsKYC() {
		t.Fatal("pending/verified must not need KYC")
	}
	if !LevelRejected.NeedsKYC() || !LevelUnverified.NeedsKYC() {
		t.Fatal("rejected/unverified must need KYC")
	}
	if LevelUnset.NeedsKYC() {
		t.Fatal("an unreported level must not need KYC")
	}
}

func TestLevelFromStatus(t *testing.T) {
	status := func(s string) *string { return &s }
	cases := []struct {
		in   *string
		want VerificationLevel
	}{
		{nil, LevelUnset},
		{status(""), LevelUnverified},
		{status("  "), LevelUnverified},
		{status("pending"), LevelPending},
		{status("weird"), LevelUnset},
	}
	for _, tc := range cases {
		if got := LevelFromStatus(tc.in); got != tc.want {
			t.Fatalf("LevelFromStatus(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
