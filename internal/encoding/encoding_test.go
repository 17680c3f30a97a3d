package encoding

import (
	"strings"
	"testing"
)

func TestParseAddressRejectsMissingPrefix(t *testing.T) {
	if _, err := ParseAddress("f39Fd6e51aad88F6F4ce6aB8827279cffFb92266"); err == nil {
		t.Fatal("expected error for missing 0x prefix")
	}
}

func TestParseAddressChecksums(t *testing.T) {
	addr, err := ParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr.Hex() != "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" {
		t.Errorf("checksum mismatch: %s", addr.Hex())
	}
}

func TestChecksumEqualCaseInsensitive(t *testing.T) {
	a := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	b := "0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266"
	if !ChecksumEqual(a, b) {
		t.Errorf("expected %s and %s to be checksum-equal", a, b)
	}
}

func TestU256Bytes32RoundTrip(t *testing.T) {
	v, err := ParseU256Decimal("1000000000000000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := U256ToBytes32(v)
	back := U256FromBytes32(b)
	if !v.Eq(back) {
		t.Errorf("round trip mismatch: %s != %s", v.Dec(), back.Dec())
	}
	if U256ToDecimalString(v) != "1000000000000000000" {
		t.Errorf("decimal string mismatch: %s", U256ToDecimalString(v))
	}
}

func TestParseU256DecimalRejectsNonDigits(t *testing.T) {
	cases := []string{"-1", "1.5", "0x1", " 1", "1 ", ""}
	for _, c := range cases {
		if _, err := ParseU256Decimal(c); err == nil {
			t.Errorf("expected error parsing %q", c)
		}
	}
}

func TestU256Overflow(t *testing.T) {
	huge := strings.Repeat("9", 100)
	if _, err := ParseU256Decimal(huge); err == nil {
		t.Error("expected overflow error")
	}
}

func TestParseHexBytesStrict(t *testing.T) {
	if _, err := ParseHexBytes("deadbeef"); err == nil {
		t.Error("expected error for missing 0x prefix")
	}
	b, err := ParseHexBytes("0xdeadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if BytesToHex(b) != "0xdeadbeef" {
		t.Errorf("round trip mismatch: %s", BytesToHex(b))
	}
}

func TestParseHexBytesNLengthCheck(t *testing.T) {
	if _, err := ParseHexBytesN("0xdead", 32); err == nil {
		t.Error("expected length mismatch error")
	}
	full := "0x" + strings.Repeat("ab", 32)
	b, err := ParseHexBytesN(full, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b) != 32 {
		t.Errorf("expected 32 bytes, got %d", len(b))
	}
}
