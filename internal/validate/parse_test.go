package validate

import (
	"testing"

	"smallocator/internal/apperr"
	"smallocator/internal/types"
)

func TestParseChainIDTable(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", "1", false},
		{"valid large", "8453", false},
		{"zero rejected", "0", true},
		{"leading zero rejected", "01", true},
		{"negative rejected", "-1", true},
		{"non-numeric rejected", "abc", true},
		{"decimal point rejected", "1.0", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseChainID(tc.in)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %q, got none", tc.in)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.in, err)
			}
			if tc.wantErr && !apperr.As(err, apperr.BadChainID) {
				t.Fatalf("expected BadChainID, got %v", err)
			}
		})
	}
}

func validInput() types.CompactInput {
	return types.CompactInput{
		Arbiter: testSponsor,
		Sponsor: testSponsor,
		ID:      "50659039041325835497812305942762461323136521209421431599978976023117926760448",
		Nonce:   types.NoNonce,
		Expires: "1700003600",
		Amount:  "1000000000000000000",
	}
}

func TestParseStructuralHappyPath(t *testing.T) {
	c, err := Parse(validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ResetPeriodIndex() != 7 {
		t.Errorf("resetPeriodIndex = %d, want 7", c.ResetPeriodIndex())
	}
	if c.AllocatorID().Uint64() != 1 {
		t.Errorf("allocatorId = %v, want 1", c.AllocatorID())
	}
}

func TestParseRejectsBadAddress(t *testing.T) {
	in := validInput()
	in.Sponsor = "not-an-address"
	_, err := Parse(in)
	if !apperr.As(err, apperr.BadAddress) {
		t.Fatalf("expected BadAddress, got %v", err)
	}
}

func TestParseRejectsZeroID(t *testing.T) {
	in := validInput()
	in.ID = "0"
	_, err := Parse(in)
	if !apperr.As(err, apperr.BadID) {
		t.Fatalf("expected BadId, got %v", err)
	}
}

func TestParseRejectsNonDecimalAmount(t *testing.T) {
	in := validInput()
	in.Amount = "1e18"
	_, err := Parse(in)
	if !apperr.As(err, apperr.BadAmount) {
		t.Fatalf("expected BadAmount, got %v", err)
	}
}

func TestParseRejectsZeroExpires(t *testing.T) {
	in := validInput()
	in.Expires = "0"
	_, err := Parse(in)
	if !apperr.As(err, apperr.BadExpires) {
		t.Fatalf("expected BadExpires, got %v", err)
	}
}

func TestParseRejectsUnpairedWitness(t *testing.T) {
	in := validInput()
	typ := "Compact(address arbiter,address sponsor,uint256 nonce,uint256 expires,uint256 id,uint256 amount,bytes32 witness)"
	in.WitnessTypeString = &typ
	_, err := Parse(in)
	if !apperr.As(err, apperr.BadWitnessPair) {
		t.Fatalf("expected BadWitnessPair, got %v", err)
	}
}

func TestParseAcceptsWitnessPair(t *testing.T) {
	in := validInput()
	typ := "Compact(address arbiter,address sponsor,uint256 nonce,uint256 expires,uint256 id,uint256 amount,bytes32 witness)"
	hash := "0x1111111111111111111111111111111111111111111111111111111111111111"
	in.WitnessTypeString = &typ
	in.WitnessHash = &hash
	c, err := Parse(in)
	if err != nil {
		t.Fatalf("unexpected error for a valid witness pair: %v", err)
	}
	if !c.HasWitness() {
		t.Error("HasWitness() = false, want true")
	}
}

func TestParseRejectsMalformedWitnessHash(t *testing.T) {
	in := validInput()
	typ := "Compact(address arbiter,address sponsor,uint256 nonce,uint256 expires,uint256 id,uint256 amount,bytes32 witness)"
	hash := "0x1111"
	in.WitnessTypeString = &typ
	in.WitnessHash = &hash
	_, err := Parse(in)
	if !apperr.As(err, apperr.BadWitnessPair) {
		t.Fatalf("expected BadWitnessPair for a short hash, got %v", err)
	}
}
