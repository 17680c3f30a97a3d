package cryptoutil

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

const testPrivateKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestLoadIdentityMatchesExpected(t *testing.T) {
	id, err := LoadIdentity(testPrivateKeyHex, testAddress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Address.Hex() != testAddress {
		t.Errorf("address = %s, want %s", id.Address.Hex(), testAddress)
	}
}

func TestLoadIdentityRejectsMismatch(t *testing.T) {
	_, err := LoadIdentity(testPrivateKeyHex, "0x0000000000000000000000000000000000000001")
	if err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestVerifyPersonalSignRoundTrip(t *testing.T) {
	priv, err := crypto.HexToECDSA(testPrivateKeyHex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	message := []byte("example.com wants you to sign in with your Ethereum account:\n" + addr.Hex())
	digest := personalSignDigest(message)
	sig, err := crypto.Sign(digest[:], priv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sig[64] += 27 // emulate the wallet convention of a 27/28 recovery byte

	ok, err := VerifyPersonalSign(message, sig, addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected signature to verify")
	}

	otherPriv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	otherAddr := crypto.PubkeyToAddress(otherPriv.PublicKey)

	ok, err = VerifyPersonalSign(message, sig, otherAddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected signature not to verify against unrelated address")
	}
}
