package session

import (
	"fmt"

	"smallocator/internal/types"
)

// CanonicalMessage renders the exact EIP-4361 newline layout (spec §6) that
// both the client signs and the server reconstructs for verification.
func CanonicalMessage(p types.EIP4361Payload) string {
	return fmt.Sprintf(
		"%s wants you to sign in with your Ethereum account:\n%s\n\n%s\n\nURI: %s\nVersion: %s\nChain ID: %d\nNonce: %s\nIssued At: %s\nExpiration Time: %s",
		p.Domain, p.Address, p.Statement, p.URI, p.Version, p.ChainID, p.Nonce, p.IssuedAt, p.ExpirationTime,
	)
}
