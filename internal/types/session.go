package types

// EIP4361Payload is the exact Sign-In-with-Ethereum payload issued by
// GET /session/:chainId/:address and reconstructed by POST /session
// (spec §4.9, §6).
type EIP4361Payload struct {
	Domain         string `json:"domain"`
	Address        string `json:"address"`
	Statement      string `json:"statement"`
	URI            string `json:"uri"`
	Version        string `json:"version"`
	ChainID        uint64 `json:"chainId"`
	Nonce          string `json:"nonce"`
	IssuedAt       string `json:"issuedAt"`
	ExpirationTime string `json:"expirationTime"`
}

// Session is the persisted, authenticated session (spec §3).
type Session struct {
	ID        string
	Address   string
	ExpiresAt int64
	Nonce     string
	Domain    string
}

// SessionSummary is the API-facing projection of Session returned by
// POST/GET /session.
type SessionSummary struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	ExpiresAt int64  `json:"expiresAt"`
}
