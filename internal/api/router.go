package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter configures the full HTTP surface (spec §6), grounded on
// cmd/xchainserver/server.NewRouter's Use+HandleFunc(...).Methods shape.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger)
	r.Use(JSONHeaders)
	r.Use(CORS(s.Config.CORSOrigin))

	r.HandleFunc("/health", s.Health).Methods(http.MethodGet)
	r.HandleFunc("/session/{chainId}/{address}", s.IssueSessionPayload).Methods(http.MethodGet)
	r.HandleFunc("/session", s.CreateSession).Methods(http.MethodPost)

	auth := r.NewRoute().Subrouter()
	auth.Use(s.RequireSession)
	auth.HandleFunc("/session", s.GetSession).Methods(http.MethodGet)
	auth.HandleFunc("/session", s.DeleteSession).Methods(http.MethodDelete)
	auth.HandleFunc("/compact", s.SubmitCompact).Methods(http.MethodPost)
	auth.HandleFunc("/compacts", s.ListCompacts).Methods(http.MethodGet)
	auth.HandleFunc("/compact/{chainId}/{claimHash}", s.GetCompact).Methods(http.MethodGet)
	auth.HandleFunc("/balance/{chainId}/{lockId}", s.GetBalance).Methods(http.MethodGet)
	auth.HandleFunc("/balances", s.ListBalances).Methods(http.MethodGet)
	auth.HandleFunc("/suggested-nonce/{chainId}", s.SuggestedNonce).Methods(http.MethodGet)

	return r
}
