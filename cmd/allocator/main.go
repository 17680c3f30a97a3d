// Command allocator boots the Smallocator HTTP service (spec §5, §6):
// loads configuration, verifies the signing identity, opens persistence,
// wires the indexer client and the validate/compact/session services, and
// starts serving. The boot sequence mirrors walletserver/main.go's
// config.Load -> service construction -> router -> ListenAndServe shape.
package main

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"smallocator/internal/api"
	"smallocator/internal/compact"
	"smallocator/internal/config"
	"smallocator/internal/cryptoutil"
	"smallocator/internal/indexer"
	"smallocator/internal/session"
	"smallocator/internal/store"
	"smallocator/internal/validate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("allocator: %v", err)
	}

	expectedSigning := cfg.SigningAddress
	if cfg.SkipSigningVerification {
		expectedSigning = ""
	}
	identity, err := cryptoutil.LoadIdentity(cfg.PrivateKeyHex, expectedSigning)
	if err != nil {
		log.Fatalf("allocator: %v", err)
	}

	db, err := store.Open(context.Background(), "file:allocator.db?_pragma=busy_timeout(5000)")
	if err != nil {
		log.Fatalf("allocator: open store: %v", err)
	}
	defer db.Close()

	idx := indexer.New(cfg.GraphQLEndpoint)

	pipeline := &validate.Pipeline{
		Nonces:  db,
		Indexer: idx,
		Balance: db,
		Config:  cfg,
	}
	compacts := &compact.Service{
		Validate:  pipeline,
		Nonces:    db,
		Store:     db,
		Identity:  identity,
		Allocator: common.HexToAddress(cfg.AllocatorAddress),
	}
	sessions := &session.Service{Store: db, Config: cfg}

	srv := &api.Server{
		Config:    cfg,
		Sessions:  sessions,
		Compacts:  compacts,
		Store:     db,
		Indexer:   idx,
		Balance:   db,
		Identity:  identity,
		Allocator: common.HexToAddress(cfg.AllocatorAddress),
	}

	router := api.NewRouter(srv)

	log.WithFields(log.Fields{
		"port":             cfg.Port,
		"allocatorAddress": cfg.AllocatorAddress,
		"signingAddress":   identity.Address.Hex(),
	}).Info("allocator: starting")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("allocator: %v", err)
	}
}
