package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"smallocator/internal/apperr"
)

const recentClaimWindow = 3 * time.Hour

// HTTPClient is the production indexer.Client, talking to a remote
// GraphQL endpoint over a plain POST+JSON body.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

// New constructs an HTTPClient against endpoint.
func New(endpoint string) *HTTPClient {
	return &HTTPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func (c *HTTPClient) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return apperr.Wrap(apperr.IndexerUnavailable, "marshal graphql request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return apperr.Wrap(apperr.IndexerUnavailable, "build graphql request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.IndexerUnavailable, "graphql round trip", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.New(apperr.IndexerUnavailable, fmt.Sprintf("indexer returned status %d", resp.StatusCode))
	}

	var gr graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return apperr.Wrap(apperr.IndexerUnavailable, "decode graphql response", err)
	}
	if len(gr.Errors) > 0 {
		return apperr.New(apperr.IndexerUnavailable, fmt.Sprintf("indexer error: %s", gr.Errors[0].Message))
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return apperr.Wrap(apperr.IndexerUnavailable, "unmarshal graphql data", err)
	}
	return nil
}

const compactDetailsQuery = `
query CompactDetails($allocator: String!, $sponsor: String!, $lockId: String!, $chainId: String!, $finalizationTimestamp: String!, $thresholdTimestamp: String!) {
  compactDetails(allocator: $allocator, sponsor: $sponsor, lockId: $lockId, chainId: $chainId, finalizationTimestamp: $finalizationTimestamp, thresholdTimestamp: $thresholdTimestamp) {
    allocatorId
    deltasPositiveSinceFinalization
    resourceLock { withdrawalStatus balance }
    recentClaimHashesWithinWindow
  }
}`

type compactDetailsWire struct {
	CompactDetails *struct {
		AllocatorID                     *string  `json:"allocatorId"`
		DeltasPositiveSinceFinalization []string `json:"deltasPositiveSinceFinalization"`
		ResourceLock                    *struct {
			WithdrawalStatus int    `json:"withdrawalStatus"`
			Balance          string `json:"balance"`
		} `json:"resourceLock"`
		RecentClaimHashesWithinWindow []string `json:"recentClaimHashesWithinWindow"`
	} `json:"compactDetails"`
}

// GetCompactDetails implements Client (spec §4.3a). The two time
// parameters (finalizationTimestamp, thresholdTimestamp) are derived here,
// at query time, from the caller-supplied finalization threshold and the
// fixed 3h recent-claims window, and passed to the indexer as variables.
func (c *HTTPClient) GetCompactDetails(ctx context.Context, allocator, sponsor common.Address, lockID *uint256.Int, chainID uint64, finalizationThresholdSeconds int64) (*CompactDetails, error) {
	now := time.Now()
	finalizationTimestamp := now.Add(-time.Duration(finalizationThresholdSeconds) * time.Second).Unix()
	thresholdTimestamp := now.Add(-recentClaimWindow).Unix()

	var wire compactDetailsWire
	err := c.do(ctx, compactDetailsQuery, map[string]any{
		"allocator":             allocator.Hex(),
		"sponsor":               sponsor.Hex(),
		"lockId":                lockID.Dec(),
		"chainId":               fmt.Sprintf("%d", chainID),
		"finalizationTimestamp": fmt.Sprintf("%d", finalizationTimestamp),
		"thresholdTimestamp":    fmt.Sprintf("%d", thresholdTimestamp),
	}, &wire)
	if err != nil {
		return nil, err
	}
	if wire.CompactDetails == nil {
		return &CompactDetails{}, nil
	}

	out := &CompactDetails{}
	if wire.CompactDetails.AllocatorID != nil {
		v, err := uint256.FromDecimal(*wire.CompactDetails.AllocatorID)
		if err != nil {
			return nil, apperr.New(apperr.IndexerUnavailable, "indexer returned an out-of-range allocatorId")
		}
		out.AllocatorID = v
	}
	for _, d := range wire.CompactDetails.DeltasPositiveSinceFinalization {
		v, err := uint256.FromDecimal(d)
		if err != nil {
			return nil, apperr.New(apperr.IndexerUnavailable, "indexer returned an out-of-range delta")
		}
		out.DeltasPositiveSinceFinalization = append(out.DeltasPositiveSinceFinalization, v)
	}
	if wire.CompactDetails.ResourceLock != nil {
		bal, err := uint256.FromDecimal(wire.CompactDetails.ResourceLock.Balance)
		if err != nil {
			return nil, apperr.New(apperr.IndexerUnavailable, "indexer returned an out-of-range balance")
		}
		out.ResourceLock = &ResourceLockInfo{
			WithdrawalStatus: wire.CompactDetails.ResourceLock.WithdrawalStatus,
			Balance:          bal,
		}
	}
	for _, h := range wire.CompactDetails.RecentClaimHashesWithinWindow {
		b, err := parseHash32(h)
		if err != nil {
			return nil, apperr.Wrap(apperr.IndexerUnavailable, "indexer returned a malformed claim hash", err)
		}
		out.RecentClaimHashesWithinWindow = append(out.RecentClaimHashesWithinWindow, b)
	}
	return out, nil
}

const allResourceLocksQuery = `
query AllResourceLocks($sponsor: String!) {
  allResourceLocks(sponsor: $sponsor) {
    chainId
    lockId
    allocatorAddress
  }
}`

type allResourceLocksWire struct {
	AllResourceLocks []struct {
		ChainID          string `json:"chainId"`
		LockID           string `json:"lockId"`
		AllocatorAddress string `json:"allocatorAddress"`
	} `json:"allResourceLocks"`
}

// GetAllResourceLocks implements Client (spec §4.3b).
func (c *HTTPClient) GetAllResourceLocks(ctx context.Context, sponsor common.Address) ([]ResourceLock, error) {
	var wire allResourceLocksWire
	if err := c.do(ctx, allResourceLocksQuery, map[string]any{"sponsor": sponsor.Hex()}, &wire); err != nil {
		return nil, err
	}

	out := make([]ResourceLock, 0, len(wire.AllResourceLocks))
	for _, rl := range wire.AllResourceLocks {
		chainID, err := parseUint64Decimal(rl.ChainID)
		if err != nil {
			return nil, apperr.Wrap(apperr.IndexerUnavailable, "indexer returned a malformed chainId", err)
		}
		lockID, err := uint256.FromDecimal(rl.LockID)
		if err != nil {
			return nil, apperr.New(apperr.IndexerUnavailable, "indexer returned an out-of-range lockId")
		}
		out = append(out, ResourceLock{
			ChainID:          chainID,
			LockID:           lockID,
			AllocatorAddress: common.HexToAddress(rl.AllocatorAddress),
		})
	}
	return out, nil
}
