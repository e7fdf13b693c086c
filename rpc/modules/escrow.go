package modules

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"sponsornet/core"
	"sponsornet/crypto"
	"sponsornet/native/escrow"
)

// EscrowModule exposes read helpers for deal snapshots and event history.
type EscrowModule struct {
	node *core.Node
}

// NewEscrowModule constructs an escrow RPC helper module.
func NewEscrowModule(node *core.Node) *EscrowModule {
	return &EscrowModule{node: node}
}

type listEventsParams struct {
	Prefix string `json:"prefix,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

// DealSnapshotResult is the full read-only view of a deal record, including
// pre-deposit zero values. The required score is a platform constant but is
// reported so clients never hard-code it.
type DealSnapshotResult struct {
	ID                string  `json:"id"`
	Oracle            *string `json:"oracle,omitempty"`
	OracleSet         bool    `json:"oracleSet"`
	Brand             *string `json:"brand,omitempty"`
	Influencer        *string `json:"influencer,omitempty"`
	EscrowBalance     string  `json:"escrowBalance"`
	PlatformFee       string  `json:"platformFee"`
	RequiredScore     uint8   `json:"requiredScore"`
	VerificationScore uint8   `json:"verificationScore"`
	Verified          bool    `json:"isVerified"`
	RetentionEndTick  uint64  `json:"retentionEndTick"`
	CreatedAtTick     uint64  `json:"createdAtTick"`
	Active            bool    `json:"isActive"`
	Paid              bool    `json:"isPaid"`
	Refunded          bool    `json:"isRefunded"`
}

// EscrowEventResult represents an emitted escrow-related event.
type EscrowEventResult struct {
	Sequence   int64             `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

var errModuleOffline = &ModuleError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: "escrow module not initialised"}

// GetSnapshot fetches the canonical deal state for the provided identifier.
func (m *EscrowModule) GetSnapshot(rawID string) (*DealSnapshotResult, *ModuleError) {
	if m == nil || m.node == nil {
		return nil, errModuleOffline
	}
	id, err := parseDealID(rawID)
	if err != nil {
		return nil, &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidParams, Message: err.Error()}
	}
	deal, err := m.node.EscrowGet(id)
	if err != nil {
		if errors.Is(err, core.ErrEscrowNotFound) {
			return nil, &ModuleError{HTTPStatus: http.StatusNotFound, Code: codeNotFound, Message: "escrow not found"}
		}
		return nil, &ModuleError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: err.Error()}
	}
	return formatSnapshotResult(deal), nil
}

// ListEvents returns recent escrow-related events emitted by the node. The
// optional prefix parameter narrows results to a namespace such as
// "escrow.score".
func (m *EscrowModule) ListEvents(raw json.RawMessage) ([]EscrowEventResult, *ModuleError) {
	if m == nil || m.node == nil {
		return nil, errModuleOffline
	}
	var params listEventsParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
		}
	}
	prefix := "escrow."
	if trimmed := strings.TrimSpace(params.Prefix); trimmed != "" {
		prefix = trimmed
	}
	normalizedPrefix := strings.ToLower(prefix)
	events := m.node.Events()
	results := make([]EscrowEventResult, 0, len(events))
	for _, evt := range events {
		if !strings.HasPrefix(strings.ToLower(evt.Type), normalizedPrefix) {
			continue
		}
		attrs := make(map[string]string, len(evt.Attributes))
		for k, v := range evt.Attributes {
			attrs[k] = v
		}
		results = append(results, EscrowEventResult{Type: evt.Type, Attributes: attrs})
	}
	if params.Limit != nil {
		limit := *params.Limit
		if limit < 0 {
			limit = 0
		}
		if limit < len(results) {
			results = results[:limit]
		}
	}
	for i := range results {
		results[i].Sequence = int64(i + 1)
	}
	return results, nil
}

func formatSnapshotResult(deal *escrow.Deal) *DealSnapshotResult {
	if deal == nil {
		return nil
	}
	result := &DealSnapshotResult{
		ID:                formatDealID(deal.ID),
		OracleSet:         deal.OracleSet,
		EscrowBalance:     "0",
		PlatformFee:       "0",
		RequiredScore:     escrow.RequiredScore,
		VerificationScore: deal.VerificationScore,
		Verified:          deal.Verified,
		RetentionEndTick:  deal.RetentionEndTick,
		CreatedAtTick:     deal.CreatedAtTick,
		Active:            deal.Active,
		Paid:              deal.Paid,
		Refunded:          deal.Refunded,
	}
	if deal.EscrowBalance != nil {
		result.EscrowBalance = deal.EscrowBalance.String()
	}
	if deal.PlatformFee != nil {
		result.PlatformFee = deal.PlatformFee.String()
	}
	if deal.OracleSet {
		oracle := crypto.NewAddress(crypto.SPNPrefix, deal.Oracle[:]).String()
		result.Oracle = &oracle
	}
	if deal.Brand != ([20]byte{}) {
		brand := crypto.NewAddress(crypto.SPNPrefix, deal.Brand[:]).String()
		result.Brand = &brand
	}
	if deal.Influencer != ([20]byte{}) {
		influencer := crypto.NewAddress(crypto.SPNPrefix, deal.Influencer[:]).String()
		result.Influencer = &influencer
	}
	return result
}

func parseDealID(id string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return out, errors.New("id required")
	}
	cleaned := strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(cleaned) != 64 {
		return out, errors.New("id must be 32 bytes")
	}
	decoded, err := hex.DecodeString(cleaned)
	if err != nil {
		return out, err
	}
	copy(out[:], decoded)
	return out, nil
}

func formatDealID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}
