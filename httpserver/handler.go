package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ruteri/secretvault-builder/bootstrap"
)

// BuilderInfoResponse describes the bootstrapped builder.
type BuilderInfoResponse struct {
	DID          string `json:"did"`
	Network      string `json:"network"`
	ChainID      uint64 `json:"chain_id"`
	Registration string `json:"registration"`
}

// Handler serves information about a bootstrapped builder.
type Handler struct {
	result *bootstrap.Result
	log    *slog.Logger
}

// NewHandler creates a handler for the builder in result.
func NewHandler(result *bootstrap.Result, log *slog.Logger) *Handler {
	return &Handler{
		result: result,
		log:    log,
	}
}

// HandleBuilderInfo returns the builder DID, network and registration outcome
// recorded at bootstrap.
//
// URL format: GET /api/builder
func (h *Handler) HandleBuilderInfo(w http.ResponseWriter, r *http.Request) {
	response := BuilderInfoResponse{
		DID:          h.result.DID,
		Network:      h.result.Network.String(),
		ChainID:      h.result.Network.ChainID(),
		Registration: h.result.Registration.Outcome.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleProfile reads the builder profile from the storage nodes.
//
// URL format: GET /api/builder/profile
//
// Node failures are returned as 502 with the node error message.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.result.Client.ReadProfile(r.Context())
	if err != nil {
		h.log.Error("Failed to read builder profile", "err", err, "did", h.result.DID)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"data": profile}); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
