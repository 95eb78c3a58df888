package handler

import (
	"net/http"

	"github.com/efreitasn/brokerage/internal/engine"
)

// MatchHandler handles HTTP requests for the matching endpoint.
type MatchHandler struct {
	matcher *engine.Matcher
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matcher *engine.Matcher) *MatchHandler {
	return &MatchHandler{matcher: matcher}
}

type matchRequest struct {
	OrderIDs []string `json:"order_ids"`
}

type matchResultResponse struct {
	OrderID string `json:"order_id"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

type matchResponse struct {
	MatchedIDs   []string              `json:"matched_ids"`
	UnmatchedIDs []string              `json:"unmatched_ids"`
	Results      []matchResultResponse `json:"results"`
}

// MatchOrders handles POST /api/match.
func (h *MatchHandler) MatchOrders(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	report, err := h.matcher.MatchOrders(r.Context(), req.OrderIDs)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := matchResponse{
		MatchedIDs:   report.MatchedIDs(),
		UnmatchedIDs: report.UnmatchedIDs(),
		Results:      make([]matchResultResponse, len(report.Results)),
	}
	for i, res := range report.Results {
		resp.Results[i] = matchResultResponse{
			OrderID: res.OrderID,
			Outcome: string(res.Outcome),
		}
		if res.Err != nil {
			resp.Results[i].Error = res.Err.Error()
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}
