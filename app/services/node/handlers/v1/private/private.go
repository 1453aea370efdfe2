// Package private maintains the group of handlers reachable only by other
// nodes for peer management and status exchange.
package private

import (
	"context"
	"fmt"
	"net/http"

	v1 "github.com/denny1997/go-prism-node/business/web/v1"
	"github.com/denny1997/go-prism-node/foundation/web"
	"github.com/denny1997/go-prism-node/internal/network"
	"github.com/denny1997/go-prism-node/internal/transport"
	"go.uber.org/zap"
)

// Handlers manages the set of node-to-node endpoints.
type Handlers struct {
	Log  *zap.SugaredLogger
	Hub  *transport.Hub
	Pool *network.Pool
}

type dialRequest struct {
	Address string `json:"address" validate:"required"`
}

// Dial connects out to a peer address supplied by an operator or another
// node, registering it with the transport hub. This is a direct one-shot
// dial with no retry policy.
func (h Handlers) Dial(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req dialRequest
	if err := web.Decode(r, &req); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if _, err := h.Hub.Dial(req.Address, h.Pool); err != nil {
		return v1.NewRequestError(fmt.Errorf("dialing %s: %w", req.Address, err), http.StatusBadGateway)
	}

	h.Log.Infow("peer dialed", "traceid", v.TraceID, "address", req.Address)

	return web.Respond(ctx, w, struct {
		Status string `json:"status"`
	}{Status: "connected"}, http.StatusOK)
}

// Status reports a lightweight snapshot of the node: its connected peer
// count and how many proposer blocks are currently buffered as orphans
// awaiting a missing parent.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := struct {
		PeerCount   int `json:"peer_count"`
		OrphanCount int `json:"orphan_count"`
	}{
		PeerCount:   h.Hub.PeerCount(),
		OrphanCount: h.Pool.OrphanCount(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}
