// Package public maintains the group of handlers reachable by wallets and
// other external clients.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	v1 "github.com/denny1997/go-prism-node/business/web/v1"
	"github.com/denny1997/go-prism-node/foundation/web"
	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/miner"
	"github.com/denny1997/go-prism-node/internal/network"
	"github.com/denny1997/go-prism-node/internal/signature"
	"github.com/denny1997/go-prism-node/internal/state"
	"github.com/denny1997/go-prism-node/internal/store"
	"go.uber.org/zap"
)

// Handlers manages the set of externally reachable node endpoints.
type Handlers struct {
	Log         *zap.SugaredLogger
	Stores      *store.Stores
	Broadcaster network.Broadcaster
	MinerHandle miner.Handle
}

// startMiningRequest is the body accepted by StartMining.
type startMiningRequest struct {
	IntervalMillis int `json:"interval_millis" validate:"gte=0"`
}

// StartMining puts the node's miner into continuous mode at the requested
// interval.
func (h Handlers) StartMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req startMiningRequest
	if err := web.Decode(r, &req); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	interval := time.Duration(req.IntervalMillis) * time.Millisecond
	h.MinerHandle.Start(interval)
	h.Log.Infow("mining started", "traceid", v.TraceID, "interval", interval)

	return web.Respond(ctx, w, struct {
		Status string `json:"status"`
	}{Status: "mining started"}, http.StatusOK)
}

// PauseMining suspends the node's miner.
func (h Handlers) PauseMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.MinerHandle.Pause()
	return web.Respond(ctx, w, struct {
		Status string `json:"status"`
	}{Status: "mining paused"}, http.StatusOK)
}

// submitTransactionRequest is the wire shape a wallet posts a signed
// transfer as.
type submitTransactionRequest struct {
	Signature []byte `json:"signature" validate:"required"`
	PublicKey []byte `json:"public_key" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Value     uint32 `json:"value"`
	Nonce     uint32 `json:"nonce"`
}

// SubmitTransaction accepts a wallet-signed transfer, applies the same
// signature and spend checks the gossip ingest path applies, and on
// success inserts it into the pending pool and broadcasts its hash.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req submitTransactionRequest
	if err := web.Decode(r, &req); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	var recipient signature.H160
	if err := recipient.UnmarshalText([]byte(req.Recipient)); err != nil {
		return v1.NewRequestError(fmt.Errorf("invalid recipient: %w", err), http.StatusBadRequest)
	}

	signed := chain.SignedTransaction{
		Signature: req.Signature,
		PublicKey: req.PublicKey,
		Tx: chain.Transaction{
			Recipient: recipient,
			Value:     req.Value,
			Nonce:     req.Nonce,
		},
	}

	if !signed.VerifySignature() {
		return v1.NewRequestError(fmt.Errorf("invalid signature"), http.StatusBadRequest)
	}

	h.Stores.Guard.Lock()
	tip := h.Stores.Chain.Tip()
	tipState, _ := h.Stores.States.Get(tip)
	sender := signed.Sender()
	acc, known := tipState.Accounts[sender]
	var rejected error
	switch {
	case !known:
		if signed.Tx.Value > state.BootstrapBalance {
			rejected = fmt.Errorf("unknown sender cannot spend more than the bootstrap balance")
		}
	default:
		if !(acc.Nonce < signed.Tx.Nonce && acc.Balance >= signed.Tx.Value) {
			rejected = fmt.Errorf("failed spend check")
		}
	}
	if rejected == nil {
		h.Stores.TxPool.Insert(signed)
	}
	h.Stores.Guard.Unlock()

	if rejected != nil {
		return v1.NewRequestError(rejected, http.StatusBadRequest)
	}

	h.Log.Infow("transaction submitted", "traceid", v.TraceID, "hash", signed.Hash(), "from", sender, "to", recipient)
	h.Broadcaster.Broadcast(network.NewTransactionHashes([]hash.H256{signed.Hash()}))

	return web.Respond(ctx, w, struct {
		Status string `json:"status"`
	}{Status: "transaction added to pending pool"}, http.StatusOK)
}

// PendingTransactions returns the set of transactions waiting to be
// committed into a transaction block.
func (h Handlers) PendingTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Stores.TxPool.All(), http.StatusOK)
}

// Accounts returns the account table of the chain's current tip state.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tip := h.Stores.Chain.Tip()
	tipState, _ := h.Stores.States.Get(tip)

	type account struct {
		Address string `json:"address"`
		Nonce   uint32 `json:"nonce"`
		Balance uint32 `json:"balance"`
	}

	out := make([]account, 0, len(tipState.Accounts))
	for addr, acc := range tipState.Accounts {
		out = append(out, account{Address: addr.String(), Nonce: acc.Nonce, Balance: acc.Balance})
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// ChainBlocks returns the proposer blocks making up the longest chain, from
// genesis to the current tip.
func (h Handlers) ChainBlocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hashes := h.Stores.Chain.AllBlocksInLongestChain()

	type blockView struct {
		Hash      string `json:"hash"`
		Parent    string `json:"parent"`
		Nonce     uint32 `json:"nonce"`
		Timestamp uint64 `json:"timestamp"`
	}

	out := make([]blockView, 0, len(hashes))
	for _, h256 := range hashes {
		b, ok := h.Stores.Chain.Get(h256)
		if !ok {
			continue
		}
		out = append(out, blockView{
			Hash:      h256.String(),
			Parent:    b.Header.Parent.String(),
			Nonce:     b.Header.Nonce,
			Timestamp: b.Header.Timestamp,
		})
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}
