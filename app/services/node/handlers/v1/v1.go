// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/denny1997/go-prism-node/app/services/node/handlers/v1/private"
	"github.com/denny1997/go-prism-node/app/services/node/handlers/v1/public"
	"github.com/denny1997/go-prism-node/internal/miner"
	"github.com/denny1997/go-prism-node/internal/network"
	"github.com/denny1997/go-prism-node/internal/store"
	"github.com/denny1997/go-prism-node/internal/transport"
	"go.uber.org/zap"

	"github.com/denny1997/go-prism-node/foundation/web"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	Stores      *store.Stores
	Hub         *transport.Hub
	Pool        *network.Pool
	MinerHandle miner.Handle
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:         cfg.Log,
		Stores:      cfg.Stores,
		Broadcaster: cfg.Hub,
		MinerHandle: cfg.MinerHandle,
	}

	app.Handle(http.MethodPost, version, "/miner/start", pbl.StartMining)
	app.Handle(http.MethodPost, version, "/miner/pause", pbl.PauseMining)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/pending/list", pbl.PendingTransactions)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/chain/blocks", pbl.ChainBlocks)
}

// PrivateRoutes binds all the version 1 node-to-node routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:  cfg.Log,
		Hub:  cfg.Hub,
		Pool: cfg.Pool,
	}

	app.Handle(http.MethodPost, version, "/node/peers", prv.Dial)
	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
}
