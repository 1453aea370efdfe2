// This program runs a full Prism node: the account-state machine, the
// proposer/transaction-block miner, the gossip worker pool, the built-in
// transaction generator, and the HTTP control surface used to submit
// transactions, manage mining, and inspect chain state.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"

	v1 "github.com/denny1997/go-prism-node/app/services/node/handlers/v1"
	"github.com/denny1997/go-prism-node/foundation/web"
	"github.com/denny1997/go-prism-node/internal/miner"
	"github.com/denny1997/go-prism-node/internal/network"
	"github.com/denny1997/go-prism-node/internal/store"
	"github.com/denny1997/go-prism-node/internal/transport"
	"github.com/denny1997/go-prism-node/internal/txgen"
)

func main() {
	log, err := newLogger()
	if err != nil {
		fmt.Println("constructing logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.SugaredLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// config is the node's full set of runtime settings, parsed from
// environment variables and flags via ardanlabs/conf.
type config struct {
	conf.Version
	Web struct {
		APIHost string `conf:"default:0.0.0.0:3000"`
	}
	Node struct {
		P2PHost    string        `conf:"default:0.0.0.0:9000"`
		Workers    int           `conf:"default:4"`
		MineOnBoot bool          `conf:"default:true"`
		MineEvery  time.Duration `conf:"default:2s"`
		EnableGen  bool          `conf:"default:true"`
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := config{
		Version: conf.Version{
			Build: "develop",
			Desc:  "go-prism-node",
		},
	}

	help, err := conf.Parse("PRISM", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	log.Infow("startup", "config", out)

	stores := store.New()
	hub := transport.NewHub()

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	pool := network.NewPool(cfg.Node.Workers, stores, hub, ev)

	genesis := stores.Chain.Genesis()
	log.Infow("startup", "genesis", genesis.String())

	var beneficiary [20]byte
	m, minerHandle := miner.New(stores, hub, beneficiary, ev)

	ln, err := net.Listen("tcp", cfg.Node.P2PHost)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Node.P2PHost, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	m.Run()
	go func() {
		if err := hub.Serve(ln, pool); err != nil {
			log.Errorw("p2p listener stopped", "ERROR", err)
		}
	}()

	if cfg.Node.MineOnBoot {
		minerHandle.Start(cfg.Node.MineEvery)
	}

	if cfg.Node.EnableGen {
		gen := txgen.New(stores.TxPool, hub, ev)
		stop := make(chan struct{})
		go gen.Run(stop)
		defer close(stop)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := web.NewApp(shutdown, log)

	apiCfg := v1.Config{
		Log:         log,
		Stores:      stores,
		Hub:         hub,
		Pool:        pool,
		MinerHandle: minerHandle,
	}
	v1.PublicRoutes(app, apiCfg)
	v1.PrivateRoutes(app, apiCfg)

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      app,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
