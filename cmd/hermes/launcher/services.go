package launcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-hermes/hermes"
	"github.com/rony4d/go-hermes/integration"
	"github.com/rony4d/go-hermes/ledger"
	"github.com/rony4d/go-hermes/metrics"
	"github.com/rony4d/go-hermes/multisend"
	"github.com/rony4d/go-hermes/registry"
	"github.com/rony4d/go-hermes/store"
)

// services is everything a command may need, built from one Config. The
// ledger and the registry share the same store handle.
type services struct {
	cfg   Config
	rules hermes.Rules
	log   logrus.FieldLogger

	store    store.Store
	registry *registry.Registry
	batcher  *multisend.MultiSend
	ledger   *ledger.Hermes
	metrics  *metrics.Server
}

func openServices(ctx *cli.Context) (*services, error) {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg, errWriter(ctx))
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	log := logger.WithFields(logrus.Fields{"node": cfg.Node.Name, "network": rules.Name})

	s := &services{cfg: cfg, rules: rules, log: log}
	switch cfg.Store.Backend {
	case integration.StoreMemory:
		s.store = store.NewMemStore()
	default:
		s.store, err = store.OpenBoltStore(cfg.StorePath())
		if err != nil {
			return nil, err
		}
	}

	s.registry = registry.New(registry.Config{
		Store:   s.store,
		Address: rules.Registry.Address,
		Logger:  log,
	})
	s.batcher = multisend.New(rules.Batcher.Operator, rules.Batcher.MinTips, rules.Batcher.Limit, nil)
	s.ledger, err = ledger.New(ledger.Config{
		Store:             s.store,
		Registry:          s.registry,
		Batcher:           s.batcher,
		StartEpoch:        rules.Ledger.StartEpoch,
		AnalyticsEndpoint: rules.Ledger.AnalyticsEndpoint,
		Logger:            log,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	if cfg.Metrics.Enable {
		metrics.BuildInfo.WithLabelValues(ctx.App.Version, rules.Name).Set(1)
		addr := net.JoinHostPort(cfg.Metrics.HTTPAddr, strconv.Itoa(cfg.Metrics.HTTPPort))
		s.metrics, err = metrics.Serve(addr, log)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
	}
	log.WithFields(logrus.Fields{
		"store":    cfg.Store.Backend,
		"operator": s.batcher.Operator().Hex(),
		"limit":    s.batcher.Limit(),
	}).Debug("Services ready")
	return s, nil
}

func (s *services) Close() error {
	if s.metrics != nil {
		if err := s.metrics.Close(); err != nil {
			s.log.WithError(err).Warn("Failed to stop metrics server")
		}
	}
	return s.store.Close()
}

// withServices wraps a command action: it assembles the services, hands the
// action a context cancelled on SIGINT/SIGTERM and closes everything after.
func withServices(fn func(ctx context.Context, c *cli.Context, s *services) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := openServices(c)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return fn(ctx, c, s)
	}
}

func errWriter(ctx *cli.Context) io.Writer {
	if ctx.App.ErrWriter != nil {
		return ctx.App.ErrWriter
	}
	return os.Stderr
}
