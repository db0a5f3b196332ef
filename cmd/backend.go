package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/anneal-bench/anneal-bench/internal/config"
	"github.com/anneal-bench/anneal-bench/internal/sapi"
	"github.com/anneal-bench/anneal-bench/internal/sapi/sapitest"
	"github.com/anneal-bench/anneal-bench/internal/secrets"
	"github.com/anneal-bench/anneal-bench/internal/topocache"
	"github.com/anneal-bench/anneal-bench/spinglass/compare"
)

// backend is the solver service a command talks to, either the remote
// service or an in-process emulator.
type backend struct {
	runner   *compare.Runner
	provider *sapi.Provider
	cache    *topocache.Cache
	closers  []func() error
}

func newBackend(cfg *config.Config) (*backend, error) {
	b := &backend{}
	endpoint, token := cfg.Service.Endpoint, ""

	switch cfg.Service.Mode {
	case config.ModeMock:
		fixture := sapitest.DefaultFixture()
		if cfg.Service.MockFixture != "" {
			f, err := sapitest.LoadFixture(cfg.Service.MockFixture)
			if err != nil {
				return nil, err
			}
			fixture = f
		}
		addr, stop, err := startEmulator(fixture, "127.0.0.1:0")
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, stop)
		endpoint, token = "http://"+addr, fixture.Token
		logrus.WithFields(logrus.Fields{"endpoint": endpoint, "solvers": len(fixture.Solvers)}).Info("using solver emulator")
	default:
		loaded, err := secrets.Load(cfg.Secrets.Dir)
		if err != nil {
			return nil, err
		}
		token = secrets.Token(cfg.Service.Token, loaded)
		if token == "" {
			logrus.Warnf("No API token configured; set service.token, %s or %s/%s", secrets.TokenEnv, cfg.Secrets.Dir, secrets.TokenKey)
		}
	}

	client := sapi.NewClient(sapi.Config{
		Endpoint:     endpoint,
		Token:        token,
		Timeout:      cfg.Service.Timeout,
		PollInterval: cfg.Service.PollInterval,
	})
	b.provider = sapi.NewProvider(client)

	var topologies compare.TopologyProvider = b.provider
	if cfg.Topology.CachePath != "" {
		cache, err := topocache.Open(cfg.Topology.CachePath, b.provider, cfg.Topology.CacheTTL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.cache = cache
		b.closers = append(b.closers, cache.Close)
		topologies = cache
	}
	b.runner = compare.NewRunner(topologies, sapi.NewSampler(b.provider), b.provider)
	b.runner.SetCacheTTL(cfg.Service.CatalogTTL)
	return b, nil
}

// Close releases the cache and stops the emulator.
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logrus.WithError(err).Warn("shutdown")
		}
	}
	b.closers = nil
}

// startEmulator serves the emulator on addr and returns the bound address.
func startEmulator(f *sapitest.Fixture, addr string) (string, func() error, error) {
	emu, err := sapitest.NewServer(f)
	if err != nil {
		return "", nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("starting emulator: %w", err)
	}
	srv := &http.Server{Handler: emu}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("emulator stopped")
		}
	}()
	return ln.Addr().String(), srv.Close, nil
}
