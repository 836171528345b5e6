// Command zkvault-server serves the vault HTTP API and a gRPC health endpoint.
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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/credentials"

	"github.com/and161185/zkvault/internal/config"
	"github.com/and161185/zkvault/internal/crypto"
	grpcserver "github.com/and161185/zkvault/internal/server/grpc"
	httpserver "github.com/and161185/zkvault/internal/server/http"
	"github.com/and161185/zkvault/internal/service"
	"github.com/and161185/zkvault/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const healthInterval = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// run wires storage, services and listeners, and blocks until ctx is done
// or a listener fails.
func run(ctx context.Context, cfg config.Server, logger *zap.Logger) error {
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("http", cfg.HTTPAddr),
		zap.String("grpc", cfg.GRPCAddr),
	)

	store, err := openStorage(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := token.NewService([]byte(cfg.SigningKey), cfg.TokenTTL.Duration)
	if err != nil {
		return err
	}
	hasher := crypto.NewHasher(cfg.HashParams(), cfg.HashConcurrency)

	var fallbackSalt []byte
	if cfg.KDFSalt != "" {
		fallbackSalt = []byte(cfg.KDFSalt)
	}
	accounts := service.NewAccountService(store.users, hasher, tokens, fallbackSalt, logger)
	vault := service.NewVaultService(store.items, tokens)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpserver.New(accounts, vault, tokens, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	var opts grpcserver.Options
	opts.Reflection = cfg.Dev
	if cfg.TLSCert != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		opts.Creds = creds
	}
	grpcSrv := grpcserver.New(logger, opts)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("tls", cfg.TLSCert != ""))
		var err error
		if cfg.TLSCert != "" {
			err = httpSrv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		return grpcSrv.Serve(lis)
	})
	g.Go(func() error {
		grpcSrv.WatchStorage(gctx, store, healthInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
		defer cancel()

		grpcSrv.Stop(sctx)
		if err := httpSrv.Shutdown(sctx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
			_ = httpSrv.Close()
		}
		return nil
	})
	return g.Wait()
}
