// Package main runs the token issuance and transfer HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-token-api/internal/config"
	"solana-token-api/internal/finalizer"
	"solana-token-api/internal/httpapi"
	"solana-token-api/internal/issuance"
	"solana-token-api/internal/keyring"
	"solana-token-api/internal/ledger"
	"solana-token-api/internal/observability"
	"solana-token-api/internal/provision"
	"solana-token-api/internal/registry"
	"solana-token-api/internal/transfer"
)

func main() {
	configDir := flag.String("config-dir", "", "Directory containing config.yaml (default: working directory)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	cfg, err := config.Load(*configDir)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	secret, err := keyring.ParseSecret(cfg.Solana.SecretKey)
	if err != nil {
		logger.Fatalf("parse signing secret: %v", err)
	}
	signer, err := keyring.FromSecretBytes(secret)
	if err != nil {
		logger.Fatalf("resolve signing identity: %v", err)
	}
	logger.Printf("signing identity: %s", signer.PublicKey())

	client := ledger.NewRPCClient(cfg.Solana.RPCURL)
	metrics := observability.NewMetrics("")

	finOpts := []finalizer.Option{finalizer.WithMetrics(metrics)}
	if cfg.Solana.WSURL != "" {
		finOpts = append(finOpts, finalizer.WithConfirmer(ledger.NewWSConfirmer(cfg.Solana.WSURL, nil)))
		logger.Printf("confirming via websocket subscription at %s", cfg.Solana.WSURL)
	}
	fin := finalizer.New(client, finOpts...)

	prov := provision.New(client, fin)

	reg, err := registry.New(registry.Config{
		Token:      cfg.Registry.GithubToken,
		Owner:      cfg.Registry.Owner,
		Repo:       cfg.Registry.Repo,
		BaseBranch: cfg.Registry.BaseBranch,
	})
	if err != nil {
		logger.Fatalf("create registry client: %v", err)
	}

	issuer := issuance.New(issuance.Options{
		Provisioner: prov,
		Finalizer:   fin,
		Registry:    reg,
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
		MetadataURI: cfg.Token.MetadataURI,
		LogoURI:     cfg.Token.LogoURI,
		Website:     cfg.Token.Website,
		Metrics:     metrics,
		Logger:      log.New(os.Stdout, "[issuance] ", log.LstdFlags),
	})
	transferrer := transfer.New(client, prov, fin)

	handler := httpapi.NewHandler(httpapi.Options{
		Issuer:      issuer,
		Transferrer: transferrer,
		Secret:      secret,
		Descriptor: httpapi.MetadataDescriptor{
			Name:        cfg.Token.Name,
			Symbol:      cfg.Token.Symbol,
			Description: cfg.Token.Description,
			Website:     cfg.Token.Website,
			Image:       cfg.Token.LogoURI,
		},
		Metrics: metrics,
		Logger:  log.New(os.Stdout, "[http] ", log.LstdFlags),
	})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	handler.Register(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Printf("listening on %s (rpc: %s)", srv.Addr, cfg.Solana.RPCURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}
