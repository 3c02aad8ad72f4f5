package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viant/mcp-protocol/schema"
	mcpsrv "github.com/viant/mcp/server"

	emcp "github.com/viant/edicheck/mcp"
	"github.com/viant/edicheck/service"
)

func serveCmd(args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	common := registerCommon(flags)
	mcpAddr := flags.String("mcp-addr", "", "MCP server address (default from config or 127.0.0.1:6061)")
	withWorker := flags.Bool("worker", false, "also consume the analysis queue")
	flags.Parse(args)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, cfg := openService(ctx, "serve", common)
	defer func() { _ = svc.Close() }()

	addr := resolveMCPAddr(*mcpAddr, cfg)
	server, err := mcpsrv.New(
		mcpsrv.WithImplementation(schema.Implementation{Name: "edicheck-mcp", Version: "0.1.0"}),
		mcpsrv.WithNewHandler(emcp.NewHandler(svc, svc.Embedder(), svc.Logger(),
			emcp.WithEmbedderID(cfg.Embedder.Provider+"/"+cfg.Embedder.Model),
			emcp.WithEmbedCacheSize(cfg.MCPServer.EmbedCacheSize),
		)),
		mcpsrv.WithEndpointAddress(addr),
		mcpsrv.WithRootRedirect(true),
		mcpsrv.WithStreamableURI("/mcp"),
	)
	if err != nil {
		log.Fatal(err)
	}

	workerDone := make(chan error, 1)
	if *withWorker {
		go func() {
			workerDone <- svc.RunWorker(ctx, cfg.Queue.WorkerOptions()...)
		}()
	} else {
		close(workerDone)
	}

	server.UseStreamableHTTP(true)
	httpServer := server.HTTP(ctx, addr)
	httpServer.ReadHeaderTimeout = 10 * time.Second
	httpServer.ReadTimeout = 60 * time.Second
	httpServer.WriteTimeout = 5 * time.Minute
	httpServer.IdleTimeout = 120 * time.Second

	log.Printf("edicheck-mcp listening on %s", httpServer.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %v", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := <-workerDone; err != nil && err != context.Canceled {
		log.Printf("worker stopped: %v", err)
	}
	log.Printf("edicheck-mcp stopped")
}

func resolveMCPAddr(flagAddr string, cfg *service.Config) string {
	if flagAddr != "" {
		return flagAddr
	}
	if cfg != nil {
		if cfg.MCPServer.Addr != "" {
			return cfg.MCPServer.Addr
		}
		if cfg.MCPServer.Port > 0 {
			return fmt.Sprintf("127.0.0.1:%d", cfg.MCPServer.Port)
		}
	}
	return "127.0.0.1:6061"
}
