package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"leadgrid.org/internal/auth"
	"leadgrid.org/internal/config"
	"leadgrid.org/internal/httpapi"
	"leadgrid.org/internal/importer"
	"leadgrid.org/internal/obs"
	"leadgrid.org/internal/sheets"
	"leadgrid.org/internal/store/memory"
	"leadgrid.org/internal/store/pg"
	"leadgrid.org/internal/token"
)

var version = "dev"

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	tokenCfg, err := cfg.TokenConfig()
	if err != nil {
		log.Fatalf("token config: %v", err)
	}
	codec, err := token.NewCodec(tokenCfg)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	deps := httpapi.Deps{}
	probe := httpapi.ReadyProbe{}

	var users auth.UserStore
	if cfg.PGDSN != "" {
		store, err := pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		defer store.Close()
		users = store.Users()
		deps.Workflows = store.Workflows()
		deps.Appointments = store.Appointments()
		deps.Executions = store.Executions()
		probe.DB = store.DB()
	} else {
		log.Println(`{"level":"warn","msg":"no LEADGRID_PG_DSN set, using in-memory store"}`)
		store := memory.New()
		users = store.Users()
		deps.Workflows = store.Workflows()
		deps.Appointments = store.Appointments()
		deps.Executions = store.Executions()
	}

	deps.Sessions = auth.NewService(users, codec)

	if cfg.SpreadsheetID != "" {
		var opts []option.ClientOption
		if cfg.SheetsCredsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.SheetsCredsFile))
		}
		source, err := sheets.New(context.Background(), cfg.SpreadsheetID, opts...)
		if err != nil {
			log.Fatalf("sheets client: %v", err)
		}
		deps.Importer = importer.New(deps.Workflows, deps.Executions, source)
	} else {
		log.Println(`{"level":"warn","msg":"no LEADGRID_SPREADSHEET_ID set, sheet sync disabled"}`)
	}

	api := httpapi.New(probe, version, deps)
	api.SetRateLimit(cfg.RateLimitBurst, cfg.RateLimitPerSec)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf(`{"level":"info","msg":"http listening","addr":%q,"version":%q}`, cfg.HTTPAddr, version)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Printf(`{"level":"info","msg":"shutting down","signal":%q}`, sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
