package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/budgetdesk/internal/api"
	"github.com/dgallion1/budgetdesk/internal/blobstore"
	"github.com/dgallion1/budgetdesk/internal/budget"
	"github.com/dgallion1/budgetdesk/internal/config"
	"github.com/dgallion1/budgetdesk/internal/docstore"
	"github.com/dgallion1/budgetdesk/internal/notify"
	"github.com/dgallion1/budgetdesk/internal/pipeline"
	"github.com/dgallion1/budgetdesk/internal/suggest"
	"github.com/dgallion1/budgetdesk/internal/textextract"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(cfg)
	if err != nil {
		log.Error("open document store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	blobs, err := blobstore.New(cfg.BlobDir)
	if err != nil {
		log.Error("open blob store", "error", err)
		os.Exit(1)
	}

	svc := budget.NewService(store)
	claude := suggest.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, log)
	notifier := notify.FromConfig(
		notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.NotifyFrom,
			To:       cfg.NotifyEmails,
		},
		notify.SMSConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioFrom,
			To:         cfg.NotifyPhones,
		},
	)

	var onMerge pipeline.Notifier
	if notifier.Enabled() {
		onMerge = notifier
	} else {
		log.Info("narrative notifications disabled")
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(pipeline.Options{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
		Extract:      textextract.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	}, blobs, svc, onMerge, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(svc, blobs, orch, claude, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("starting budgetdesk",
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"suggestions", claude.Enabled(),
		"notify_channels", notifier.Names(),
	)

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Error("listen", "addr", httpServer.Addr, "error", err)
		os.Exit(1)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = serve(sigCtx, httpServer, ln, log, func() {
		orch.Stop()
		claude.Close()
		if err := store.Close(); err != nil {
			log.Error("close document store", "error", err)
		}
	})
	if err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// serve runs srv on ln until ctx is done, then shuts it down and runs
// cleanup. It returns only after cleanup has finished.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log *slog.Logger, cleanup func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "error", err)
		}
		cleanup()
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func openStore(cfg config.Config) (docstore.Store, error) {
	if cfg.StoreBackend == "pathstore" {
		return docstore.NewPathstoreStore(cfg.PathstoreURL, cfg.PathstoreAPIKey, cfg.PathstorePrefix), nil
	}
	return docstore.OpenSQLite(cfg.SQLitePath)
}
