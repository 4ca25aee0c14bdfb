package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bpmonitor/internal/config"
	"bpmonitor/internal/logger"
	"bpmonitor/internal/repository"
	"bpmonitor/internal/route"
	"bpmonitor/internal/service"
	"bpmonitor/internal/service/history"
	"bpmonitor/internal/service/ocr"
	"bpmonitor/internal/service/storage"
	"bpmonitor/internal/service/trend"
	"bpmonitor/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      *logger.Logger
	historyRepo repository.HistoryRepository
	hubService  *websocket.HubService
	capture     *storage.CaptureService
	manager     *service.Manager
}

func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	repo, err := OpenHistoryRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	recognizer, err := ocr.New(cfg, log)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}

	judge := trend.NewJudge(trend.Options{
		K:               cfg.TrendK,
		MinAbsThreshold: cfg.TrendMinAbsThreshold,
		MinPoints:       cfg.TrendMinPoints,
	})
	hub := websocket.NewHubService(log)
	mng := service.NewManager(recognizer, judge, history.NewService(repo, log), hub, log)

	var capture *storage.CaptureService
	if cfg.CaptureDirectory != "" {
		capture = storage.NewCaptureService(cfg.CaptureDirectory, cfg.CaptureBufferLimit, log)
		mng.SetCaptureService(capture)
	}

	return &App{
		config:      cfg,
		logger:      log,
		historyRepo: repo,
		hubService:  hub,
		capture:     capture,
		manager:     mng,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	go a.hubService.Run()
	defer a.hubService.Stop()

	if a.capture != nil {
		captureCtx, stopCapture := context.WithCancel(context.Background())
		captureDone := make(chan struct{})
		go func() {
			a.capture.Run(captureCtx, a.config.CaptureFlushInterval)
			close(captureDone)
		}()
		// flush after the server stops so in-flight uploads are kept
		defer func() {
			stopCapture()
			<-captureDone
		}()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           route.SetupRoutes(a.manager, a.config, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("Blood pressure monitor listening on http://localhost:%d", a.config.Port)
	a.logger.Info("History backend: %s, recognizer: %s", a.config.HistoryBackend, a.config.Recognizer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (a *App) Close() error {
	return a.historyRepo.Close()
}
