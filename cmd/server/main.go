package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"tito-edge/internal/config"
	"tito-edge/internal/logger"
	"tito-edge/internal/metrics"
	"tito-edge/internal/server"
	"tito-edge/internal/worker"
)

func main() {

	// ====================================================================
	// CPU 설정 (컨테이너 vCPU 대응)
	// ====================================================================
	//
	// Go 런타임은 호스트의 모든 논리 코어를 GOMAXPROCS 로 잡는다.
	// 0.25 / 0.5 vCPU 컨테이너에서는 스케줄링 낭비가 생기므로
	// env 로 지정하지 않으면 1 로 둔다.
	// ====================================================================
	if v := os.Getenv("GOMAXPROCS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			runtime.GOMAXPROCS(n)
		}
	} else {
		runtime.GOMAXPROCS(1)
	}

	// ====================================================================
	// Config / Logger / Metrics
	// ====================================================================
	//
	// - Runtime: 리스너 주소, 로그, CORS, upstream, access log shipping
	// - Tito 자격 증명(TITO_*)은 여기서 읽지 않는다. 요청마다 핸들러가 읽는다.
	// ====================================================================
	cfg, err := config.LoadRuntime(nil)
	if err != nil {
		log.Fatalf("[FATAL] invalid runtime config: %v", err)
	}

	lg := logger.New(cfg)
	logger.RedirectStdlog(lg)
	m := metrics.New()

	// ====================================================================
	// Access log shipping (ACCESS_LOG_BUCKET 이 있을 때만)
	// ====================================================================
	var opts []server.Option
	var mgr *worker.Manager

	if cfg.AccessLogEnabled() {
		client, err := worker.NewS3Client(context.Background(), cfg)
		if err != nil {
			lg.Fatal().Err(err).Msg("failed to load AWS config")
		}
		mgr = worker.NewManager(cfg, m, lg, client)
		mgr.Start()
		opts = append(opts, server.WithRecordSink(mgr))

		lg.Info().
			Str("bucket", cfg.AccessLogBucket).
			Str("prefix", cfg.AccessLogPrefix).
			Msg("access log shipping enabled")
	}

	h := server.NewHandler(cfg, lg, m, nil, opts...)

	// ====================================================================
	// HTTP 서버
	// ====================================================================
	//
	// 공개 리스너는 모든 경로를 Handler 에 넘긴다 (라우팅은 Handler 내부).
	// /metrics, /health 는 별도 admin 리스너에만 둔다.
	// ====================================================================
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      h,
		ReadTimeout:  8 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	adminMux := http.NewServeMux()
	adminMux.HandleFunc("/metrics", h.HandleMetrics)
	adminMux.HandleFunc("/health", h.HandleHealth)

	admin := &http.Server{
		Addr:         cfg.AdminAddr,
		Handler:      adminMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		lg.Info().Str("addr", cfg.AdminAddr).Msg("admin listening")
		if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("admin server terminated")
		}
	}()

	// ====================================================================
	// Graceful Shutdown
	// ====================================================================
	//
	// SIGTERM 수신 시:
	//   1) 공개 / admin 서버 종료 (진행 중 요청은 마무리)
	//   2) access log Manager 종료 (남은 배치 업로드)
	// ====================================================================
	idle := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

		sig := <-sigCh
		lg.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			lg.Error().Err(err).Msg("http shutdown")
		}
		if err := admin.Shutdown(ctx); err != nil {
			lg.Error().Err(err).Msg("admin shutdown")
		}

		if mgr != nil {
			lg.Info().Msg("stopping access log manager")
			if err := mgr.Shutdown(ctx); err != nil {
				lg.Error().Err(err).Msg("access log manager shutdown")
			}
		}
		close(idle)
	}()

	lg.Info().Str("addr", cfg.HTTPAddr).Msg("tito edge listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatal().Err(err).Msg("http server terminated")
	}

	<-idle
	lg.Info().Msg("shutdown complete")
}
