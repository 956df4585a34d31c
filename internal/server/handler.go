package server

import (
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"tito-edge/internal/apperr"
	"tito-edge/internal/config"
	"tito-edge/internal/metrics"
	"tito-edge/internal/model"
	"tito-edge/internal/pool"
	"tito-edge/internal/tito"
	"tito-edge/internal/worker"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// RecordSink 는 access record 를 받아 가는 쪽 (worker.Manager).
// Enqueue 가 false 를 돌려주면 레코드 소유권은 호출자에게 남는다.
type RecordSink interface {
	Enqueue(rec *model.AccessRecord) bool
}

// Option 은 NewHandler 의 선택 설정.
type Option func(*Handler)

// WithLookup 은 Tito 자격 증명 env 조회 함수를 바꾼다 (nil 이면 os.LookupEnv).
func WithLookup(fn config.LookupFunc) Option {
	return func(h *Handler) { h.lookup = fn }
}

// WithRecordSink 는 access record shipping 을 켠다.
func WithRecordSink(s RecordSink) Option {
	return func(h *Handler) { h.sink = s }
}

type Handler struct {
	log       zerolog.Logger
	metrics   *metrics.Metrics
	tito      *tito.Client
	lookup    config.LookupFunc
	origins   OriginPolicy
	preflight *cors.Cors
	sink      RecordSink
}

// NewHandler 는 doer 로 Tito API 를 호출하는 핸들러를 만든다.
// doer 가 nil 이면 UpstreamTimeout 이 적용된 *http.Client 를 쓴다.
func NewHandler(cfg config.Runtime, lg zerolog.Logger, m *metrics.Metrics, doer tito.HTTPDoer, opts ...Option) *Handler {
	if m == nil {
		m = metrics.New()
	}
	if doer == nil {
		doer = &http.Client{Timeout: cfg.UpstreamTimeout}
	}
	base := cfg.UpstreamBaseURL
	if base == "" {
		base = config.DefaultUpstreamBase
	}

	origins := NewOriginPolicy(cfg.AllowedOrigins)
	h := &Handler{
		log:       lg,
		metrics:   m,
		tito:      tito.NewClient(doer, base, lg.With().Str("component", "tito").Logger(), m),
		origins:   origins,
		preflight: newPreflight(origins, lg),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP
//
// 요청 1건 처리 흐름:
//
//	preflight? → 설정 검증 → (토큰 검사) → 라우팅 → ticket count → 응답
//
// 모든 실패는 여기서 JSON envelope 로 바뀐다.
//   - 설정 누락 / Host 없음 / 토큰 검사 실패 → 500 BAD_CONF
//   - upstream 실패 / 응답 형식 오류        → 500 BAD_COUNT
//   - 알 수 없는 경로                       → 404 NOT_FOUND
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	atomic.AddInt64(&h.metrics.HTTPRequestsTotal, 1)

	// --------------------------------------------------------------------
	// 0) /tickets/count 에 대한 CORS preflight 는 upstream 을 건드리지 않고
	//    rs/cors 가 응답. 다른 경로의 preflight 는 일반 흐름(404)으로 간다.
	// --------------------------------------------------------------------
	if isPreflight(r) {
		if route, path, err := Resolve(r); err == nil && route == RouteTicketCount {
			atomic.AddInt64(&h.metrics.HTTPPreflightTotal, 1)
			h.preflight.HandlerFunc(w, r)
			h.record(r, path, http.StatusNoContent, outcomePreflight, start)
			return
		}
	}

	// --------------------------------------------------------------------
	// 1) 설정 검증 (요청마다 새로 로드)
	// --------------------------------------------------------------------
	tc, err := config.LoadTito(h.lookup)
	if err != nil {
		h.log.Error().Err(err).Msg("invalid configuration")
		h.respondStatus(w, r, r.URL.Path, http.StatusInternalServerError, StatusBadConf, nil, start)
		return
	}

	// --------------------------------------------------------------------
	// 2) 토큰 검사 (TITO_TOKEN_CHECK=true 일 때만)
	// --------------------------------------------------------------------
	if tc.TokenCheckEnabled {
		h.log.Debug().Msg("running token check")
		if !h.tito.CheckToken(r.Context(), tc.Token) {
			atomic.AddInt64(&h.metrics.TokenCheckFailedTotal, 1)
			h.log.Error().Msg("token check failed")
			h.respondStatus(w, r, r.URL.Path, http.StatusInternalServerError, StatusBadConf, nil, start)
			return
		}
	}

	// --------------------------------------------------------------------
	// 3) 라우팅
	// --------------------------------------------------------------------
	route, path, err := Resolve(r)
	if err != nil {
		h.log.Error().Err(err).Msg("cannot resolve request path")
		h.respondStatus(w, r, r.URL.Path, http.StatusInternalServerError, StatusBadConf, nil, start)
		return
	}

	switch route {
	case RouteTicketCount:
		h.handleTicketCount(w, r, path, tc, start)
	default:
		h.respondStatus(w, r, path, http.StatusNotFound, StatusNotFound, nil, start)
	}
}

// handleTicketCount 는 CORS 헤더를 붙여 200 {"count":N} 또는 500 BAD_COUNT 로 응답한다.
func (h *Handler) handleTicketCount(w http.ResponseWriter, r *http.Request, path string, tc config.Tito, start time.Time) {
	headers := CORSHeaders(r.Header, h.origins)

	count, err := h.tito.TicketCount(r.Context(), tc.Token, tc.AccountSlug)
	if err != nil {
		h.log.Error().
			Err(err).
			Str("kind", apperr.KindOf(err).String()).
			Msg("failed to fetch ticket count")
		h.respondStatus(w, r, path, http.StatusInternalServerError, StatusBadCount, headers, start)
		return
	}

	writeJSON(w, http.StatusOK, countBody{Count: count}, headers)
	atomic.AddInt64(&h.metrics.CountOKTotal, 1)
	h.record(r, path, http.StatusOK, outcomeOK, start)
}

// respondStatus 는 {"status": ...} envelope 를 쓰고 지표를 갱신한다.
func (h *Handler) respondStatus(w http.ResponseWriter, r *http.Request, path string, code int, status string, headers http.Header, start time.Time) {
	writeJSON(w, code, statusBody{Status: status}, headers)

	switch status {
	case StatusBadConf:
		atomic.AddInt64(&h.metrics.HTTPBadConfTotal, 1)
	case StatusBadCount:
		atomic.AddInt64(&h.metrics.CountFailedTotal, 1)
	case StatusNotFound:
		atomic.AddInt64(&h.metrics.HTTPNotFoundTotal, 1)
	}
	h.record(r, path, code, status, start)
}

// record 는 access 로그 한 줄을 남기고, sink 가 있으면 AccessRecord 를 넘긴다.
// sink 채널이 가득 차 있으면 레코드는 버려진다 (요청 처리를 막지 않음).
func (h *Handler) record(r *http.Request, path string, code int, outcome string, start time.Time) {
	dur := time.Since(start)

	h.log.Info().
		Str("method", r.Method).
		Str("path", path).
		Int("status", code).
		Str("outcome", outcome).
		Dur("duration", dur).
		Msg("request")

	if h.sink == nil {
		return
	}

	rec := pool.GetRecord()
	rec.Ts = worker.Unix()
	rec.Method = r.Method
	rec.Path = path
	rec.Status = code
	rec.Outcome = outcome
	rec.Origin = r.Header.Get("Origin")
	rec.IP = clientIP(r)
	rec.UserAgent = r.UserAgent()
	rec.DurationMs = dur.Milliseconds()

	if !h.sink.Enqueue(rec) {
		pool.PutRecord(rec)
	}
}

// HandleMetrics 는 카운터 값을 text 로 출력한다 (admin 리스너 전용).
func (h *Handler) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, h.metrics.String())
}

// HandleHealth 는 프로세스 생존 확인용. Tito API 는 호출하지 않는다.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

var _ http.Handler = (*Handler)(nil)
