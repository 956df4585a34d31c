// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LookupFunc 는 os.LookupEnv 와 같은 시그니처의 env 조회 함수.
// 테스트에서는 map 기반 구현을 주입한다.
type LookupFunc func(key string) (string, bool)

// DefaultUpstreamBase 는 Tito REST API v3 기본 주소.
const DefaultUpstreamBase = "https://api.tito.io/v3"

// Runtime
//
// 프로세스(서버 / Lambda) 시작 시 한 번 로드되는 실행 설정.
// Tito 자격 증명은 여기에 포함되지 않는다. 자격 증명은 요청마다
// LoadTito 로 새로 읽는다.
type Runtime struct {

	// ---------------------------
	// 서버 식별자 / 네트워크
	// ---------------------------

	ServiceName string // 로그 service 필드 (기본: tito-edge)
	InstanceID  string // 호스트명 기반, 실패 시 랜덤 hex
	HTTPAddr    string // 공개 API bind 주소 (예: ":8080")
	AdminAddr   string // /metrics, /health bind 주소 (빈 값이면 비활성)

	// ---------------------------
	// 로깅
	// ---------------------------

	LogLevel   string
	LogPretty  bool
	LogSampleN uint32 // Debug/Info 샘플링 (0/1 = 전부 기록)

	// ---------------------------
	// Upstream (Tito API)
	// ---------------------------

	UpstreamBaseURL string
	UpstreamTimeout time.Duration // 0 이면 transport 기본값만 적용

	// ---------------------------
	// CORS
	// ---------------------------

	AllowedOrigins []string // "*" 포함 시 모든 origin 허용

	// ---------------------------
	// Access log → S3 (선택)
	// ---------------------------

	AWSRegion       string
	AccessLogBucket string // 빈 값이면 shipping 비활성
	AccessLogPrefix string
	ChannelSize     int
	UploadQueue     int
	BatchSize       int
	FlushInterval   time.Duration
	S3Timeout       time.Duration
	S3AppRetries    int
}

// AccessLogEnabled 는 S3 shipping 사용 여부.
func (c Runtime) AccessLogEnabled() bool {
	return c.AccessLogBucket != ""
}

// LoadRuntime
//
// env 기반으로 Runtime 을 초기화한다.
// 값이 없으면 기본값을 쓰고, 값이 있는데 형식이 잘못되면 오류를 모아서 반환한다.
// 호출자(cmd/*)는 오류 시 즉시 종료(fail-fast)한다.
func LoadRuntime(lookup LookupFunc) (Runtime, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	p := parser{lookup: lookup}

	cfg := Runtime{
		ServiceName: p.str("SERVICE_NAME", "tito-edge"),
		InstanceID:  fallbackInstanceID(),
		HTTPAddr:    p.str("HTTP_ADDR", ":8080"),
		AdminAddr:   p.str("ADMIN_ADDR", ":9090"),

		LogLevel:   p.str("LOG_LEVEL", "info"),
		LogPretty:  p.boolean("LOG_PRETTY", false),
		LogSampleN: uint32(p.integer("LOG_SAMPLE_N", 0)),

		UpstreamBaseURL: strings.TrimRight(p.str("TITO_API_BASE", DefaultUpstreamBase), "/"),
		UpstreamTimeout: p.duration("UPSTREAM_TIMEOUT", 0),

		AllowedOrigins: SplitList(p.str("CORS_ALLOWED_ORIGINS", "")),

		AWSRegion:       p.str("AWS_REGION", ""),
		AccessLogBucket: p.str("ACCESS_LOG_BUCKET", ""),
		AccessLogPrefix: strings.Trim(p.str("ACCESS_LOG_PREFIX", "access"), "/"),
		ChannelSize:     p.integer("ACCESS_LOG_CHANNEL_SIZE", 1024),
		UploadQueue:     p.integer("ACCESS_LOG_UPLOAD_QUEUE", 8),
		BatchSize:       p.integer("ACCESS_LOG_BATCH_SIZE", 500),
		FlushInterval:   p.duration("ACCESS_LOG_FLUSH_INTERVAL", 30*time.Second),
		S3Timeout:       p.duration("S3_TIMEOUT", 5*time.Second),
		S3AppRetries:    p.integer("S3_APP_RETRIES", 3),
	}

	if cfg.AccessLogEnabled() {
		if cfg.AWSRegion == "" {
			p.errs = append(p.errs, errors.New("AWS_REGION is required when ACCESS_LOG_BUCKET is set"))
		}
		if cfg.BatchSize <= 0 || cfg.ChannelSize <= 0 || cfg.UploadQueue <= 0 {
			p.errs = append(p.errs, errors.New("access log batch/channel/queue sizes must be positive"))
		}
		if cfg.FlushInterval <= 0 {
			p.errs = append(p.errs, errors.New("ACCESS_LOG_FLUSH_INTERVAL must be positive"))
		}
		if cfg.S3AppRetries < 1 {
			cfg.S3AppRetries = 1
		}
	}

	return cfg, errors.Join(p.errs...)
}

// SplitList 는 콤마 구분 문자열을 공백 제거 후 slice 로 만든다. 빈 항목은 버린다.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser
//
// str / integer / duration / boolean 공통 패턴.
// 형식 오류는 errs 에 쌓아두고 기본값을 돌려준다.
type parser struct {
	lookup LookupFunc
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v, ok := p.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.errs = append(p.errs, fmt.Errorf("invalid int env %s=%q", key, v))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		p.errs = append(p.errs, fmt.Errorf("invalid duration env %s=%q", key, v))
		return def
	}
	return d
}

func (p *parser) boolean(key string, def bool) bool {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid bool env %s=%q", key, v))
		return def
	}
	return b
}

// fallbackInstanceID
//
// 인스턴스 식별 값.
//   - 기본: hostname (Lambda 에서는 sandbox 이름)
//   - fallback: 12자리 랜덤 hex
func fallbackInstanceID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
