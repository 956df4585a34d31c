package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const (
	corsAllowHeaders = "Content-Type"
	corsAllowMethods = http.MethodGet
	corsMaxAge       = 86400
)

// OriginPolicy 는 CORS 허용 origin 목록. "*" 가 있으면 모든 origin 을 허용한다.
type OriginPolicy struct {
	any     bool
	origins map[string]struct{}
}

// NewOriginPolicy 는 설정값(CORS_ALLOWED_ORIGINS)으로 정책을 만든다.
// 끝의 "/" 는 무시한다. 빈 목록이면 어떤 origin 도 허용하지 않는다.
func NewOriginPolicy(allowed []string) OriginPolicy {
	p := OriginPolicy{origins: make(map[string]struct{}, len(allowed))}
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o == "*" {
			p.any = true
			continue
		}
		p.origins[o] = struct{}{}
	}
	return p
}

// Allowed 는 origin 이 목록에 있는지 확인한다.
func (p OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if p.any {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORSHeaders
//
// 요청에 Origin 이 없으면 빈 헤더를 돌려준다.
// Origin 이 있으면 Allow-Headers / Allow-Methods / Vary / Max-Age 를 항상 넣고,
// Access-Control-Allow-Origin 은 정책이 허용할 때만 요청 origin 그대로 넣는다.
func CORSHeaders(reqHeader http.Header, policy OriginPolicy) http.Header {
	h := make(http.Header)

	origin := reqHeader.Get("Origin")
	if origin == "" {
		return h
	}

	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Vary", "Origin")
	h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))

	if policy.Allowed(origin) {
		h.Set("Access-Control-Allow-Origin", origin)
	}
	return h
}

// isPreflight 는 브라우저 CORS preflight 요청인지 판별한다.
func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

// newPreflight 는 같은 정책으로 rs/cors 핸들러를 만든다. preflight 에만 쓴다.
// 로거가 debug 레벨이면 rs/cors 의 판단 과정도 zerolog 로 남긴다.
func newPreflight(policy OriginPolicy, lg zerolog.Logger) *cors.Cors {
	opts := cors.Options{
		AllowOriginFunc:      policy.Allowed,
		AllowedMethods:       []string{corsAllowMethods},
		AllowedHeaders:       []string{corsAllowHeaders},
		MaxAge:               corsMaxAge,
		OptionsSuccessStatus: http.StatusNoContent,
	}
	if lg.GetLevel() <= zerolog.DebugLevel {
		corsLog := lg.With().Str("component", "cors").Logger()
		opts.Debug = true
		opts.Logger = &corsLog
	}
	return cors.New(opts)
}
