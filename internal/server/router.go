package server

import (
	"net/http"
	"strings"

	"tito-edge/internal/apperr"
)

// Route 는 정규화된 경로를 라우팅 테이블에 대조한 결과.
type Route int

const (
	RouteNotFound Route = iota
	RouteTicketCount
)

// PathTicketCount 는 유일하게 지원하는 경로.
const PathTicketCount = "/tickets/count"

func (r Route) String() string {
	if r == RouteTicketCount {
		return "ticket_count"
	}
	return "not_found"
}

// Resolve
//
// 요청의 전체 URL 에서 "https://<Host>" prefix 를 지우고 소문자로 바꾼 뒤
// 라우팅 테이블과 정확히 비교한다.
//
//   - "/tickets/count" → RouteTicketCount
//   - 그 외 전부 (query string 이 붙은 경로 포함) → RouteNotFound
//
// Host 를 알 수 없으면 라우팅하지 않고 ConfigurationMissing 오류를 돌려준다.
// 반환되는 string 은 정규화된 경로 (로그/access record 용).
func Resolve(r *http.Request) (Route, string, error) {
	host := r.Host
	if host == "" {
		return RouteNotFound, "", apperr.E(apperr.ConfigurationMissing, "server.Resolve", "missing host header", nil)
	}
	if r.URL == nil {
		return RouteNotFound, "", apperr.E(apperr.ConfigurationMissing, "server.Resolve", "missing request url", nil)
	}

	prefix := "https://" + host

	var full string
	if r.URL.IsAbs() {
		full = r.URL.String()
	} else {
		full = prefix + r.URL.RequestURI()
	}

	path := strings.ToLower(strings.ReplaceAll(full, prefix, ""))

	switch path {
	case PathTicketCount:
		return RouteTicketCount, path, nil
	default:
		return RouteNotFound, path, nil
	}
}
