// internal/apperr/errors.go
package apperr

import (
	"errors"
	"fmt"
)

// Kind
//
// 요청 처리 중 발생할 수 있는 오류의 종류.
// HTTP 응답(BAD_CONF / BAD_COUNT / NOT_FOUND) 매핑은
// server 패키지의 오케스트레이션 경계에서만 수행한다.
type Kind uint8

const (
	KindUnknown Kind = iota

	// ConfigurationMissing: 필수 env(TITO_TOKEN 등) 누락 또는 Host 헤더 없음
	ConfigurationMissing

	// UpstreamUnreachable: Tito API 에 도달하지 못함 (DNS, 연결 거부, timeout, body read 실패)
	UpstreamUnreachable

	// MalformedUpstreamResponse: JSON 파싱 실패 또는 추출 경로의 키/인덱스 누락
	MalformedUpstreamResponse

	// RouteNotFound: 알 수 없는 경로
	RouteNotFound
)

func (k Kind) String() string {
	switch k {
	case ConfigurationMissing:
		return "configuration_missing"
	case UpstreamUnreachable:
		return "upstream_unreachable"
	case MalformedUpstreamResponse:
		return "malformed_upstream_response"
	case RouteNotFound:
		return "route_not_found"
	default:
		return "unknown"
	}
}

// Error
//
// Kind 와 원인(Err)을 함께 들고 다니는 오류 타입.
//   - Op: 실패한 동작 (예: "tito.TicketCount")
//   - Detail: 사람이 읽을 수 있는 부가 정보 (예: 누락된 JSON 경로)
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

// E 는 *Error 를 생성하는 축약 헬퍼.
func E(kind Kind, op, detail string, err error) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 는 같은 Kind 의 *Error 와 비교할 때 true 를 반환한다.
//
//	errors.Is(err, &apperr.Error{Kind: apperr.UpstreamUnreachable})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Detail == "" && t.Err == nil
}

// KindOf 는 오류 체인에서 가장 바깥쪽 *Error 의 Kind 를 찾는다.
// 해당 타입이 없으면 KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
