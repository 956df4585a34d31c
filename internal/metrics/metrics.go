package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics 는 edge 핸들러 상태를 나타내는 카운터 모음이다.
// 모든 필드는 atomic 으로만 접근한다.
type Metrics struct {
	// ======================
	// HTTP 레벨 지표
	// ======================

	// HTTPRequestsTotal
	// - ServeHTTP 진입 횟수 (preflight 포함, 결과와 무관).
	HTTPRequestsTotal int64

	// HTTPPreflightTotal
	// - rs/cors 가 처리한 OPTIONS preflight 수.
	HTTPPreflightTotal int64

	// HTTPNotFoundTotal
	// - 404 NOT_FOUND 로 끝난 요청 수.
	HTTPNotFoundTotal int64

	// HTTPBadConfTotal
	// - 500 BAD_CONF 로 끝난 요청 수 (env 누락, Host 누락, 토큰 검사 실패 합산).
	HTTPBadConfTotal int64

	// ======================
	// ticket count 지표
	// ======================

	// CountOKTotal / CountFailedTotal
	// - /tickets/count 의 200 / 500 BAD_COUNT 횟수.
	CountOKTotal     int64
	CountFailedTotal int64

	// TokenCheckFailedTotal
	// - TITO_TOKEN_CHECK=true 에서 hello 호출이 200 이 아니었던 횟수.
	TokenCheckFailedTotal int64

	// ======================
	// Upstream (Tito API) 지표
	// ======================

	// UpstreamRequestsTotal
	// - Dispatch 호출 횟수 (hello + events).
	UpstreamRequestsTotal int64

	// UpstreamErrorsTotal
	// - transport 레벨 실패 (UpstreamUnreachable) 횟수.
	UpstreamErrorsTotal int64

	// UpstreamMalformedTotal
	// - JSON 파싱/추출 실패 횟수.
	UpstreamMalformedTotal int64

	// ======================
	// Access log shipping 지표
	// ======================

	// AccessRecordsEnqueuedTotal / AccessRecordsDroppedTotal
	// - shipping 채널에 들어간 / 채널 full 로 버려진 레코드 수.
	AccessRecordsEnqueuedTotal int64
	AccessRecordsDroppedTotal  int64

	// AccessRecordsStoredTotal
	// - S3 에 저장 완료된 레코드 수 (배치 수가 아님).
	AccessRecordsStoredTotal int64

	// AccessRecordsLostTotal
	// - 재시도까지 모두 실패해서 유실된 레코드 수. 로컬 DLQ 는 없다.
	AccessRecordsLostTotal int64

	// S3PutErrorsTotal
	// - PutObject 실패 시도(attempt) 수.
	S3PutErrorsTotal int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) String() string {
	var sb strings.Builder
	sb.Grow(512)

	fmt.Fprintf(&sb, "http_requests_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsTotal))
	fmt.Fprintf(&sb, "http_preflight_total=%d\n", atomic.LoadInt64(&m.HTTPPreflightTotal))
	fmt.Fprintf(&sb, "http_not_found_total=%d\n", atomic.LoadInt64(&m.HTTPNotFoundTotal))
	fmt.Fprintf(&sb, "http_bad_conf_total=%d\n", atomic.LoadInt64(&m.HTTPBadConfTotal))

	fmt.Fprintf(&sb, "count_ok_total=%d\n", atomic.LoadInt64(&m.CountOKTotal))
	fmt.Fprintf(&sb, "count_failed_total=%d\n", atomic.LoadInt64(&m.CountFailedTotal))
	fmt.Fprintf(&sb, "token_check_failed_total=%d\n", atomic.LoadInt64(&m.TokenCheckFailedTotal))

	fmt.Fprintf(&sb, "upstream_requests_total=%d\n", atomic.LoadInt64(&m.UpstreamRequestsTotal))
	fmt.Fprintf(&sb, "upstream_errors_total=%d\n", atomic.LoadInt64(&m.UpstreamErrorsTotal))
	fmt.Fprintf(&sb, "upstream_malformed_total=%d\n", atomic.LoadInt64(&m.UpstreamMalformedTotal))

	fmt.Fprintf(&sb, "access_records_enqueued_total=%d\n", atomic.LoadInt64(&m.AccessRecordsEnqueuedTotal))
	fmt.Fprintf(&sb, "access_records_dropped_total=%d\n", atomic.LoadInt64(&m.AccessRecordsDroppedTotal))
	fmt.Fprintf(&sb, "access_records_stored_total=%d\n", atomic.LoadInt64(&m.AccessRecordsStoredTotal))
	fmt.Fprintf(&sb, "access_records_lost_total=%d\n", atomic.LoadInt64(&m.AccessRecordsLostTotal))
	fmt.Fprintf(&sb, "s3_put_errors_total=%d\n", atomic.LoadInt64(&m.S3PutErrorsTotal))

	return sb.String()
}
