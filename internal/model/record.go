// internal/model/record.go
package model

// AccessRecord
// ------------------------------------------------------------
// edge 핸들러가 처리한 요청 1건의 접근 기록.
// Handler → Manager → Encoder → S3 업로드까지 그대로 전달된다.
//
// ticket 수치 자체는 담지 않는다. Outcome 은 응답 envelope 의
// status 값(OK / BAD_COUNT / BAD_CONF / NOT_FOUND / PREFLIGHT)이다.
type AccessRecord struct {
	Ts         int64  `json:"ts"`          // 처리 시각 (UTC epoch seconds), worker.Unix() 기반
	Method     string `json:"method"`      // HTTP 메서드
	Path       string `json:"path"`        // host prefix 제거 + 소문자화된 경로
	Status     int    `json:"status"`      // 응답 HTTP status code
	Outcome    string `json:"outcome"`     // 응답 envelope 상태
	Origin     string `json:"origin"`      // Origin 헤더 (CORS)
	IP         string `json:"ip"`          // 클라이언트 IP (CF / XFF / RemoteAddr)
	UserAgent  string `json:"user_agent"`  // User-Agent
	DurationMs int64  `json:"duration_ms"` // 처리 시간
}

// UploadJob
// ------------------------------------------------------------
// Manager 내부에서 배치 단위로 업로드할 때 쓰는 구조체.
type UploadJob struct {
	Records []*AccessRecord
}
