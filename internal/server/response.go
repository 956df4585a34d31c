package server

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// 응답 envelope 의 status 값. 클라이언트(위젯)와의 계약이므로 변경 금지.
const (
	StatusBadCount = "BAD_COUNT"
	StatusBadConf  = "BAD_CONF"
	StatusNotFound = "NOT_FOUND"

	// access record outcome 전용 (응답 body 에는 나가지 않음)
	outcomeOK        = "OK"
	outcomePreflight = "PREFLIGHT"
)

// countBody: 200 {"count": <int64>}
type countBody struct {
	Count int64 `json:"count"`
}

// statusBody: 4xx/5xx {"status": "<STATUS>"}
type statusBody struct {
	Status string `json:"status"`
}

// badConfBody 는 인코딩이 불가능할 때 쓰는 고정 envelope.
var badConfBody = []byte(`{"status":"` + StatusBadConf + `"}`)

// writeJSON 은 extra 헤더(CORS)를 먼저 복사한 뒤 JSON body 를 쓴다.
// 인코딩에 실패하면 500 과 고정된 BAD_CONF envelope 를 쓴다.
func writeJSON(w http.ResponseWriter, status int, v any, extra http.Header) {
	h := w.Header()
	for k, vs := range extra {
		for _, v := range vs {
			h.Add(k, v)
		}
	}

	h.Set("Content-Type", "application/json")

	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(badConfBody)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(data)
}
