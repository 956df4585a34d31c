// internal/worker/file_util.go
package worker

import (
	"fmt"
	"sync/atomic"
)

// ------------------------------------------------------------
// S3 object 이름 규칙:
//
//	<prefix>/dt=<YYYY-MM-DD>/hr=<HH>/<unix>_<instance>_<counter>.jsonl.gz
//
// 예:
//
//	access/dt=2026-10-19/hr=08/1792396800_ip-10-0-1-24_000042.jsonl.gz
//
// 이름순 정렬이 곧 시간순 정렬이 되도록 timestamp 를 앞에 둔다.
// ------------------------------------------------------------
var globalCounter uint64

// NextCounter 는 1,000,000 에서 0 으로 돌아가는 순번.
// timestamp + instance 와 함께 쓰이므로 wrap-around 되어도 충돌하지 않는다.
func NextCounter() uint64 {
	return atomic.AddUint64(&globalCounter, 1) % 1_000_000
}

// NewFilename 은 <unix>_<instance>_<counter>.jsonl.gz 를 만든다.
func NewFilename(instanceID string) string {
	return fmt.Sprintf("%d_%s_%06d.jsonl.gz", Unix(), instanceID, NextCounter())
}

// BuildS3Key 는 Athena 파티션 구조의 key 를 만든다. prefix 가 비어 있으면 생략한다.
func BuildS3Key(prefix, filename string) string {
	if prefix == "" {
		return fmt.Sprintf("dt=%s/hr=%s/%s", DT(), HR(), filename)
	}
	return fmt.Sprintf("%s/dt=%s/hr=%s/%s", prefix, DT(), HR(), filename)
}
