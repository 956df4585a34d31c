// internal/worker/timecache.go
package worker

import (
	"sync/atomic"
	"time"
)

// ------------------------------------------------------------
// 1초 정밀도의 현재 시각 캐시.
//
// 사용처:
//   - AccessRecord.Ts (UTC epoch seconds)
//   - S3 파티션 prefix (dt=YYYY-MM-DD / hr=HH, UTC 기준)
//
// 요청마다 time.Now() 와 Format 을 반복하지 않도록
// 1초 ticker 로 값을 갱신한다.
// ------------------------------------------------------------

var (
	unixSec atomic.Int64
	dtVal   atomic.Value // "YYYY-MM-DD"
	hrVal   atomic.Value // "HH"
)

func init() {
	store(time.Now())

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for now := range ticker.C {
			store(now)
		}
	}()
}

func store(now time.Time) {
	utc := now.UTC()
	unixSec.Store(utc.Unix())
	dtVal.Store(utc.Format("2006-01-02"))
	hrVal.Store(utc.Format("15"))
}

// Unix returns current UTC epoch seconds (cached, 1-second precision).
func Unix() int64 {
	return unixSec.Load()
}

// DT returns "YYYY-MM-DD" (UTC).
func DT() string {
	return dtVal.Load().(string)
}

// HR returns "HH" (UTC).
func HR() string {
	return hrVal.Load().(string)
}
