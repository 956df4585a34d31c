package worker

import (
	"bytes"

	"tito-edge/internal/model"
	"tito-edge/internal/pool"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// Encoder 는 access record 배치를 JSONL → gzip 으로 직렬화한다.
//
// 특징:
//   - goccy/go-json 인코더를 gzip writer 에 직결
//   - gzip.Writer + bytes.Buffer 는 pool 에서 재사용
//   - 결과는 새 []byte 로 복사해 호출자에게 넘긴다 (pool 버퍼 재사용 때문)
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeBatchJSONLGZ 는 레코드 한 개당 한 줄의 JSON 을 쓰고 gzip 으로 닫는다.
func (e *Encoder) EncodeBatchJSONLGZ(records []*model.AccessRecord) ([]byte, error) {
	buf := pool.BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer pool.PutBuffer(buf)

	gz := pool.GzipPool.Get().(*gzip.Writer)
	gz.Reset(buf)
	defer pool.GzipPool.Put(gz)

	enc := json.NewEncoder(gz)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			_ = gz.Close()
			return nil, err
		}
	}

	// Close 시점에 gzip footer 가 쓰인다
	if err := gz.Close(); err != nil {
		return nil, err
	}

	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())
	return data, nil
}

// RecycleRecords 는 배치 안의 레코드를 초기화해서 풀에 돌려준다.
func (e *Encoder) RecycleRecords(records []*model.AccessRecord) {
	for _, rec := range records {
		pool.PutRecord(rec)
	}
}
