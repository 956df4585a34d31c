package pool

import (
	"bytes"
	"sync"

	"tito-edge/internal/model"

	"github.com/klauspost/compress/gzip"
)

// ---------------------------------------------------------------
// Pool 구성 목적
//
// upstream 응답 body 읽기, access record 생성, gzip 결과 버퍼 생성이
// 요청마다 반복되므로 할당을 재사용한다.
// ---------------------------------------------------------------

var (
	// RecordPool:
	//   - AccessRecord 객체 재사용
	RecordPool = sync.Pool{
		New: func() any { return new(model.AccessRecord) },
	}

	// BodyPool:
	//   - Tito API 응답 body 를 읽는 임시 버퍼
	//   - 초기 용량 16KB (events?view=extended 응답 대부분 수용)
	BodyPool = sync.Pool{
		New: func() any {
			return bytes.NewBuffer(make([]byte, 0, 16*1024))
		},
	}

	// BufferPool:
	//   - access log gzip 인코딩 결과 버퍼
	BufferPool = sync.Pool{
		New: func() any {
			return bytes.NewBuffer(make([]byte, 0, 64*1024))
		},
	}

	// GzipPool:
	//   - gzip.Writer 재사용 (BestSpeed)
	GzipPool = sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
			return w
		},
	}
)

// MaxBufferCap 보다 큰 버퍼는 풀에 넣지 않고 GC 에 맡긴다.
const MaxBufferCap = 1 * 1024 * 1024 // 1MB

// GetRecord 는 초기화된 AccessRecord 를 꺼낸다.
func GetRecord() *model.AccessRecord {
	rec := RecordPool.Get().(*model.AccessRecord)
	*rec = model.AccessRecord{}
	return rec
}

// PutRecord 는 레코드를 초기화 후 풀로 돌려준다.
func PutRecord(rec *model.AccessRecord) {
	if rec == nil {
		return
	}
	*rec = model.AccessRecord{}
	RecordPool.Put(rec)
}

// GetBody 는 비어 있는 body 버퍼를 꺼낸다.
func GetBody() *bytes.Buffer {
	buf := BodyPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBody:
//   - MaxBufferCap 이하인 버퍼만 재사용
func PutBody(buf *bytes.Buffer) {
	if buf.Cap() <= MaxBufferCap {
		buf.Reset()
		BodyPool.Put(buf)
	}
}

// PutBuffer:
//   - gzip 결과 버퍼 반환 (MaxBufferCap 이하만)
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= MaxBufferCap {
		buf.Reset()
		BufferPool.Put(buf)
	}
}
