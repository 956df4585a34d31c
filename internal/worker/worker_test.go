package worker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"tito-edge/internal/config"
	"tito-edge/internal/metrics"
	"tito-edge/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

type putCall struct {
	bucket string
	key    string
	body   []byte
}

type fakePutter struct {
	mu    sync.Mutex
	calls []putCall
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, putCall{
		bucket: aws.ToString(in.Bucket),
		key:    aws.ToString(in.Key),
		body:   body,
	})
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakePutter) Calls() []putCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]putCall(nil), f.calls...)
}

func testRuntime() config.Runtime {
	return config.Runtime{
		InstanceID:      "test-1",
		AccessLogBucket: "edge-logs",
		AccessLogPrefix: "access",
		ChannelSize:     16,
		UploadQueue:     4,
		BatchSize:       2,
		FlushInterval:   time.Hour,
		S3Timeout:       time.Second,
		S3AppRetries:    1,
	}
}

func decodeLines(t *testing.T, data []byte) []model.AccessRecord {
	t.Helper()

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer zr.Close()

	var out []model.AccessRecord
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		var rec model.AccessRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestEncodeBatchJSONLGZ(t *testing.T) {
	recs := []*model.AccessRecord{
		{Ts: 1, Method: "GET", Path: "/tickets/count", Status: 200, Outcome: "OK"},
		{Ts: 2, Method: "POST", Path: "/events/next", Status: 404, Outcome: "NOT_FOUND", Origin: "https://repair.cafe"},
	}

	data, err := NewEncoder().EncodeBatchJSONLGZ(recs)
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}

	got := decodeLines(t, data)
	if len(got) != 2 {
		t.Fatalf("lines=%d", len(got))
	}
	if got[0] != *recs[0] || got[1] != *recs[1] {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestBuildS3Key(t *testing.T) {
	key := BuildS3Key("access", "f.jsonl.gz")
	if !strings.HasPrefix(key, "access/dt="+DT()+"/hr=") || !strings.HasSuffix(key, "/f.jsonl.gz") {
		t.Fatalf("key=%q", key)
	}
	if key := BuildS3Key("", "f.jsonl.gz"); !strings.HasPrefix(key, "dt=") {
		t.Fatalf("key without prefix=%q", key)
	}
}

func TestManager_BatchesAndFinalFlush(t *testing.T) {
	m := metrics.New()
	putter := &fakePutter{}
	mgr := NewManager(testRuntime(), m, zerolog.Nop(), putter)
	mgr.Start()

	for i := 0; i < 3; i++ {
		if !mgr.Enqueue(&model.AccessRecord{Ts: int64(i), Path: "/tickets/count", Status: 200}) {
			t.Fatalf("enqueue %d rejected", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown err=%v", err)
	}

	calls := putter.Calls()
	if len(calls) != 2 {
		t.Fatalf("put calls=%d, want 2", len(calls))
	}
	total := 0
	for _, c := range calls {
		if c.bucket != "edge-logs" {
			t.Fatalf("bucket=%q", c.bucket)
		}
		if !strings.HasPrefix(c.key, "access/dt=") || !strings.HasSuffix(c.key, ".jsonl.gz") {
			t.Fatalf("key=%q", c.key)
		}
		total += len(decodeLines(t, c.body))
	}
	if total != 3 {
		t.Fatalf("records shipped=%d", total)
	}
	if m.AccessRecordsStoredTotal != 3 || m.AccessRecordsEnqueuedTotal != 3 {
		t.Fatalf("stored=%d enqueued=%d", m.AccessRecordsStoredTotal, m.AccessRecordsEnqueuedTotal)
	}
}

func TestManager_UploadFailureCountsLost(t *testing.T) {
	cfg := testRuntime()
	cfg.S3AppRetries = 2

	m := metrics.New()
	putter := &fakePutter{err: errors.New("access denied")}
	mgr := NewManager(cfg, m, zerolog.Nop(), putter)
	mgr.Start()

	mgr.Enqueue(&model.AccessRecord{Path: "/tickets/count"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown err=%v", err)
	}

	if n := len(putter.Calls()); n != 2 {
		t.Fatalf("put attempts=%d, want 2", n)
	}
	if m.AccessRecordsLostTotal != 1 || m.AccessRecordsStoredTotal != 0 {
		t.Fatalf("lost=%d stored=%d", m.AccessRecordsLostTotal, m.AccessRecordsStoredTotal)
	}
	if m.S3PutErrorsTotal != 2 {
		t.Fatalf("s3 put errors=%d", m.S3PutErrorsTotal)
	}
}

func TestManager_EnqueueNeverBlocks(t *testing.T) {
	cfg := testRuntime()
	cfg.ChannelSize = 1

	m := metrics.New()
	mgr := NewManager(cfg, m, zerolog.Nop(), &fakePutter{})

	// Start 전이라 아무도 채널을 비우지 않는다
	if !mgr.Enqueue(&model.AccessRecord{}) {
		t.Fatalf("first enqueue rejected")
	}
	if mgr.Enqueue(&model.AccessRecord{}) {
		t.Fatalf("second enqueue should be dropped")
	}
	if m.AccessRecordsDroppedTotal != 1 {
		t.Fatalf("dropped=%d", m.AccessRecordsDroppedTotal)
	}

	mgr.Start()
	if err := mgr.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown err=%v", err)
	}
	if mgr.Enqueue(&model.AccessRecord{}) {
		t.Fatalf("enqueue after shutdown should be rejected")
	}
}
