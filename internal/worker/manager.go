// internal/worker/manager.go
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tito-edge/internal/config"
	"tito-edge/internal/metrics"
	"tito-edge/internal/model"

	"github.com/rs/zerolog"
)

// Manager 는 access record shipping 파이프라인이다.
// 핸들러가 넘긴 AccessRecord 를 배치로 모아서
//   - gzip+JSONL 로 인코딩
//   - S3 업로드
//
// 하는 흐름을 제어한다.
//
// 주요 구성:
//   - recordCh: Handler → Manager 전달 (non-blocking Enqueue)
//   - collectLoop: BatchSize 또는 FlushInterval 마다 묶어서 uploadCh 로 전달
//   - uploadCh: 인코딩/업로드 작업 큐
//   - uploadLoop: 인코딩 + 업로드
//
// 실패한 배치는 버리고 AccessRecordsLostTotal 로만 센다 (로컬 디스크 보관 없음).
type Manager struct {
	cfg     config.Runtime
	metrics *metrics.Metrics
	log     zerolog.Logger
	s3      *S3Uploader
	encoder *Encoder

	recordCh chan *model.AccessRecord
	uploadCh chan model.UploadJob

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex // recordCh close 와 Enqueue 의 경합 방지
	closed bool

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewManager 는 putter 로 업로드하는 Manager 를 만든다.
// 운영에서는 NewS3Client 의 *s3.Client 를 넘긴다.
func NewManager(cfg config.Runtime, m *metrics.Metrics, lg zerolog.Logger, putter ObjectPutter) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	lg = lg.With().Str("component", "access_log").Logger()

	return &Manager{
		cfg:      cfg,
		metrics:  m,
		log:      lg,
		s3:       NewS3Uploader(cfg, m, lg, putter),
		encoder:  NewEncoder(),
		recordCh: make(chan *model.AccessRecord, cfg.ChannelSize),
		uploadCh: make(chan model.UploadJob, cfg.UploadQueue),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 는 collectLoop 와 uploadLoop 를 실행한다.
func (m *Manager) Start() {
	m.wg.Add(2)
	go m.collectLoop()
	go m.uploadLoop()
}

// Enqueue 는 레코드를 채널에 넣는다. 채널이 가득 찼거나 종료 중이면
// 기다리지 않고 false 를 돌려준다 (소유권은 호출자에게 남는다).
func (m *Manager) Enqueue(rec *model.AccessRecord) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		atomic.AddInt64(&m.metrics.AccessRecordsDroppedTotal, 1)
		return false
	}

	select {
	case m.recordCh <- rec:
		atomic.AddInt64(&m.metrics.AccessRecordsEnqueuedTotal, 1)
		return true
	default:
		atomic.AddInt64(&m.metrics.AccessRecordsDroppedTotal, 1)
		return false
	}
}

// Shutdown 은 recordCh 를 닫고 남은 배치가 업로드될 때까지 기다린다.
// ctx 가 먼저 끝나면 진행 중인 업로드를 취소하고 ctx.Err() 를 돌려준다.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		close(m.recordCh)
		m.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		<-done
		return ctx.Err()
	}
}

// collectLoop 는 recordCh 에서 레코드를 읽어 batch 로 묶는다.
// recordCh 가 닫히면 남은 batch 를 넘기고 uploadCh 를 닫는다.
//
// flush 는 항상 새 batch slice 를 만든다 (uploadLoop 와 slice 공유 금지).
func (m *Manager) collectLoop() {
	defer m.wg.Done()
	defer close(m.uploadCh)

	batch := make([]*model.AccessRecord, 0, m.cfg.BatchSize)
	timer := time.NewTimer(m.cfg.FlushInterval)
	defer timer.Stop()

	reset := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(m.cfg.FlushInterval)
	}

	flush := func() {
		if len(batch) == 0 {
			return
		}
		select {
		case m.uploadCh <- model.UploadJob{Records: batch}:
		case <-m.ctx.Done():
			atomic.AddInt64(&m.metrics.AccessRecordsLostTotal, int64(len(batch)))
			m.encoder.RecycleRecords(batch)
		}
		batch = make([]*model.AccessRecord, 0, m.cfg.BatchSize)
	}

	for {
		select {
		case rec, ok := <-m.recordCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= m.cfg.BatchSize {
				flush()
				reset()
			}

		case <-timer.C:
			flush()
			timer.Reset(m.cfg.FlushInterval)
		}
	}
}

// uploadLoop 는 uploadCh 가 닫힐 때까지 batch 를 인코딩/업로드한다.
func (m *Manager) uploadLoop() {
	defer m.wg.Done()

	for job := range m.uploadCh {
		m.processUploadCtx(m.ctx, job)
	}
	m.log.Info().Msg("uploader exiting")
}

// processUploadCtx 는 batch 하나를 처리한다.
//  1. JSONL + gzip 인코딩 (실패 → lost)
//  2. S3 업로드 (실패 → lost)
//  3. 레코드는 항상 풀에 반환
func (m *Manager) processUploadCtx(ctx context.Context, job model.UploadJob) {
	n := len(job.Records)
	if n == 0 {
		return
	}
	defer m.encoder.RecycleRecords(job.Records)

	data, err := m.encoder.EncodeBatchJSONLGZ(job.Records)
	if err != nil {
		atomic.AddInt64(&m.metrics.AccessRecordsLostTotal, int64(n))
		m.log.Error().Err(err).Int("records", n).Msg("encode access batch failed")
		return
	}

	key := BuildS3Key(m.cfg.AccessLogPrefix, NewFilename(m.cfg.InstanceID))
	if err := m.s3.UploadBytesWithRetryCtx(ctx, key, data); err != nil {
		atomic.AddInt64(&m.metrics.AccessRecordsLostTotal, int64(n))
		m.log.Error().
			Err(err).
			Str("key", key).
			Int("records", n).
			Msg("upload access batch failed")
		return
	}

	atomic.AddInt64(&m.metrics.AccessRecordsStoredTotal, int64(n))
	m.log.Debug().Str("key", key).Int("records", n).Int("bytes", len(data)).Msg("access batch stored")
}
