// internal/worker/s3_uploader.go
package worker

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"tito-edge/internal/config"
	"tito-edge/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfgLib "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectPutter 는 *s3.Client 중 업로더가 쓰는 부분만 뽑은 것.
// 테스트에서는 가짜 구현을 넣는다.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader 는 gzip+JSONL 배치를 AccessLogBucket 에 올린다.
//
// 모든 업로드는 컨텍스트 기반(timeout + cancel-safe)이며
// SDK 재시도는 끄고 여기서 backoff 재시도를 한다.
type S3Uploader struct {
	cfg     config.Runtime
	metrics *metrics.Metrics
	log     zerolog.Logger
	client  ObjectPutter
}

func NewS3Uploader(cfg config.Runtime, m *metrics.Metrics, lg zerolog.Logger, client ObjectPutter) *S3Uploader {
	return &S3Uploader{
		cfg:     cfg,
		metrics: m,
		log:     lg,
		client:  client,
	}
}

// NewS3Client 는 AWS 기본 자격 증명 체인과 AWSRegion 으로 S3 client 를 만든다.
// 재시도는 UploadBytesWithRetryCtx 가 담당하므로 SDK 재시도는 0 으로 둔다.
func NewS3Client(ctx context.Context, cfg config.Runtime) (*s3.Client, error) {
	awsCfg, err := awsCfgLib.LoadDefaultConfig(
		ctx,
		awsCfgLib.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 0
	})
	return client, nil
}

// UploadBytesWithRetryCtx
// -----------------------
// 메모리의 gzip+JSONL 바이트를 S3 로 업로드한다.
//   - 시도당 S3Timeout
//   - S3AppRetries 회, 200ms 부터 2배씩 최대 2초 backoff
//   - ctx.Done() 시 즉시 중단
//
// body 는 재시도마다 reader 를 새로 만든다.
func (u *S3Uploader) UploadBytesWithRetryCtx(ctx context.Context, key string, body []byte) error {
	var lastErr error
	backoff := 200 * time.Millisecond

	for attempt := 1; attempt <= u.cfg.S3AppRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := u.putObject(ctx, key, body)
		if err == nil {
			return nil
		}
		lastErr = err
		atomic.AddInt64(&u.metrics.S3PutErrorsTotal, 1)
		u.log.Warn().
			Err(err).
			Str("key", key).
			Int("attempt", attempt).
			Msg("s3 put failed")

		if attempt == u.cfg.S3AppRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > 2*time.Second {
				backoff = 2 * time.Second
			}
		}
	}

	return lastErr
}

// putObject 는 PutObject 1회 호출. key 는 호출자가 완성해서 넘긴다.
func (u *S3Uploader) putObject(ctx context.Context, key string, body []byte) error {
	ctx2, cancel := context.WithTimeout(ctx, u.cfg.S3Timeout)
	defer cancel()

	_, err := u.client.PutObject(ctx2, &s3.PutObjectInput{
		Bucket:          aws.String(u.cfg.AccessLogBucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(body),
		ContentLength:   aws.Int64(int64(len(body))),
		ContentType:     aws.String("application/x-ndjson"),
		ContentEncoding: aws.String("gzip"),
	})
	return err
}
