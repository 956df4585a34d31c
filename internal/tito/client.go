// Package tito 는 Tito REST API v3 클라이언트다.
//
// 흐름:
//
//	req, _ := client.NewRequest(ctx, "<slug>/events?view=extended")
//	req.SetToken(token)
//	resp, err := req.Dispatch()
//
// 재시도는 하지 않는다. transport 실패는 즉시 apperr.UpstreamUnreachable 로 돌아간다.
package tito

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"tito-edge/internal/apperr"
	"tito-edge/internal/metrics"
	"tito-edge/internal/pool"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

// HTTPDoer 는 *http.Client 중 이 패키지가 쓰는 부분이다.
// 테스트에서는 titotest.FakeDoer 를 주입한다.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client
//
// base URL 과 transport 를 묶어 둔 값. 요청마다 상태를 갖지 않으므로
// 여러 goroutine 에서 공유해도 된다.
type Client struct {
	doer    HTTPDoer
	baseURL string
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewClient 는 doer 가 nil 이면 http.DefaultClient 를 쓴다.
// m 은 nil 이어도 된다.
func NewClient(doer HTTPDoer, baseURL string, lg zerolog.Logger, m *metrics.Metrics) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	if m == nil {
		m = metrics.New()
	}
	return &Client{
		doer:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     lg,
		metrics: m,
	}
}

// Request 는 리소스 하나에 묶인 GET 요청. Dispatch 1회 동안만 쓴다.
type Request struct {
	client *Client
	req    *http.Request
}

// Response 는 upstream 응답의 status code 와 전체 body.
type Response struct {
	StatusCode int
	Body       []byte
}

// NewRequest
//
// GET <base>/<resource> 요청을 만든다.
// resource 앞의 "/" 는 있어도 되고 없어도 된다 ("hello" == "/hello").
// query string 은 resource 에 그대로 포함한다 (예: "slug/events?view=extended").
func (c *Client) NewRequest(ctx context.Context, resource string) (*Request, error) {
	uri := c.baseURL + "/" + strings.TrimLeft(resource, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, apperr.E(apperr.UpstreamUnreachable, "tito.NewRequest", "invalid upstream url", err)
	}
	return &Request{client: c, req: req}, nil
}

// SetToken 은 Authorization: Token token=<token> 헤더를 설정한다.
func (r *Request) SetToken(token string) {
	r.req.Header.Set("Authorization", "Token token="+token)
}

// URL 은 디버그 로그용 요청 주소.
func (r *Request) URL() string {
	return r.req.URL.String()
}

// prepare 는 Dispatch 직전에 항상 JSON 헤더를 덮어쓴다.
func (r *Request) prepare() {
	r.req.Header.Set("Accept", "application/json")
	r.req.Header.Set("Content-Type", "application/json")
	r.req.Header.Set("Accept-Encoding", "gzip")
}

// Dispatch
//
// 요청을 1회 보내고 body 를 끝까지 읽어 Response 로 돌려준다.
//   - 연결 실패 / DNS / timeout / body read 실패 → UpstreamUnreachable
//   - gzip body 해제 실패 → MalformedUpstreamResponse
//
// status code 는 여기서 판단하지 않는다 (호출자 몫).
func (r *Request) Dispatch() (*Response, error) {
	r.prepare()
	atomic.AddInt64(&r.client.metrics.UpstreamRequestsTotal, 1)

	resp, err := r.client.doer.Do(r.req)
	if err != nil {
		atomic.AddInt64(&r.client.metrics.UpstreamErrorsTotal, 1)
		return nil, apperr.E(apperr.UpstreamUnreachable, "tito.Dispatch", r.req.URL.Path, err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			atomic.AddInt64(&r.client.metrics.UpstreamMalformedTotal, 1)
			return nil, apperr.E(apperr.MalformedUpstreamResponse, "tito.Dispatch", "gzip header", err)
		}
		defer gz.Close()
		body = gz
	}

	// BodyPool 버퍼로 읽은 뒤 호출자 소유의 slice 로 복사한다
	buf := pool.GetBody()
	defer pool.PutBody(buf)

	if _, err := io.Copy(buf, body); err != nil {
		if gzipErr(err) {
			atomic.AddInt64(&r.client.metrics.UpstreamMalformedTotal, 1)
			return nil, apperr.E(apperr.MalformedUpstreamResponse, "tito.Dispatch", "gzip body", err)
		}
		atomic.AddInt64(&r.client.metrics.UpstreamErrorsTotal, 1)
		return nil, apperr.E(apperr.UpstreamUnreachable, "tito.Dispatch", "read body", err)
	}

	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func gzipErr(err error) bool {
	return errors.Is(err, gzip.ErrChecksum) || errors.Is(err, gzip.ErrHeader)
}
