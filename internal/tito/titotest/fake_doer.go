// Package titotest 는 외부 HTTP 호출 없이 tito 클라이언트를 검증하기 위한 fake 를 제공한다.
package titotest

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"tito-edge/internal/tito"
)

// Reply 는 FakeDoer 가 Do 호출 1회에 돌려줄 결과. Err 가 있으면 Resp 는 무시된다.
type Reply struct {
	Resp *http.Response
	Err  error
}

// FakeDoer 는 tito.HTTPDoer 구현. 큐에 쌓인 Reply 를 순서대로 돌려주고
// 받은 요청을 기록한다.
type FakeDoer struct {
	t testing.TB

	mu       sync.Mutex
	replies  []Reply
	requests []*http.Request
}

// NewFakeDoer 는 Do 호출마다 돌려줄 결과를 순서대로 받는다.
func NewFakeDoer(t testing.TB, replies ...Reply) *FakeDoer {
	return &FakeDoer{
		t:       t,
		replies: append([]Reply(nil), replies...),
	}
}

// Do 는 요청을 기록하고 다음 Reply 를 돌려준다. 큐가 비었으면 테스트를 실패시킨다.
func (f *FakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if len(f.replies) == 0 {
		f.t.Fatalf("fake http client has no replies left for request %s %s", req.Method, req.URL.String())
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Resp, nil
}

// Requests 는 지금까지 받은 요청 목록.
func (f *FakeDoer) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

// OK 는 status 200 과 body 를 가진 Reply.
func OK(body string) Reply {
	return Reply{Resp: NewStringResponse(http.StatusOK, body)}
}

// Status 는 임의 status 와 body 를 가진 Reply.
func Status(code int, body string) Reply {
	return Reply{Resp: NewStringResponse(code, body)}
}

// Fail 은 transport 오류를 돌려주는 Reply.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// NewStringResponse 는 최소한의 http.Response 를 만든다.
func NewStringResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

var _ tito.HTTPDoer = (*FakeDoer)(nil)
