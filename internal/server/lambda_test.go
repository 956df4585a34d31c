package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"tito-edge/internal/tito/titotest"

	"github.com/aws/aws-lambda-go/events"
)

func functionURLEvent(method, path string) events.LambdaFunctionURLRequest {
	return events.LambdaFunctionURLRequest{
		RawPath: path,
		Headers: map[string]string{
			"host":   "abc123.lambda-url.eu-west-1.on.aws",
			"origin": "https://repair.cafe",
		},
		RequestContext: events.LambdaFunctionURLRequestContext{
			DomainName: "abc123.lambda-url.eu-west-1.on.aws",
			HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{
				Method:   method,
				Path:     path,
				SourceIP: "203.0.113.9",
			},
		},
	}
}

func TestHandleFunctionURL_TicketCount(t *testing.T) {
	h, _ := newTestHandler(t, titotest.NewFakeDoer(t, titotest.OK(countBodyJSON)))

	res, err := h.HandleFunctionURL(context.Background(), functionURLEvent(http.MethodGet, "/tickets/count"))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", res.StatusCode, res.Body)
	}
	if res.Body != `{"count":42}` {
		t.Fatalf("body=%s", res.Body)
	}
	if got := res.Headers["Access-Control-Allow-Origin"]; got != "https://repair.cafe" {
		t.Fatalf("ACAO=%q", got)
	}
	if got := res.Headers["Content-Type"]; got != "application/json" {
		t.Fatalf("content-type=%q", got)
	}
}

func TestHandleFunctionURL_NotFound(t *testing.T) {
	h, _ := newTestHandler(t, titotest.NewFakeDoer(t))

	ev := functionURLEvent(http.MethodGet, "/tickets/count")
	ev.RawQueryString = "v=2"

	res, err := h.HandleFunctionURL(context.Background(), ev)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if res.StatusCode != http.StatusNotFound || res.Body != `{"status":"NOT_FOUND"}` {
		t.Fatalf("status=%d body=%s", res.StatusCode, res.Body)
	}
}

func TestNewFunctionURLRequest(t *testing.T) {
	ev := functionURLEvent("", "")
	ev.Headers = map[string]string{"x-test": "1"}
	ev.Body = base64.StdEncoding.EncodeToString([]byte("payload"))
	ev.IsBase64Encoded = true

	req, err := newFunctionURLRequest(context.Background(), ev)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if req.Method != http.MethodGet {
		t.Fatalf("method=%s", req.Method)
	}
	if req.Host != "abc123.lambda-url.eu-west-1.on.aws" {
		t.Fatalf("host=%s", req.Host)
	}
	if req.URL.Path != "/" {
		t.Fatalf("path=%s", req.URL.Path)
	}
	if req.Header.Get("X-Test") != "1" || req.RemoteAddr != "203.0.113.9" {
		t.Fatalf("headers=%v remote=%s", req.Header, req.RemoteAddr)
	}
	if req.ContentLength != int64(len("payload")) {
		t.Fatalf("content length=%d", req.ContentLength)
	}
}
