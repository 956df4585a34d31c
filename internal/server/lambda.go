package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// HandleFunctionURL
//
// Lambda function URL 이벤트를 http.Request 로 바꿔 ServeHTTP 로 처리한 뒤
// 캡처한 응답을 이벤트 응답으로 돌려준다.
//
//   - URL: https://<domain><rawPath>[?<rawQuery>]
//   - Host: host 헤더, 없으면 RequestContext.DomainName (URL 의 host 도 같은 값)
//   - 멀티 값 응답 헤더는 "," 로 합친다 (function URL 규약)
//
// 오류는 항상 JSON envelope 로 응답하므로 Lambda 레벨 error 는
// 이벤트 자체를 요청으로 바꿀 수 없을 때만 돌려준다.
func (h *Handler) HandleFunctionURL(ctx context.Context, ev events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	req, err := newFunctionURLRequest(ctx, ev)
	if err != nil {
		return events.LambdaFunctionURLResponse{}, err
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res := rec.Result()

	headers := make(map[string]string, len(res.Header))
	for k, vs := range res.Header {
		headers[k] = strings.Join(vs, ",")
	}

	return events.LambdaFunctionURLResponse{
		StatusCode: res.StatusCode,
		Headers:    headers,
		Body:       rec.Body.String(),
	}, nil
}

func newFunctionURLRequest(ctx context.Context, ev events.LambdaFunctionURLRequest) (*http.Request, error) {
	method := ev.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	path := ev.RawPath
	if path == "" {
		path = "/"
	}
	host := headerValue(ev.Headers, "host")
	if host == "" {
		host = ev.RequestContext.DomainName
	}
	uri := "https://" + host + path
	if ev.RawQueryString != "" {
		uri += "?" + ev.RawQueryString
	}

	body := ev.Body
	if ev.IsBase64Encoded && body != "" {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, err
		}
		body = string(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	for k, v := range ev.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Del("Host")
	req.Host = host
	req.RemoteAddr = ev.RequestContext.HTTP.SourceIP

	return req, nil
}

// headerValue 는 대소문자 구분 없이 이벤트 헤더 값을 찾는다.
func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
