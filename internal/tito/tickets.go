package tito

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"tito-edge/internal/apperr"

	json "github.com/goccy/go-json"
)

const opTicketCount = "tito.TicketCount"

// EventsResource 는 계정의 이벤트 목록(확장 뷰) 리소스 경로.
func EventsResource(accountSlug string) string {
	return accountSlug + "/events?view=extended"
}

// TicketCount
//
// 다가오는 이벤트의 티켓 수를 조회한다.
// 첫 번째 event → 첫 번째 release → tickets_count 를 그대로 돌려준다.
//
// 실패 지점 (모두 no partial result):
//   - transport 실패 → UpstreamUnreachable
//   - JSON 파싱 실패 / 경로 누락 / 타입 불일치 → MalformedUpstreamResponse
//
// upstream status code 는 로그만 남기고 판단에는 쓰지 않는다.
func (c *Client) TicketCount(ctx context.Context, token, accountSlug string) (int64, error) {
	c.log.Info().Msg("running ticket count query")
	c.log.Debug().
		Int("token_len", len(token)).
		Str("account_slug", accountSlug).
		Msg("binding credentials")

	req, err := c.NewRequest(ctx, EventsResource(accountSlug))
	if err != nil {
		return 0, err
	}
	req.SetToken(token)

	resp, err := req.Dispatch()
	if err != nil {
		c.log.Error().Err(err).Str("url", req.URL()).Msg("events request failed")
		return 0, err
	}
	c.log.Debug().Int("status", resp.StatusCode).Int("bytes", len(resp.Body)).Msg("events response")

	count, err := ExtractTicketCount(resp.Body)
	if err != nil {
		atomic.AddInt64(&c.metrics.UpstreamMalformedTotal, 1)
		c.log.Error().Err(err).Int("status", resp.StatusCode).Msg("unexpected events payload")
		return 0, err
	}

	c.log.Info().Int64("tickets_count", count).Msg("ticket count query done")
	return count, nil
}

// ExtractTicketCount
//
// events listing body 에서 고정 경로를 따라 tickets_count 를 꺼낸다.
//
//  1. events            → 배열이어야 함
//  2. events[0]         → 존재해야 함 (빈 배열은 실패)
//  3. events[0].releases → 배열이어야 함
//  4. releases[0]       → 존재해야 함
//  5. tickets_count     → int64 로 표현 가능해야 함
func ExtractTicketCount(body []byte) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return 0, malformed("body is not a JSON object", err)
	}
	if root == nil {
		return 0, malformed("body is not a JSON object", nil)
	}
	// 객체 뒤에는 공백 외에 아무것도 없어야 한다
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return 0, malformed("trailing data after JSON object", err)
	}

	events, err := arrayAt(root, "events", "events")
	if err != nil {
		return 0, err
	}
	event, err := objectAt(events, "events[0]")
	if err != nil {
		return 0, err
	}
	releases, err := arrayAt(event, "releases", "events[0].releases")
	if err != nil {
		return 0, err
	}
	release, err := objectAt(releases, "events[0].releases[0]")
	if err != nil {
		return 0, err
	}

	const path = "events[0].releases[0].tickets_count"
	raw, ok := release["tickets_count"]
	if !ok {
		return 0, malformed("missing "+path, nil)
	}
	num, ok := raw.(json.Number)
	if !ok {
		return 0, malformed(fmt.Sprintf("%s is %T, not a number", path, raw), nil)
	}
	n, err := num.Int64()
	if err != nil {
		return 0, malformed(path+" is not an int64", err)
	}
	return n, nil
}

func arrayAt(obj map[string]any, key, path string) ([]any, error) {
	v, ok := obj[key]
	if !ok {
		return nil, malformed("missing "+path, nil)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, malformed(path+" is not an array", nil)
	}
	return arr, nil
}

func objectAt(arr []any, path string) (map[string]any, error) {
	if len(arr) == 0 {
		return nil, malformed("missing "+path, nil)
	}
	obj, ok := arr[0].(map[string]any)
	if !ok {
		return nil, malformed(path+" is not an object", nil)
	}
	return obj, nil
}

func malformed(detail string, err error) error {
	return apperr.E(apperr.MalformedUpstreamResponse, opTicketCount, detail, err)
}
