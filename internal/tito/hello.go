package tito

import (
	"context"
	"net/http"
)

// HelloResource 는 자격 증명 확인용 가벼운 리소스.
const HelloResource = "hello"

// CheckToken
//
// hello 리소스에 token 을 붙여 GET 하고, status 가 정확히 200 일 때만 true.
// transport 실패와 잘못된 token 을 구분하지 않는다. 둘 다 false.
func (c *Client) CheckToken(ctx context.Context, token string) bool {
	req, err := c.NewRequest(ctx, HelloResource)
	if err != nil {
		c.log.Error().Err(err).Msg("token check: build request")
		return false
	}
	req.SetToken(token)

	resp, err := req.Dispatch()
	if err != nil {
		c.log.Warn().Err(err).Msg("token check: upstream unreachable")
		return false
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("token check: rejected")
		return false
	}
	return true
}
