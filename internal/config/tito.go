// internal/config/tito.go
package config

import (
	"os"
	"strings"

	"tito-edge/internal/apperr"
)

// Tito 자격 증명 env 이름. 외부 계약이므로 변경 금지.
const (
	EnvToken       = "TITO_TOKEN"
	EnvAccountSlug = "TITO_ACCOUNT_SLUG"
	EnvTokenCheck  = "TITO_TOKEN_CHECK"
)

// Tito
//
// 요청 1건 동안만 유효한 불변 설정.
// 매 요청마다 LoadTito 로 새로 만들고, 요청이 끝나면 버린다.
type Tito struct {
	Token             string
	AccountSlug       string
	TokenCheckEnabled bool // TITO_TOKEN_CHECK == "true" 일 때만 true
}

// LoadTito
//
// 세 개의 필수 env 를 모두 읽는다. 하나라도 없으면 ConfigurationMissing
// 오류를 반환하며, 이 경우 upstream 호출은 일어나지 않는다.
// TITO_TOKEN / TITO_ACCOUNT_SLUG 는 빈 값도 누락으로 본다.
// TITO_TOKEN_CHECK 는 존재만 하면 되고, "true" 가 아닌 값(빈 값 포함)은 검사 끔.
// 누락된 키는 모두 Detail 에 나열된다.
func LoadTito(lookup LookupFunc) (Tito, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var missing []string
	get := func(key string, allowEmpty bool) string {
		v, ok := lookup(key)
		if !ok || (v == "" && !allowEmpty) {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Tito{
		Token:       get(EnvToken, false),
		AccountSlug: get(EnvAccountSlug, false),
	}
	cfg.TokenCheckEnabled = get(EnvTokenCheck, true) == "true"

	if len(missing) > 0 {
		return Tito{}, apperr.E(apperr.ConfigurationMissing, "config.LoadTito",
			"missing "+strings.Join(missing, ", "), nil)
	}
	return cfg, nil
}
