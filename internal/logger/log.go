// internal/logger/log.go
package logger

import (
	"io"
	"os"
	"strings"

	"tito-edge/internal/config"

	stdlog "log"

	"github.com/rs/zerolog"
)

// New
//
// Runtime 설정에 맞춰 zerolog.Logger 를 만든다.
// 전역 로거를 바꾸지 않고 값을 돌려주므로, 호출자(cmd/*)가
// Handler / Manager 생성 시 명시적으로 넘겨준다.
//
// [주요 기능]
//
//  1. 로그 포맷 전환:
//     - LOG_PRETTY=true: 콘솔용 컬러 텍스트
//     - LOG_PRETTY=false: JSON (CloudWatch 등 수집기용)
//
//  2. 공통 필드: 모든 로그에 "service", "instance" 부착
//
//  3. 샘플링: LOG_SAMPLE_N > 1 이면 Debug/Info 를 1/N 만 기록.
//     Warn/Error 는 항상 100% 기록.
func New(cfg config.Runtime) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter 는 출력 대상을 지정할 수 있는 New. 테스트에서 bytes.Buffer 를 넘긴다.
func NewWithWriter(cfg config.Runtime, out io.Writer) zerolog.Logger {

	// -------------------------------------------------------------------
	// 1) 로그 레벨 (잘못된 값이면 info)
	// -------------------------------------------------------------------
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel))); err == nil && l != zerolog.NoLevel {
		level = l
	}

	// -------------------------------------------------------------------
	// 2) 출력 방식 (사람 vs 기계)
	// -------------------------------------------------------------------
	w := out
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	}

	// -------------------------------------------------------------------
	// 3) 공통 태그
	// -------------------------------------------------------------------
	base := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("instance", cfg.InstanceID).
		Logger()

	// -------------------------------------------------------------------
	// 4) 샘플링
	// -------------------------------------------------------------------
	if cfg.LogSampleN > 1 {
		return base.Sample(&zerolog.LevelSampler{
			DebugSampler: &zerolog.BasicSampler{N: cfg.LogSampleN},
			InfoSampler:  &zerolog.BasicSampler{N: cfg.LogSampleN},
		})
	}
	return base
}

// RedirectStdlog
//
// 표준 라이브러리 log 패키지(및 그것을 쓰는 서드파티 코드)의 출력을
// 주어진 zerolog 로거로 돌린다. 프로세스 진입점에서 한 번만 호출한다.
func RedirectStdlog(l zerolog.Logger) {
	stdlog.SetFlags(0) // zerolog 가 시간을 따로 찍는다
	stdlog.SetOutput(l)
}
