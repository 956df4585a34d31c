package main

import (
	"log"

	"tito-edge/internal/config"
	"tito-edge/internal/logger"
	"tito-edge/internal/metrics"
	"tito-edge/internal/server"

	"github.com/aws/aws-lambda-go/lambda"
)

// Lambda function URL 진입점.
//
// 실행 환경이 호출 사이에 얼어붙을 수 있으므로 access log shipping
// (백그라운드 배치 업로드)은 켜지 않는다. 요청 로그는 stdout → CloudWatch.
func main() {
	cfg, err := config.LoadRuntime(nil)
	if err != nil {
		log.Fatalf("[FATAL] invalid runtime config: %v", err)
	}

	lg := logger.New(cfg)
	logger.RedirectStdlog(lg)

	h := server.NewHandler(cfg, lg, metrics.New(), nil)

	lambda.Start(h.HandleFunctionURL)
}
