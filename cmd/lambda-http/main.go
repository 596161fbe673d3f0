package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"resume-builder/internal/bootstrap"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/telemetry"
)

// coldStart holds the router built on the first invocation; warm invocations reuse it.
type coldStart struct {
	once    sync.Once
	err     error
	adapter *ginadapter.GinLambdaV2
}

var lambdaApp coldStart

func (s *coldStart) init(ctx context.Context) {
	started := time.Now()
	cfg, err := config.Load()
	if err != nil {
		s.err = err
		return
	}
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		s.err = err
		return
	}
	s.adapter = ginadapter.NewV2(app.Router)
	telemetry.Info("lambda.http.cold_start", map[string]any{
		"env":         cfg.Env,
		"duration_ms": time.Since(started).Milliseconds(),
	})
}

func unavailable(requestID string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]string{
			"code":    "internal_error",
			"message": "Service unavailable",
		},
	})
	headers := map[string]string{"Content-Type": "application/json"}
	if requestID != "" {
		headers["X-Request-Id"] = requestID
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       string(body),
		Headers:    headers,
	}
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	lambdaApp.once.Do(func() { lambdaApp.init(context.WithoutCancel(ctx)) })
	if lambdaApp.err != nil {
		telemetry.Error("lambda.http.bootstrap_failed", map[string]any{
			"error":      lambdaApp.err.Error(),
			"request_id": req.RequestContext.RequestID,
		})
		return unavailable(req.RequestContext.RequestID), nil
	}
	return lambdaApp.adapter.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handler)
}
