package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"assistant-backend/internal/bootstrap"
	"assistant-backend/internal/shared/config"
	"assistant-backend/internal/shared/server/respond"
	"assistant-backend/internal/shared/telemetry"
)

var (
	initOnce  sync.Once
	initErr   error
	ginLambda *ginadapter.GinLambdaV2

	// buildRouter is replaced in tests.
	buildRouter = func() (*gin.Engine, error) {
		app, err := bootstrap.Build(config.Load())
		if err != nil {
			return nil, err
		}
		return app.Router, nil
	}
)

func initApp() {
	router, err := buildRouter()
	if err != nil {
		initErr = err
		return
	}
	ginLambda = ginadapter.NewV2(router)
}

// handler answers with the API error envelope when bootstrap failed. The nil
// error keeps API Gateway from replacing the body with its own 502.
func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{
			"error":      initErr.Error(),
			"request_id": req.RequestContext.RequestID,
		})
		return errorResponse(http.StatusServiceUnavailable, "bootstrap_failed", "service is starting, retry shortly"), nil
	}
	if ginLambda == nil {
		return errorResponse(http.StatusInternalServerError, "internal_error", "router not initialized"), nil
	}
	return ginLambda.ProxyWithContext(ctx, req)
}

func errorResponse(status int, code, message string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(respond.ErrorResponse{Error: respond.ErrorBody{Code: code, Message: message}})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func main() {
	lambda.Start(handler)
}
