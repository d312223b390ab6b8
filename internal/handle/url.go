package handle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dmorgan81/text2image/internal/generate"
	"github.com/dmorgan81/text2image/internal/handler"
	"github.com/dmorgan81/text2image/internal/log"
)

// URLHandler serves the text2image operation behind a Lambda function URL.
type URLHandler struct {
	generator handler.Generator
}

func NewURLHandler(generator handler.Generator) *URLHandler {
	return &URLHandler{generator}
}

func (h *URLHandler) Handle(ctx context.Context, request events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("URLHandler").With(
		"request_id", request.RequestContext.RequestID,
		"method", request.RequestContext.HTTP.Method,
		"path", request.RequestContext.HTTP.Path,
	)
	logger.Info("handling lambda invocation")

	switch {
	case request.RequestContext.HTTP.Method == http.MethodOptions:
		return respond(http.StatusNoContent, nil), nil
	case request.RequestContext.HTTP.Method != http.MethodPost:
		return respond(http.StatusMethodNotAllowed, handler.ErrorResponse{Error: "method not allowed"}), nil
	case !strings.HasSuffix(request.RequestContext.HTTP.Path, "/text2image"):
		return respond(http.StatusNotFound, handler.ErrorResponse{Error: "not found"}), nil
	}

	body := []byte(request.Body)
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			return respond(http.StatusBadRequest, handler.ErrorResponse{Error: "body is not valid base64"}), nil
		}
		body = decoded
	}

	var req generate.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return respond(http.StatusBadRequest, handler.ErrorResponse{Error: "request body must be JSON with a string field prompt"}), nil
	}

	res, err := h.generator.Generate(log.NewContext(ctx, logger), req)
	if err != nil {
		status := handler.StatusFor(err)
		logger.Error("text2image failed", "status", status, "error", err)
		return respond(status, handler.ErrorResponse{Error: err.Error()}), nil
	}
	return respond(http.StatusOK, res), nil
}

func respond(status int, body any) events.LambdaFunctionURLResponse {
	resp := events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type",
		},
	}
	if body != nil {
		data, _ := json.Marshal(body)
		resp.Body = string(data)
	}
	return resp
}
