package router

import (
	"net/http"

	"github.com/akashwadhwani35/inbox-party-waitlist/internal/log"
	"github.com/gin-gonic/gin"
)

func GetLogger(ctx *RequestContext) *log.Logger {
	if logger := ctx.Request.Context().Value(log.LoggerKeyForContext); logger != nil {
		if l, ok := logger.(*log.Logger); ok {
			return l
		}
	}

	baseLogger := log.NewLoggerWithJSONOutput()
	return baseLogger.WithCorrelationID(ctx.Request.Context())
}

func OKResult(body any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

func CreatedResult(body any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusCreated,
		Body:       body,
	}
}

func ConflictResult(body any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusConflict,
		Body:       body,
	}
}

// ErrorResult wraps a message in the API's single error shape.
func ErrorResult(statusCode int, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Body:       gin.H{"error": message},
	}
}

func BadRequestResult(message string) *ServiceResult {
	return ErrorResult(http.StatusBadRequest, message)
}

func NotFoundResult() *ServiceResult {
	return ErrorResult(http.StatusNotFound, "Not found")
}

func LengthRequiredResult(message string) *ServiceResult {
	return ErrorResult(http.StatusLengthRequired, message)
}

func InternalServerErrorResult(message string) *ServiceResult {
	return ErrorResult(http.StatusInternalServerError, message)
}

func TooManyRequestsResult(message string) *ServiceResult {
	return ErrorResult(http.StatusTooManyRequests, message)
}

// AttachmentResult responds with a file download instead of JSON.
func AttachmentResult(contentType, filename string, content []byte) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Attachment: &Attachment{
			ContentType: contentType,
			Filename:    filename,
			Content:     content,
		},
	}
}
