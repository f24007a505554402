package router

import (
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is what a handler returns: a status code plus either a JSON
// body or a downloadable attachment. Body is rendered as-is, so handlers own
// the exact response shape.
type ServiceResult struct {
	StatusCode int
	Body       any
	Attachment *Attachment
}

// Attachment switches the response from JSON to a file download.
type Attachment struct {
	ContentType string
	Filename    string
	Content     []byte
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

func (result *ServiceResult) IsSuccess() bool {
	return result.StatusCode >= 200 && result.StatusCode < 300
}

func (result *ServiceResult) IsError() bool {
	return result.StatusCode >= 400
}
