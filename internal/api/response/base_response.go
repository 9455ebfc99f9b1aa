// Package response defines the JSON envelope every API endpoint returns.
// Clients key off Code, not the HTTP status: 200 means success, 4xxx/5xxx
// carry the business error code.
package response

import (
	"time"
)

type BaseResponse struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func newResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:      code,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

func Success(data interface{}) *BaseResponse {
	return newResponse(200, "success", data)
}

func Error(code int, message string) *BaseResponse {
	return newResponse(code, message, nil)
}

// ErrorWithData attaches a payload to an error envelope, for endpoints that
// return a usable empty result alongside the error code.
func ErrorWithData(code int, message string, data interface{}) *BaseResponse {
	return newResponse(code, message, data)
}

func BadRequestError(message string) *BaseResponse {
	return Error(4000, message)
}

func UnauthorizedError(message string) *BaseResponse {
	return Error(4010, message)
}

func ForbiddenError(message string) *BaseResponse {
	return Error(4030, message)
}

func NotFoundError(message string) *BaseResponse {
	return Error(4040, message)
}

func InternalServerError(message string) *BaseResponse {
	return Error(5000, message)
}
