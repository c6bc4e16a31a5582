package reporter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TEENet-io/ordinals-go/ordinals"
)

// codes produced by the http layer itself.
const (
	CODE_INVALID_PARAMETERS = "INVALID_PARAMETERS"
	CODE_INVALID_ID         = "INVALID_ID"
	CODE_NOT_FOUND          = "NOT_FOUND"
	CODE_NODE_UNAVAILABLE   = "NODE_UNAVAILABLE"
	CODE_INTERNAL_ERROR     = "INTERNAL_ERROR"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}

// failService answers with the code of a service error.
func failService(c *gin.Context, err error) {
	code := ordinals.CodeOf(err)
	message := err.Error()
	var e *ordinals.Error
	if errors.As(err, &e) {
		message = e.Message
		if e.Err != nil && !code.IsValidation() {
			message += ": " + e.Err.Error()
		}
	}
	fail(c, StatusOf(code), string(code), message)
}

// StatusOf maps a service error code to a http status.
func StatusOf(code ordinals.ErrorCode) int {
	switch {
	case code.IsValidation():
		return http.StatusBadRequest
	case code == ordinals.CodeNoUtxos, code == ordinals.CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case code == ordinals.CodeNodeUnavailable:
		return http.StatusServiceUnavailable
	case code == ordinals.CodeBroadcastRejected, code == ordinals.CodeRPCError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
