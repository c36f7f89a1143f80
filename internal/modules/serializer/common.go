package serializer

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planhub-io/planhub/internal/pkg/apperr"
)

// Response
type Response struct {
	Code  int         `json:"code"`
	Data  interface{} `json:"data,omitempty"`
	Msg   string      `json:"msg"`
	Error string      `json:"error,omitempty"`
}

// Err
func Err(errCode int, msg string, err error) Response {
	res := Response{
		Code: errCode,
		Msg:  msg,
	}
	// development mode, show error detail
	if err != nil && gin.Mode() != gin.ReleaseMode {
		res.Error = fmt.Sprintf("%+v", err)
	}
	return res
}

// DBErr
func DBErr(msg string, err error) Response {
	if msg == "" {
		msg = "database error"
	}
	return Err(http.StatusInternalServerError, msg, err)
}

// ParamErr
func ParamErr(msg string, err error) Response {
	if msg == "" {
		msg = "parameter error"
	}
	return Err(http.StatusBadRequest, msg, err)
}

// AuthErr
func AuthErr(msg string) Response {
	if msg == "" {
		msg = "authentication error"
	}
	return Err(http.StatusUnauthorized, msg, nil)
}

// ForbiddenErr
func ForbiddenErr(msg string) Response {
	if msg == "" {
		msg = "insufficient role"
	}
	return Err(http.StatusForbidden, msg, nil)
}

// NotFoundErr
func NotFoundErr(msg string, err error) Response {
	if msg == "" {
		msg = "resource not found"
	}
	return Err(http.StatusNotFound, msg, err)
}

// ConflictErr
func ConflictErr(msg string, err error) Response {
	if msg == "" {
		msg = "resource already exists"
	}
	return Err(http.StatusConflict, msg, err)
}

// UpstreamErr
func UpstreamErr(msg string, err error) Response {
	if msg == "" {
		msg = "upstream service error"
	}
	return Err(http.StatusBadGateway, msg, err)
}

// FromErr maps a service error to a Response via the apperr taxonomy.
// Unrecognized errors fall through to DBErr.
func FromErr(err error) Response {
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return NotFoundErr("", err)
	case errors.Is(err, apperr.ErrForbidden):
		return ForbiddenErr("")
	case errors.Is(err, apperr.ErrBadRequest):
		return ParamErr("", err)
	case errors.Is(err, apperr.ErrConflict):
		return ConflictErr("", err)
	case errors.Is(err, apperr.ErrUpstream):
		return UpstreamErr("", err)
	default:
		return DBErr("", err)
	}
}
