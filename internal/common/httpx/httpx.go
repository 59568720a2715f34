// Package httpx writes JSON responses and errors for the status endpoints.
package httpx

import (
	"context"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

type Error struct {
	Description string `json:"description"`
	StatusCode  int    `json:"http_status_code"`
}

type errorRsp struct {
	Result int    `json:"result"`
	Error  string `json:"error"`
}

const Failure int = 0

func (e *Error) Error() string {
	return e.Description
}

func (e *Error) Send(w http.ResponseWriter) {
	body, err := jsoniter.Marshal(&errorRsp{Result: Failure, Error: e.Description})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	w.Write(body)
}

func ErrApplicationError(msg ...string) *Error {
	d := "unable to process request"
	if len(msg) > 0 {
		d = msg[0]
	}
	return &Error{Description: d, StatusCode: http.StatusInternalServerError}
}

func ErrUnavailable(msg string) *Error {
	return &Error{Description: msg, StatusCode: http.StatusServiceUnavailable}
}

// SendJsonRsp writes v as a JSON body with the given status.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	body, err := jsoniter.Marshal(v)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to encode response")
		ErrApplicationError().Send(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}
