package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/docharvest/gateway/internal/adapter"
	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/domain/appError"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// can't send a clean status code at this point
		logRH.Error("Error encoding response", "error", err)
	}
}

// WriteAppError sends any error through the single error envelope. The
// middleware uses this too, so rejected and handled requests look the same
// on the wire.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := appError.From(err)
	resp := adapter.ToErrorResponse(appErr, traceIdFrom(r.Context()))
	writeJsonResponse(w, appErr.Kind.HTTPStatus(), resp)
}

func traceIdFrom(ctx context.Context) string {
	if v, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok {
		return v
	}
	return ""
}
