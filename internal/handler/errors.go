package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/nthweekday/internal/middleware"
	"github.com/hitoshi/nthweekday/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外は詳細をログにのみ残し、500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest,
		model.ErrCodeInvalidFormat,
		model.ErrCodeInvalidDate,
		model.ErrCodeInvalidWeekOrdinal,
		model.ErrCodeInvalidWeekday,
		model.ErrCodeInvalidLabel,
		model.ErrCodeInvalidWebhookURL:
		return http.StatusBadRequest
	case model.ErrCodeWebhookBlocked:
		return http.StatusForbidden
	case model.ErrCodeReminderNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
