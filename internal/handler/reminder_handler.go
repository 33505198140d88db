package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/nthweekday/internal/model"
	"github.com/hitoshi/nthweekday/internal/ordinal"
	"github.com/hitoshi/nthweekday/internal/reminder"
)

// ReminderServiceInterface はリマインダーハンドラーが必要とするサービスインターフェース。
type ReminderServiceInterface interface {
	Create(ctx context.Context, in reminder.CreateInput) (*model.Reminder, error)
	Get(ctx context.Context, id string) (*model.Reminder, error)
	List(ctx context.Context) ([]*model.Reminder, error)
	Delete(ctx context.Context, id string) error
	Matching(ctx context.Context, date time.Time) ([]*model.Reminder, error)
}

// ReminderHandler はリマインダー管理のHTTPハンドラー。
type ReminderHandler struct {
	service  ReminderServiceInterface
	location *time.Location
	nowFunc  func() time.Time
}

// NewReminderHandler はReminderHandlerを生成する。
func NewReminderHandler(service ReminderServiceInterface, location *time.Location) *ReminderHandler {
	if location == nil {
		location = time.UTC
	}
	return &ReminderHandler{
		service:  service,
		location: location,
		nowFunc:  time.Now,
	}
}

// createReminderRequest はリマインダー登録リクエストのボディ。
type createReminderRequest struct {
	Label       string `json:"label"`
	WeekOrdinal int    `json:"week_ordinal"`
	Weekday     int    `json:"weekday"`
	WebhookURL  string `json:"webhook_url"`
}

// reminderResponse はリマインダーのAPIレスポンス。
// Webhook URLは秘密情報を含みうるため、設定有無のみ返す。
type reminderResponse struct {
	ID             string  `json:"id"`
	Label          string  `json:"label"`
	WeekOrdinal    int     `json:"week_ordinal"`
	Weekday        int     `json:"weekday"`
	Text           string  `json:"text"`
	TextEn         string  `json:"text_en"`
	HasWebhook     bool    `json:"has_webhook"`
	Enabled        bool    `json:"enabled"`
	LastNotifiedOn *string `json:"last_notified_on"`
	CreatedAt      string  `json:"created_at"`
}

type reminderListResponse struct {
	Reminders []reminderResponse `json:"reminders"`
}

type matchingResponse struct {
	Date      string             `json:"date"`
	Text      string             `json:"text"`
	Reminders []reminderResponse `json:"reminders"`
}

// List はリマインダー一覧を返す。
// GET /api/reminders
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reminderListResponse{Reminders: toReminderResponses(reminders, h.location)})
}

// Create はリマインダーを登録する。
// POST /api/reminders
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError())
		return
	}

	created, err := h.service.Create(r.Context(), reminder.CreateInput{
		Label:       req.Label,
		WeekOrdinal: req.WeekOrdinal,
		Weekday:     req.Weekday,
		WebhookURL:  req.WebhookURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReminderResponse(created, h.location))
}

// Get はリマインダー詳細を返す。
// GET /api/reminders/{id}
func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(found, h.location))
}

// Delete はリマインダーを削除する。
// DELETE /api/reminders/{id}
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Matching は指定日（省略時は今日）に該当するリマインダーを返す。
// GET /api/reminders/matching?date=YYYY-MM-DD
func (h *ReminderHandler) Matching(w http.ResponseWriter, r *http.Request) {
	date, apiErr := parseDate(r.URL.Query().Get("date"), h.location, h.nowFunc)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	reminders, err := h.service.Matching(r.Context(), date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	text, _ := ordinal.FromDate(date).Format(ordinal.FormatJapanese)
	writeJSON(w, http.StatusOK, matchingResponse{
		Date:      date.Format(dateLayout),
		Text:      text,
		Reminders: toReminderResponses(reminders, h.location),
	})
}

func toReminderResponses(rs []*model.Reminder, loc *time.Location) []reminderResponse {
	out := make([]reminderResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReminderResponse(r, loc))
	}
	return out
}

func toReminderResponse(r *model.Reminder, loc *time.Location) reminderResponse {
	f := r.Ordinal.Fields()
	text, _ := r.Ordinal.Format(ordinal.FormatJapanese)
	resp := reminderResponse{
		ID:          r.ID,
		Label:       r.Label,
		WeekOrdinal: f.WeekOrdinal,
		Weekday:     f.Weekday,
		Text:        text,
		TextEn:      r.Ordinal.String(),
		HasWebhook:  r.WebhookURL != "",
		Enabled:     r.Enabled,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.LastNotifiedOn != nil {
		s := r.LastNotifiedOn.In(loc).Format(dateLayout)
		resp.LastNotifiedOn = &s
	}
	return resp
}
