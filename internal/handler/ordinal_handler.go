package handler

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"github.com/hitoshi/nthweekday/internal/model"
	"github.com/hitoshi/nthweekday/internal/ordinal"
)

const dateLayout = "2006-01-02"

// FormatRecorder は整形結果をメトリクスに記録する。
type FormatRecorder interface {
	RecordFormat(selector string)
	RecordFormatError()
}

// OrdinalHandler は日付から「第N何曜日」を求めるHTTPハンドラー。
type OrdinalHandler struct {
	defaultFormat string
	location      *time.Location
	recorder      FormatRecorder
	nowFunc       func() time.Time
}

// NewOrdinalHandler はOrdinalHandlerを生成する。
// locationはdate省略時の「今日」と日付の解釈に使う。recorderはnilでもよい。
func NewOrdinalHandler(defaultFormat string, location *time.Location, recorder FormatRecorder) *OrdinalHandler {
	if location == nil {
		location = time.UTC
	}
	return &OrdinalHandler{
		defaultFormat: defaultFormat,
		location:      location,
		recorder:      recorder,
		nowFunc:       time.Now,
	}
}

// ordinalResponse は単一書式の整形結果。
type ordinalResponse struct {
	Date        string `json:"date"`
	WeekOrdinal int    `json:"week_ordinal"`
	Weekday     int    `json:"weekday"`
	WeekdayName string `json:"weekday_name"`
	Text        string `json:"text"`
}

// allFormatsResponse は全書式の整形結果。
type allFormatsResponse struct {
	Date        string            `json:"date"`
	WeekOrdinal int               `json:"week_ordinal"`
	Weekday     int               `json:"weekday"`
	Formats     map[string]string `json:"formats"`
}

// Describe は指定日の「第N何曜日」を指定書式で返す。
// GET /api/ordinals?date=YYYY-MM-DD&format=G&lang=ja
func (h *OrdinalHandler) Describe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, apiErr := parseDate(q.Get("date"), h.location, h.nowFunc)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	selector := q.Get("format")
	if selector == "" {
		selector = h.defaultFormat
	}

	o := ordinal.FromDate(date)
	text, err := o.FormatLocale(selector, parseLang(q.Get("lang")))
	if err != nil {
		if h.recorder != nil {
			h.recorder.RecordFormatError()
		}
		var fe *ordinal.FormatError
		if errors.As(err, &fe) {
			handleServiceError(w, model.NewInvalidFormatError(fe.Selector, ordinal.Selectors()))
			return
		}
		handleServiceError(w, err)
		return
	}
	if h.recorder != nil {
		h.recorder.RecordFormat(selector)
	}

	f := o.Fields()
	writeJSON(w, http.StatusOK, ordinalResponse{
		Date:        date.Format(dateLayout),
		WeekOrdinal: f.WeekOrdinal,
		Weekday:     f.Weekday,
		WeekdayName: o.Weekday().String(),
		Text:        text,
	})
}

// DescribeAll は指定日の「第N何曜日」を全書式で返す。
// GET /api/ordinals/all?date=YYYY-MM-DD&lang=ja
func (h *OrdinalHandler) DescribeAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, apiErr := parseDate(q.Get("date"), h.location, h.nowFunc)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	o := ordinal.FromDate(date)
	lang := parseLang(q.Get("lang"))
	formats := make(map[string]string, len(ordinal.Selectors()))
	for _, sel := range ordinal.Selectors() {
		text, err := o.FormatLocale(sel, lang)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		formats[sel] = text
		if h.recorder != nil {
			h.recorder.RecordFormat(sel)
		}
	}

	f := o.Fields()
	writeJSON(w, http.StatusOK, allFormatsResponse{
		Date:        date.Format(dateLayout),
		WeekOrdinal: f.WeekOrdinal,
		Weekday:     f.Weekday,
		Formats:     formats,
	})
}

// parseDate はYYYY-MM-DD形式の日付をlocで解釈する。空の場合はlocでの今日を返す。
func parseDate(raw string, loc *time.Location, now func() time.Time) (time.Time, *model.APIError) {
	if raw == "" {
		return now().In(loc), nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, model.NewInvalidDateError(raw)
	}
	return t, nil
}

// parseLang はBCP 47の言語タグを解析する。
// 整形結果は言語に依存しないため、解析できない値はlanguage.Undとして扱う。
func parseLang(raw string) language.Tag {
	if raw == "" {
		return language.Und
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.Und
	}
	return tag
}
