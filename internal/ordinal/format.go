package ordinal

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

// 書式指定子
const (
	// FormatEnglish は "1st Sunday" 形式。セレクタ未指定時のデフォルト。
	FormatEnglish = "G"
	// FormatEnglishShort は "1st Sun" 形式。
	FormatEnglishShort = "g"
	// FormatJapaneseWide は "第１日曜日" 形式（全角数字）。
	FormatJapaneseWide = "J"
	// FormatJapanese は "第1日曜日" 形式（半角数字）。
	FormatJapanese = "j"
)

// ErrUnsupportedFormat はサポート外の書式指定子が渡された場合のエラー。
var ErrUnsupportedFormat = errors.New("unsupported format selector")

// FormatError はサポート外の書式指定子を示すエラー。errors.Is(err, ErrUnsupportedFormat) で判定できる。
type FormatError struct {
	Selector string
}

// Error はerrorインターフェースを実装する。
func (e *FormatError) Error() string {
	return fmt.Sprintf("the %s format string is not supported", e.Selector)
}

// Unwrap はErrUnsupportedFormatを返す。
func (e *FormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// japaneseWeekdayNames は曜日コード（日曜=0）で引く日本語の曜日名。
var japaneseWeekdayNames = [...]string{
	time.Sunday:    "日曜日",
	time.Monday:    "月曜日",
	time.Tuesday:   "火曜日",
	time.Wednesday: "水曜日",
	time.Thursday:  "木曜日",
	time.Friday:    "金曜日",
	time.Saturday:  "土曜日",
}

// Selectors はサポートされる書式指定子の一覧を返す。
func Selectors() []string {
	return []string{FormatEnglish, FormatEnglishShort, FormatJapaneseWide, FormatJapanese}
}

// IsSupportedFormat はselectorがサポートされる書式指定子かを返す。空文字列は "G" として扱う。
func IsSupportedFormat(selector string) bool {
	switch selector {
	case "", FormatEnglish, FormatEnglishShort, FormatJapaneseWide, FormatJapanese:
		return true
	default:
		return false
	}
}

// String は "G" 形式（例: "2nd Tuesday"）の文字列を返す。
func (o WeekdayOrdinal) String() string {
	s, _ := o.Format(FormatEnglish)
	return s
}

// Format は書式指定子に従って文字列化する。
// 空文字列は "G" と同じ扱い。サポート外の指定子は*FormatErrorを返す。
func (o WeekdayOrdinal) Format(selector string) (string, error) {
	return o.FormatLocale(selector, language.Und)
}

// FormatLocale はFormatのロケール指定版。
// 出力は書式指定子のみで決まり、localeは結果に影響しない（language.Undは未指定扱い）。
func (o WeekdayOrdinal) FormatLocale(selector string, locale language.Tag) (string, error) {
	switch selector {
	case "", FormatEnglish:
		return addOrdinal(o.weekOrdinal) + " " + o.englishWeekday(), nil
	case FormatEnglishShort:
		return addOrdinal(o.weekOrdinal) + " " + abbreviate(o.englishWeekday()), nil
	case FormatJapaneseWide:
		return "第" + width.Widen.String(strconv.Itoa(o.weekOrdinal)) + o.japaneseWeekday(), nil
	case FormatJapanese:
		return "第" + strconv.Itoa(o.weekOrdinal) + o.japaneseWeekday(), nil
	default:
		return "", &FormatError{Selector: selector}
	}
}

// englishWeekday は英語の曜日名を返す。範囲外の曜日は数値コードをそのまま返す。
func (o WeekdayOrdinal) englishWeekday() string {
	if !o.validWeekday() {
		return strconv.Itoa(int(o.weekday))
	}
	return o.weekday.String()
}

func (o WeekdayOrdinal) validWeekday() bool {
	return o.weekday >= time.Sunday && o.weekday <= time.Saturday
}

// japaneseWeekday は日本語の曜日名を返す。範囲外の曜日は空文字列。
func (o WeekdayOrdinal) japaneseWeekday() string {
	if !o.validWeekday() {
		return ""
	}
	return japaneseWeekdayNames[o.weekday]
}

// addOrdinal は英語の序数接尾辞を付与する（1st, 2nd, 3rd, 11th, 21st ...）。
// 0以下の値は数字のみを返す。
func addOrdinal(n int) string {
	s := strconv.Itoa(n)
	if n <= 0 {
		return s
	}

	switch n % 100 {
	case 11, 12, 13:
		return s + "th"
	}

	switch n % 10 {
	case 1:
		return s + "st"
	case 2:
		return s + "nd"
	case 3:
		return s + "rd"
	default:
		return s + "th"
	}
}

// abbreviate は曜日名の先頭3文字を返す。
func abbreviate(name string) string {
	r := []rune(name)
	if len(r) <= 3 {
		return name
	}
	return string(r[:3])
}
