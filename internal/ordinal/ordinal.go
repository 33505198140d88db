// Package ordinal は「月内で何回目の何曜日か」（例: 第2火曜日）を表す値型を提供する。
//
// 月ごとの暦週は日付から次のように決まる。
//
//	 1日～ 7日: 第1
//	 8日～14日: 第2
//	15日～21日: 第3
//	22日～28日: 第4
//	29日～    : 第5
package ordinal

import "time"

// WeekdayOrdinal は暦週（月ごと）と曜日の組を表すイミュータブルな値型。
// 生成後にフィールドが変更されることはないため、複数のgoroutineから同時に利用できる。
type WeekdayOrdinal struct {
	weekOrdinal int
	weekday     time.Weekday
}

// Fields は外部の永続化機構に渡すための生フィールド値。
type Fields struct {
	WeekOrdinal int `json:"week_ordinal"`
	Weekday     int `json:"weekday"`
}

// New は暦週と曜日をそのまま保持するWeekdayOrdinalを生成する。
// 値の範囲チェックは行わない（暦週は1～5を想定）。
func New(weekOrdinal int, weekday time.Weekday) WeekdayOrdinal {
	return WeekdayOrdinal{
		weekOrdinal: weekOrdinal,
		weekday:     weekday,
	}
}

// FromDate は日付から暦週と曜日を導出する。
// 暦週は ceil(日/7) で、tのロケーションにおける日付と曜日を使用する。
func FromDate(t time.Time) WeekdayOrdinal {
	return WeekdayOrdinal{
		weekOrdinal: (t.Day() + 6) / 7,
		weekday:     t.Weekday(),
	}
}

// FromFields はFieldsからWeekdayOrdinalを復元する。
func FromFields(f Fields) WeekdayOrdinal {
	return New(f.WeekOrdinal, time.Weekday(f.Weekday))
}

// WeekOrdinal は暦週を返す。
func (o WeekdayOrdinal) WeekOrdinal() int {
	return o.weekOrdinal
}

// Weekday は曜日を返す。
func (o WeekdayOrdinal) Weekday() time.Weekday {
	return o.weekday
}

// Fields は永続化用に2つのフィールド値を返す。
func (o WeekdayOrdinal) Fields() Fields {
	return Fields{
		WeekOrdinal: o.weekOrdinal,
		Weekday:     int(o.weekday),
	}
}

// Compare は暦週、次に曜日（日曜=0～土曜=6）の順で比較する。
// oが大きければ正、小さければ負、等しければ0を返す。
func (o WeekdayOrdinal) Compare(other WeekdayOrdinal) int {
	if o.weekOrdinal != other.weekOrdinal {
		return o.weekOrdinal - other.weekOrdinal
	}
	return int(o.weekday) - int(other.weekday)
}

// CompareTo はCompareのポインタ版。otherがnilの場合は常に正の値を返す。
func (o WeekdayOrdinal) CompareTo(other *WeekdayOrdinal) int {
	if other == nil {
		return 1
	}
	return o.Compare(*other)
}

// CompareAny は任意の値と比較する。
// WeekdayOrdinalまたは非nilの*WeekdayOrdinal以外（nilを含む）に対しては正の値を返す。
func (o WeekdayOrdinal) CompareAny(other any) int {
	switch v := other.(type) {
	case WeekdayOrdinal:
		return o.Compare(v)
	case *WeekdayOrdinal:
		return o.CompareTo(v)
	default:
		return 1
	}
}

// Equal は暦週と曜日が両方とも一致する場合にtrueを返す。
func (o WeekdayOrdinal) Equal(other WeekdayOrdinal) bool {
	return o.weekOrdinal == other.weekOrdinal && o.weekday == other.weekday
}

// EqualAny は任意の値との等価判定を行う。nilや型が異なる値に対してはfalseを返す。
func (o WeekdayOrdinal) EqualAny(other any) bool {
	switch v := other.(type) {
	case WeekdayOrdinal:
		return o.Equal(v)
	case *WeekdayOrdinal:
		return v != nil && o.Equal(*v)
	default:
		return false
	}
}

// Hash は暦週と曜日コードの和を返す。
// 等しい値は同じハッシュになるが、異なる値が衝突することはある（第2日曜と第1月曜など）。
func (o WeekdayOrdinal) Hash() int {
	return o.weekOrdinal + int(o.weekday)
}
