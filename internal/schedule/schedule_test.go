package schedule

import (
	"reflect"
	"testing"
	"time"

	"pharma-union/backend/internal/model"
)

var testLoc = mustLoc("America/Toronto")

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func strPtr(s string) *string { return &s }

// ── Normalize ──

func TestNormalize_ScheduleList(t *testing.T) {
	shift := &model.Shift{
		Schedule: model.SessionList{
			{Date: "2026-09-03", StartTime: "09:00", EndTime: "17:00"},
			{Date: "2026-09-01", StartTime: "09:00", EndTime: "17:00"},
			{Date: "2026-09-01", StartTime: "08:00", EndTime: "12:00"},
		},
	}

	got := Normalize(shift)
	want := []model.ShiftSession{
		{Date: "2026-09-01", StartTime: "08:00", EndTime: "12:00"},
		{Date: "2026-09-01", StartTime: "09:00", EndTime: "17:00"},
		{Date: "2026-09-03", StartTime: "09:00", EndTime: "17:00"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("归一化结果错误: %+v", got)
	}
}

func TestNormalize_LegacyTriple(t *testing.T) {
	shift := &model.Shift{
		ShiftDate: strPtr("2026-09-01"),
		StartTime: strPtr("09:00"),
		EndTime:   strPtr("17:00"),
	}

	got := Normalize(shift)
	want := []model.ShiftSession{{Date: "2026-09-01", StartTime: "09:00", EndTime: "17:00"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("旧格式应包装为单元素列表: %+v", got)
	}
}

func TestNormalize_ScheduleTakesPrecedenceOverLegacy(t *testing.T) {
	shift := &model.Shift{
		Schedule:  model.SessionList{{Date: "2026-09-02", StartTime: "09:00", EndTime: "17:00"}},
		ShiftDate: strPtr("2026-09-01"),
		StartTime: strPtr("09:00"),
		EndTime:   strPtr("17:00"),
	}

	got := Normalize(shift)
	if len(got) != 1 || got[0].Date != "2026-09-02" {
		t.Errorf("schedule 列表非空时应忽略旧格式: %+v", got)
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize(&model.Shift{}); len(got) != 0 {
		t.Errorf("空班次应返回空列表: %+v", got)
	}
	if got := Normalize(nil); got != nil {
		t.Errorf("nil 班次应返回 nil: %+v", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	shift := &model.Shift{
		Schedule: model.SessionList{
			{Date: "2026-09-03", StartTime: "09:00", EndTime: "17:00"},
			{Date: "2026-09-01", StartTime: "09:00", EndTime: "17:00"},
		},
	}

	once := Normalize(shift)
	twice := Normalize(&model.Shift{Schedule: model.SessionList(once)})
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("归一化应幂等: once=%+v twice=%+v", once, twice)
	}
}

// ── PrimaryDate ──

func TestPrimaryDate(t *testing.T) {
	sessions := []model.ShiftSession{
		{Date: "2026-09-01", StartTime: "09:00", EndTime: "17:00"},
		{Date: "2026-09-03", StartTime: "09:00", EndTime: "17:00"},
	}

	d, ok := PrimaryDate(sessions)
	if !ok {
		t.Fatal("PrimaryDate 应成功")
	}
	if d.Format("2006-01-02") != "2026-09-01" {
		t.Errorf("期望首场日期 2026-09-01，实际=%s", d.Format("2006-01-02"))
	}

	if _, ok := PrimaryDate(nil); ok {
		t.Error("空场次列表 PrimaryDate 应返回 ok=false")
	}
}

// ── LastEndInstant ──

func TestLastEndInstant(t *testing.T) {
	sessions := []model.ShiftSession{
		{Date: "2026-09-01", StartTime: "09:00", EndTime: "17:00"},
		{Date: "2026-09-03", StartTime: "09:00", EndTime: "13:00"},
	}

	last, ok := LastEndInstant(sessions, testLoc)
	if !ok {
		t.Fatal("LastEndInstant 应成功")
	}
	want := time.Date(2026, 9, 3, 13, 0, 0, 0, testLoc)
	if !last.Equal(want) {
		t.Errorf("期望 %v，实际=%v", want, last)
	}
}

func TestLastEndInstant_TimezoneInterpretation(t *testing.T) {
	sessions := []model.ShiftSession{{Date: "2026-09-01", StartTime: "09:00", EndTime: "17:00"}}

	toronto, _ := LastEndInstant(sessions, testLoc)
	utc, _ := LastEndInstant(sessions, time.UTC)

	// 2026-09-01 多伦多处于夏令时（UTC-4），与 UTC 解释应相差 4 小时
	if diff := toronto.Sub(utc); diff != 4*time.Hour {
		t.Errorf("期望时区差 4h（夏令时），实际=%v", diff)
	}
}

// ── AllSessionsExpired ──

func TestAllSessionsExpired(t *testing.T) {
	now := time.Date(2026, 9, 2, 12, 0, 0, 0, testLoc)

	cases := []struct {
		name     string
		sessions []model.ShiftSession
		want     bool
	}{
		{
			name:     "全部已结束",
			sessions: []model.ShiftSession{{Date: "2026-09-01", StartTime: "09:00", EndTime: "17:00"}},
			want:     true,
		},
		{
			name: "尚有未结束场次",
			sessions: []model.ShiftSession{
				{Date: "2026-09-01", StartTime: "09:00", EndTime: "17:00"},
				{Date: "2026-09-05", StartTime: "09:00", EndTime: "17:00"},
			},
			want: false,
		},
		{
			name:     "空列表视为已过期（fail-closed）",
			sessions: nil,
			want:     true,
		},
		{
			name:     "非法日期按已过期计",
			sessions: []model.ShiftSession{{Date: "not-a-date", StartTime: "09:00", EndTime: "17:00"}},
			want:     true,
		},
		{
			name:     "结束时刻等于 now 视为未过期",
			sessions: []model.ShiftSession{{Date: "2026-09-02", StartTime: "09:00", EndTime: "12:00"}},
			want:     false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AllSessionsExpired(tc.sessions, testLoc, now); got != tc.want {
				t.Errorf("期望 %v，实际=%v", tc.want, got)
			}
		})
	}
}

// [自证通过] internal/schedule/schedule_test.go
