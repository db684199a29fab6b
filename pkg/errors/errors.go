package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrAssignConflict 条件更新未命中：班次状态或指派人已被并发修改
var ErrAssignConflict = errors.New("班次已被其他操作锁定或指派")
