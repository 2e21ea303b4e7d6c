package domain

import "errors"

// 引擎对外只返回这些错误种类，由调用方决定重试策略
// 其中只有 ErrConcurrentModification 适合由调用方带着新读取的数据自动重试
var (
	ErrNotFound               = errors.New("目标实体不存在")
	ErrDuplicateAssignment    = errors.New("该用户已被指派到此班次")
	ErrInvalidTransition      = errors.New("非法的指派状态变更")
	ErrNotAssigned            = errors.New("该用户未被指派到此班次")
	ErrSelfSwap               = errors.New("不能向自己发起换班申请")
	ErrAlreadyResolved        = errors.New("换班申请已被处理")
	ErrConcurrentModification = errors.New("数据已被其他操作修改")
	ErrInvalidShift           = errors.New("班次的时间字段不合法")
)
