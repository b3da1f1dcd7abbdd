package logic

import "errors"

// 结算错误分类：Duplicate 对调用方是成功（no-op），InsufficientFunds 终止计费会话，
// 其余为内部错误，只进日志与人工对账。
var (
	ErrDuplicateEvent    = errors.New("duplicate monetization event")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSubjectNotFound   = errors.New("subject not found")
)
