package errors

import "errors"

// ErrInternal 基础设施类错误：持久化等意外失败。
// 原始错误只写日志，不返回给调用方。
var ErrInternal = errors.New("服务器内部错误")

// IsInternal 判断错误是否属于基础设施类
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}
