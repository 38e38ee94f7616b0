package app

import "errors"

// User-facing errors carry localized messages; handlers map them to status
// codes and return them verbatim.
var (
	ErrInvalidPhone  = errors.New("无效的手机号")
	ErrInvalidAction = errors.New("无效的操作")
	ErrCodeMismatch  = errors.New("验证码错误或已过期")

	ErrTitleRequired   = errors.New("待办事项标题不能为空")
	ErrInvalidPriority = errors.New("无效的紧急程度")
	ErrEmptyUpdate     = errors.New("没有有效的更新字段")
	ErrUpdateForbidden = errors.New("待办事项不存在或无权限修改")
	ErrDeleteForbidden = errors.New("待办事项不存在或无权限删除")

	ErrShareForbidden   = errors.New("待办事项不存在或无权限分享")
	ErrUnshareForbidden = errors.New("待办事项不存在或无权限操作")
	ErrTargetNotFound   = errors.New("目标用户不存在")

	ErrQueryTooShort = errors.New("搜索关键词至少需要3个字符")

	ErrTextRequired = errors.New("请输入待办事项内容")
	ErrNotImage     = errors.New("请上传图片文件")
	ErrParseFailed  = errors.New("解析失败，请重试")
)
