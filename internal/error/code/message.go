package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrTooManyRequests: "请求频率过高",

	// 围栏相关错误码
	ErrGeofenceInvalid:     "围栏定义非法：至少需要3个顶点且坐标必须有效",
	ErrGeofencePersistence: "围栏持久化失败",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTooManyRequests: StatusTooManyRequests,

	// 围栏相关错误码
	ErrGeofenceInvalid:     StatusBadRequest,
	ErrGeofencePersistence: StatusInternalServerError,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
