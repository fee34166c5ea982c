package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 围栏相关错误码 (101xxx).
const (
	// ErrGeofenceInvalid - 400: 围栏定义非法（顶点不足或坐标非法）.
	ErrGeofenceInvalid int = iota + 101000
	// ErrGeofencePersistence - 500: 围栏持久化失败.
	ErrGeofencePersistence
)
