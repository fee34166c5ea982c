package models

// 安全评估状态
const (
	SafetyStatusSafe    = "Safe"
	SafetyStatusCaution = "Caution"
	SafetyStatusDanger  = "Danger"
	SafetyStatusUnknown = "Unknown"
)

// SafetyPrediction 外部顾问服务返回的安全评估结果
type SafetyPrediction struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
