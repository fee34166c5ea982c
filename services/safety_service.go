package services

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"

	"tourist-safety-service/config"
	"tourist-safety-service/models"
)

// InterfaceSafetyService 定义安全评估服务接口
type InterfaceSafetyService interface {
	PredictSafety(location *models.Location, contextText string) *models.SafetyPrediction
}

// SafetyService 调用外部生成式AI服务生成安全评估。这里只是对外部
// 协作方的稳定接入点：上游失败或返回无法解析的内容时一律降级为
// Unknown状态加通用提示，绝不把失败作为硬错误抛给客户端。
type SafetyService struct {
	Config    *config.Config
	client    *resty.Client
	geofences InterfaceGeofenceService
	cache     InterfaceRedisService
}

// Gemini generateContent 请求/响应结构
type (
	geminiPart struct {
		Text string `json:"text"`
	}

	geminiContent struct {
		Parts []geminiPart `json:"parts"`
	}

	geminiRequest struct {
		Contents []geminiContent `json:"contents"`
	}

	geminiResponse struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
)

// 从回复中提取第一个JSON对象（上游可能包在markdown代码块里）
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

const safetyFallbackMessage = "暂时无法评估该位置的安全状况，请保持警惕并留意周边环境。"

// NewSafetyService 创建安全评估服务。cache可以为nil，缓存不可用不影响评估。
func NewSafetyService(cfg *config.Config, geofences InterfaceGeofenceService, cache InterfaceRedisService) *SafetyService {
	client := resty.New().
		SetTimeout(time.Duration(cfg.GeminiTimeout) * time.Second)

	return &SafetyService{
		Config:    cfg,
		client:    client,
		geofences: geofences,
		cache:     cache,
	}
}

// PredictSafety 为指定位置生成安全评估，结果永远非空
func (s *SafetyService) PredictSafety(location *models.Location, contextText string) *models.SafetyPrediction {
	if location == nil {
		return &models.SafetyPrediction{
			Status:  models.SafetyStatusUnknown,
			Message: safetyFallbackMessage,
		}
	}

	// 先查缓存
	if s.cache != nil {
		if cached, err := s.cache.GetSafetyPrediction(location); err == nil {
			return cached
		}
	}

	prediction := s.queryUpstream(location, contextText)

	// 缓存失败不影响结果
	if s.cache != nil && prediction.Status != models.SafetyStatusUnknown {
		ttl := time.Duration(s.Config.SafetyCacheTTL) * time.Minute
		if err := s.cache.CacheSafetyPrediction(location, prediction, ttl); err != nil {
			log.Printf("缓存安全评估结果失败: %v", err)
		}
	}
	return prediction
}

// queryUpstream 调用Gemini generateContent接口
func (s *SafetyService) queryUpstream(location *models.Location, contextText string) *models.SafetyPrediction {
	if contextText == "" {
		contextText = "General tourist activity"
	}

	zonesJSON, _ := json.Marshal(s.geofences.GetAllGeofences())
	prompt := fmt.Sprintf(`Analyze the safety of a tourist at these coordinates: {"lat":%v,"lng":%v}.
Context: %s.
Nearby Geofences: %s.

Provide a safety assessment (Safe, Caution, Danger) and a short advice message.
Format response as JSON: { "status": "Safe" | "Caution" | "Danger", "message": "..." }`,
		location.Lat, location.Lng, contextText, zonesJSON)

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		s.Config.GeminiAPIURL, s.Config.GeminiModel, s.Config.GeminiAPIKey)

	var result geminiResponse
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(geminiRequest{
			Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		}).
		SetResult(&result).
		Post(url)

	if err != nil {
		log.Printf("安全评估上游请求失败: %v", err)
		return &models.SafetyPrediction{
			Status:  models.SafetyStatusUnknown,
			Message: safetyFallbackMessage,
		}
	}
	if resp.StatusCode() != 200 {
		log.Printf("安全评估上游返回状态码 %d", resp.StatusCode())
		return &models.SafetyPrediction{
			Status:  models.SafetyStatusUnknown,
			Message: safetyFallbackMessage,
		}
	}

	return parsePredictionText(extractText(&result))
}

// extractText 取第一个候选回复的文本
func extractText(resp *geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}

// parsePredictionText 从回复文本中解析评估结果。
// 解析失败时保留原文作为提示，状态记为Unknown。
func parsePredictionText(text string) *models.SafetyPrediction {
	if text == "" {
		return &models.SafetyPrediction{
			Status:  models.SafetyStatusUnknown,
			Message: safetyFallbackMessage,
		}
	}

	if match := jsonObjectPattern.FindString(text); match != "" {
		var prediction models.SafetyPrediction
		if err := json.Unmarshal([]byte(match), &prediction); err == nil && prediction.Status != "" {
			return &prediction
		}
	}

	return &models.SafetyPrediction{
		Status:  models.SafetyStatusUnknown,
		Message: text,
	}
}
