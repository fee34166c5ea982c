package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourist-safety-service/config"
	"tourist-safety-service/models"
	"tourist-safety-service/services/container"
)

func newTestServer(t *testing.T) (*gin.Engine, *container.ServiceContainer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServerPort:      "3000",
		CORSAllowOrigin: "*",
		StorageDriver:   "file",
		DataFile:        filepath.Join(t.TempDir(), "data.json"),
		RedisHost:       "localhost",
		RedisPort:       "6379",
		GeminiAPIURL:    "http://127.0.0.1:1",
		GeminiModel:     "gemini-pro",
		GeminiTimeout:   1,
		SafetyCacheTTL:  10,
	}

	r, sc := SetupRouter(nil, cfg)
	t.Cleanup(func() { sc.Shutdown() })
	return r, sc
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGeofenceAPI_CreateListDelete(t *testing.T) {
	r, _ := newTestServer(t)

	// 初始为空数组
	w := doJSON(t, r, http.MethodGet, "/api/geofences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var zones []models.Geofence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zones))
	assert.Empty(t, zones)

	// 创建围栏
	w = doJSON(t, r, http.MethodPost, "/api/geofences", map[string]interface{}{
		"name":   "塌方区",
		"type":   "danger",
		"points": [][]float64{{10, 10}, {10, 20}, {20, 20}, {20, 10}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Geofence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "塌方区", created.Name)
	assert.Equal(t, models.GeofenceTypeDanger, created.Type)

	// 列表包含新围栏
	w = doJSON(t, r, http.MethodGet, "/api/geofences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zones))
	require.Len(t, zones, 1)
	assert.Equal(t, created.ID, zones[0].ID)

	// 删除
	w = doJSON(t, r, http.MethodDelete, "/api/geofences/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result["success"])

	// 删除不存在的ID同样返回成功
	w = doJSON(t, r, http.MethodDelete, "/api/geofences/nonexistent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result["success"])

	w = doJSON(t, r, http.MethodGet, "/api/geofences", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zones))
	assert.Empty(t, zones)
}

func TestGeofenceAPI_CreateValidation(t *testing.T) {
	r, _ := newTestServer(t)

	// 顶点不足
	w := doJSON(t, r, http.MethodPost, "/api/geofences", map[string]interface{}{
		"name":   "非法区域",
		"type":   "danger",
		"points": [][]float64{{10, 10}, {20, 20}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 未知类型
	w = doJSON(t, r, http.MethodPost, "/api/geofences", map[string]interface{}{
		"name":   "非法区域",
		"type":   "forbidden",
		"points": [][]float64{{10, 10}, {10, 20}, {20, 20}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 缺少必填字段
	w = doJSON(t, r, http.MethodPost, "/api/geofences", map[string]interface{}{
		"name": "缺字段",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 校验失败不产生可见效果
	w = doJSON(t, r, http.MethodGet, "/api/geofences", nil)
	var zones []models.Geofence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zones))
	assert.Empty(t, zones)
}

func TestPredictSafetyAPI_DegradesGracefully(t *testing.T) {
	r, _ := newTestServer(t)

	// 上游不可达时返回200和Unknown降级结果
	w := doJSON(t, r, http.MethodPost, "/api/predict-safety", map[string]interface{}{
		"location": map[string]float64{"lat": 27.7, "lng": 86.7},
		"context":  "hiking",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var prediction models.SafetyPrediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prediction))
	assert.Equal(t, models.SafetyStatusUnknown, prediction.Status)
	assert.NotEmpty(t, prediction.Message)
}

func TestPredictSafetyAPI_RequiresLocation(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/predict-safety", map[string]interface{}{
		"context": "hiking",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPingEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/api/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pong", body["message"])
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/geofences", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestGeofencesSurviveRestart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dataFile := filepath.Join(t.TempDir(), "data.json")

	newCfg := func() *config.Config {
		return &config.Config{
			ServerPort:      "3000",
			CORSAllowOrigin: "*",
			StorageDriver:   "file",
			DataFile:        dataFile,
			RedisHost:       "localhost",
			RedisPort:       "6379",
			GeminiAPIURL:    "http://127.0.0.1:1",
			GeminiModel:     "gemini-pro",
			GeminiTimeout:   1,
			SafetyCacheTTL:  10,
		}
	}

	r, sc := SetupRouter(nil, newCfg())
	w := doJSON(t, r, http.MethodPost, "/api/geofences", map[string]interface{}{
		"name":   "塌方区",
		"type":   "danger",
		"points": [][]float64{{10, 10}, {10, 20}, {20, 20}, {20, 10}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Geofence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	sc.Shutdown()

	// 重启后围栏从文件恢复
	r2, sc2 := SetupRouter(nil, newCfg())
	defer sc2.Shutdown()

	w = doJSON(t, r2, http.MethodGet, "/api/geofences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var zones []models.Geofence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zones))
	require.Len(t, zones, 1)
	assert.Equal(t, created.ID, zones[0].ID)
	assert.Equal(t, fmt.Sprintf("%v", created.Points), fmt.Sprintf("%v", zones[0].Points))
}
