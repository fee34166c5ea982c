package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tourist-safety-service/internal/error/code"
	"tourist-safety-service/internal/error/response"
	"tourist-safety-service/models"
	"tourist-safety-service/services"
	"tourist-safety-service/services/container"
)

// GeofenceController 处理地理围栏相关的请求
type GeofenceController struct {
	BaseControllerImpl
}

// NewGeofenceController 创建一个新的围栏控制器
func (f *ControllerFactory) NewGeofenceController(ctx *gin.Context) *GeofenceController {
	return &GeofenceController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// CreateGeofenceRequest 表示创建围栏请求
type CreateGeofenceRequest struct {
	Name   string           `json:"name" example:"景区北侧悬崖"`
	Type   string           `json:"type" binding:"required" example:"danger"` // danger | safe
	Points models.PointList `json:"points" binding:"required"`                // [[lat, lng], ...]，至少3个顶点
}

// GetGeofences 处理获取围栏列表的请求
// @Summary      获取围栏列表
// @Description  按创建顺序返回全部地理围栏
// @Tags         Geofence
// @Produce      json
// @Success      200  {array}  models.Geofence
// @Router       /geofences [get]
func (c *GeofenceController) GetGeofences() {
	geofences := c.Container.GetGeofenceService().GetAllGeofences()
	c.Context.JSON(http.StatusOK, geofences)
}

// CreateGeofence 处理创建围栏的请求
// @Summary      创建围栏
// @Description  创建一个新的地理围栏并向所有连接广播最新列表
// @Tags         Geofence
// @Accept       json
// @Produce      json
// @Param        request body CreateGeofenceRequest true "围栏定义"
// @Success      201  {object}  models.Geofence
// @Failure      400  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /geofences [post]
func (c *GeofenceController) CreateGeofence() {
	var req CreateGeofenceRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Context, "无效的请求参数: "+err.Error())
		return
	}

	geofence, err := c.Container.GetGeofenceService().CreateGeofence(req.Name, req.Type, req.Points)
	if err != nil {
		var invalid *services.InvalidGeofenceError
		if errors.As(err, &invalid) {
			response.FailWithMessage(c.Context, code.ErrGeofenceInvalid, invalid.Error(), nil)
			return
		}
		// 持久化失败，内存状态未被修改
		response.Fail(c.Context, code.ErrGeofencePersistence, nil)
		return
	}

	c.Context.JSON(http.StatusCreated, geofence)
}

// DeleteGeofence 处理删除围栏的请求
// @Summary      删除围栏
// @Description  删除指定ID的围栏，ID不存在时同样返回成功
// @Tags         Geofence
// @Produce      json
// @Param        id path string true "围栏ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  response.Response
// @Router       /geofences/{id} [delete]
func (c *GeofenceController) DeleteGeofence() {
	id := c.Context.Param("id")

	if _, err := c.Container.GetGeofenceService().DeleteGeofence(id); err != nil {
		response.Fail(c.Context, code.ErrGeofencePersistence, nil)
		return
	}

	// 删除不存在的ID也是幂等成功，调用方不应以此判定存在性
	c.Context.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleGeofenceFunc 返回一个处理围栏请求的Gin处理函数
func HandleGeofenceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewGeofenceController(ctx)

		switch method {
		case "getGeofences":
			controller.GetGeofences()
		case "createGeofence":
			controller.CreateGeofence()
		case "deleteGeofence":
			controller.DeleteGeofence()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}
