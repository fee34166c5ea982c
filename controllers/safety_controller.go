package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tourist-safety-service/internal/error/response"
	"tourist-safety-service/models"
	"tourist-safety-service/services/container"
)

// SafetyController 处理安全评估相关的请求
type SafetyController struct {
	BaseControllerImpl
}

// NewSafetyController 创建一个新的安全评估控制器
func (f *ControllerFactory) NewSafetyController(ctx *gin.Context) *SafetyController {
	return &SafetyController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// PredictSafetyRequest 表示安全评估请求
type PredictSafetyRequest struct {
	Location *models.Location `json:"location" binding:"required"`
	Context  string           `json:"context" example:"夜间徒步"`
}

// PredictSafety 处理安全评估请求
// @Summary      位置安全评估
// @Description  委托外部AI服务评估指定位置的安全状况，上游不可用时降级为Unknown
// @Tags         Safety
// @Accept       json
// @Produce      json
// @Param        request body PredictSafetyRequest true "评估请求参数"
// @Success      200  {object}  models.SafetyPrediction
// @Failure      400  {object}  response.Response
// @Router       /predict-safety [post]
func (c *SafetyController) PredictSafety() {
	var req PredictSafetyRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Context, "无效的请求参数: "+err.Error())
		return
	}

	// 上游失败已在服务层降级为Unknown，这里永远返回200
	prediction := c.Container.GetSafetyService().PredictSafety(req.Location, req.Context)
	c.Context.JSON(http.StatusOK, prediction)
}

// HandleSafetyFunc 返回一个处理安全评估请求的Gin处理函数
func HandleSafetyFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewSafetyController(ctx)

		switch method {
		case "predictSafety":
			controller.PredictSafety()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}
