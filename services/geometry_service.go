package services

import (
	"math"

	"tourist-safety-service/models"
)

// GeometryService 纯几何分类器，无状态，可安全并发调用。
// 对相同输入结果确定。
type GeometryService struct{}

// NewGeometryService 创建几何分类器
func NewGeometryService() *GeometryService {
	return &GeometryService{}
}

// Classify 将坐标点与围栏集合比对，返回区域状态。
// danger 围栏先于 safe 围栏判定，命中即返回：同时落在危险区与安全区
// 时结果必须是 danger（面向安全侧的优先级规则）。都不命中返回 neutral。
// 点恰好落在多边形边上时结果未定义，调用方不应依赖。
func (s *GeometryService) Classify(point models.Location, zones []models.Geofence) string {
	for _, zone := range zones {
		if zone.Type == models.GeofenceTypeDanger && s.pointInPolygon(point, zone.Points) {
			return models.ZoneStatusDanger
		}
	}
	for _, zone := range zones {
		if zone.Type == models.GeofenceTypeSafe && s.pointInPolygon(point, zone.Points) {
			return models.ZoneStatusSafe
		}
	}
	return models.ZoneStatusNeutral
}

// pointInPolygon 射线法（Even-Odd）判定点是否在闭合多边形内。
// x=lat, y=lng，首尾顶点隐式相连。
func (s *GeometryService) pointInPolygon(pt models.Location, ring models.PointList) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	inside := false
	x := pt.Lat
	y := pt.Lng

	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if len(ring[i]) < 2 || len(ring[j]) < 2 {
			continue
		}
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]

		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// IsFiniteCoordinate 判定经纬度是否为有限数值
func IsFiniteCoordinate(lat, lng float64) bool {
	return !math.IsNaN(lat) && !math.IsInf(lat, 0) &&
		!math.IsNaN(lng) && !math.IsInf(lng, 0)
}
