package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"tourist-safety-service/models"
)

func squareZone(id, zoneType string) models.Geofence {
	return models.Geofence{
		ID:   id,
		Name: "测试区域",
		Type: zoneType,
		Points: models.PointList{
			{10, 10}, {10, 20}, {20, 20}, {20, 10},
		},
	}
}

func TestGeometryService_Classify_DangerScenario(t *testing.T) {
	geometry := NewGeometryService()
	zones := []models.Geofence{squareZone("1", models.GeofenceTypeDanger)}

	// 区域内的点
	assert.Equal(t, models.ZoneStatusDanger,
		geometry.Classify(models.Location{Lat: 15, Lng: 15}, zones))

	// 区域外的点
	assert.Equal(t, models.ZoneStatusNeutral,
		geometry.Classify(models.Location{Lat: 0, Lng: 0}, zones))
}

func TestGeometryService_Classify_SafeZone(t *testing.T) {
	geometry := NewGeometryService()
	zones := []models.Geofence{squareZone("1", models.GeofenceTypeSafe)}

	assert.Equal(t, models.ZoneStatusSafe,
		geometry.Classify(models.Location{Lat: 15, Lng: 15}, zones))
}

func TestGeometryService_Classify_DangerPrecedence(t *testing.T) {
	geometry := NewGeometryService()

	// 同一位置同时落在安全区和危险区，危险区优先，围栏顺序无关
	zones := []models.Geofence{
		squareZone("safe", models.GeofenceTypeSafe),
		squareZone("danger", models.GeofenceTypeDanger),
	}
	assert.Equal(t, models.ZoneStatusDanger,
		geometry.Classify(models.Location{Lat: 15, Lng: 15}, zones))

	zones[0], zones[1] = zones[1], zones[0]
	assert.Equal(t, models.ZoneStatusDanger,
		geometry.Classify(models.Location{Lat: 15, Lng: 15}, zones))
}

func TestGeometryService_Classify_RotationInvariant(t *testing.T) {
	geometry := NewGeometryService()
	points := models.PointList{
		{10, 10}, {10, 20}, {20, 20}, {20, 10},
	}
	inside := models.Location{Lat: 15, Lng: 15}
	outside := models.Location{Lat: 25, Lng: 25}

	// 顶点序列的任意循环旋转不改变判定结果
	for shift := 0; shift < len(points); shift++ {
		rotated := make(models.PointList, 0, len(points))
		rotated = append(rotated, points[shift:]...)
		rotated = append(rotated, points[:shift]...)

		zones := []models.Geofence{{ID: "1", Type: models.GeofenceTypeDanger, Points: rotated}}
		assert.Equal(t, models.ZoneStatusDanger, geometry.Classify(inside, zones),
			"旋转%d后区域内判定改变", shift)
		assert.Equal(t, models.ZoneStatusNeutral, geometry.Classify(outside, zones),
			"旋转%d后区域外判定改变", shift)
	}
}

func TestGeometryService_Classify_ConcavePolygon(t *testing.T) {
	geometry := NewGeometryService()

	// L形凹多边形
	zones := []models.Geofence{{
		ID:   "1",
		Type: models.GeofenceTypeDanger,
		Points: models.PointList{
			{0, 0}, {0, 10}, {4, 10}, {4, 4}, {10, 4}, {10, 0},
		},
	}}

	assert.Equal(t, models.ZoneStatusDanger,
		geometry.Classify(models.Location{Lat: 2, Lng: 8}, zones))
	// 凹陷处的点在多边形外
	assert.Equal(t, models.ZoneStatusNeutral,
		geometry.Classify(models.Location{Lat: 8, Lng: 8}, zones))
}

func TestGeometryService_Classify_DegenerateRing(t *testing.T) {
	geometry := NewGeometryService()

	// 少于3个顶点的环不构成多边形，任何点都不会命中
	zones := []models.Geofence{{
		ID:     "1",
		Type:   models.GeofenceTypeDanger,
		Points: models.PointList{{10, 10}, {20, 20}},
	}}

	assert.Equal(t, models.ZoneStatusNeutral,
		geometry.Classify(models.Location{Lat: 15, Lng: 15}, zones))
}

func TestGeometryService_Classify_NoZones(t *testing.T) {
	geometry := NewGeometryService()

	assert.Equal(t, models.ZoneStatusNeutral,
		geometry.Classify(models.Location{Lat: 15, Lng: 15}, nil))
}

func TestIsFiniteCoordinate(t *testing.T) {
	assert.True(t, IsFiniteCoordinate(15, 15))
	assert.True(t, IsFiniteCoordinate(-90, 180))

	assert.False(t, IsFiniteCoordinate(math.NaN(), 0))
	assert.False(t, IsFiniteCoordinate(0, math.Inf(1)))
	assert.False(t, IsFiniteCoordinate(math.Inf(-1), 0))
}
