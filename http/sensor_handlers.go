package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// sensorParams extracts and checks the brand/id path pair.
func sensorParams(c *gin.Context) (brand, id string, ok bool) {
	brand = strings.TrimSpace(c.Param("sensor_brand"))
	id = strings.TrimSpace(c.Param("sensor_id"))
	if brand == "" || id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sensor_brand and sensor_id are required parameters"})
		return "", "", false
	}
	return brand, id, true
}

// parseCoordinate parses a latitude or longitude query parameter and checks
// its geographic range.
func parseCoordinate(c *gin.Context, name string, min, max float64) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is a required query parameter", name)})
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < min || v > max {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s: must be a number between %g and %g", name, min, max)})
		return 0, false
	}
	return v, true
}

// handleListSensors returns all sensor catalog records.
// GET /api/v2/sensors
func (s *Server) handleListSensors(c *gin.Context) {
	ctx, cancel := s.opContext(c)
	defer cancel()

	sensors, err := s.store.ListSensors(ctx)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(sensors), "sensors": sensors})
}

// handleListSensorsByBrand returns all sensors of one brand.
// GET /api/v2/sensors/:sensor_brand
func (s *Server) handleListSensorsByBrand(c *gin.Context) {
	brand := strings.TrimSpace(c.Param("sensor_brand"))
	if brand == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sensor_brand is a required parameter"})
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	sensors, err := s.store.ListSensorsByBrand(ctx, brand)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(sensors), "sensors": sensors})
}

// handleGetSensor returns one sensor's metadata.
// GET /api/v2/sensors/:sensor_brand/:sensor_id
func (s *Server) handleGetSensor(c *gin.Context) {
	brand, id, ok := sensorParams(c)
	if !ok {
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	sensor, err := s.store.GetSensor(ctx, brand, id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sensor": sensor})
}

// handleRegisterSensor registers a new sensor.
// POST /api/v2/sensors/:sensor_brand/:sensor_id?latitude=&longitude=
func (s *Server) handleRegisterSensor(c *gin.Context) {
	brand, id, ok := sensorParams(c)
	if !ok {
		return
	}
	lat, ok := parseCoordinate(c, "latitude", -90, 90)
	if !ok {
		return
	}
	lon, ok := parseCoordinate(c, "longitude", -180, 180)
	if !ok {
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	if err := s.store.RegisterSensor(ctx, brand, id, lat, lon); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("sensor %s/%s registered", brand, id),
	})
}

// handleUpdateSensorLocation moves a sensor, archiving its prior location.
// PUT /api/v2/sensors/:sensor_brand/:sensor_id/location?new_latitude=&new_longitude=
func (s *Server) handleUpdateSensorLocation(c *gin.Context) {
	brand, id, ok := sensorParams(c)
	if !ok {
		return
	}
	lat, ok := parseCoordinate(c, "new_latitude", -90, 90)
	if !ok {
		return
	}
	lon, ok := parseCoordinate(c, "new_longitude", -180, 180)
	if !ok {
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	prevLat, prevLon, err := s.store.UpdateSensorLocation(ctx, brand, id, lat, lon)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "sensor location updated",
		"updated": gin.H{
			"sensor_brand":       brand,
			"sensor_id":          id,
			"new_latitude":       lat,
			"new_longitude":      lon,
			"previous_latitude":  prevLat,
			"previous_longitude": prevLon,
		},
	})
}

// handleDeprecateSensor flags a sensor inactive; its data stays.
// PUT /api/v2/sensors/:sensor_brand/:sensor_id/deprecate
func (s *Server) handleDeprecateSensor(c *gin.Context) {
	brand, id, ok := sensorParams(c)
	if !ok {
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	if err := s.store.DeprecateSensor(ctx, brand, id); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("sensor %s/%s marked inactive", brand, id)})
}
