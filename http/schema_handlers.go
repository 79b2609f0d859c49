package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openairmap/sensor-api/measurement"
)

// identityFromPath builds the measurement identity from the request path.
// The measurement_model segment is optional; the RAW-MODEL placeholder is
// accepted in its place.
func identityFromPath(c *gin.Context) (measurement.Identity, bool) {
	identity, err := measurement.NewIdentity(
		c.Param("sensor_brand"),
		c.Param("sensor_id"),
		c.Param("measurement_type"),
		c.Param("measurement_time_interval"),
		c.Param("measurement_model"),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return measurement.Identity{}, false
	}
	return identity, true
}

// handleListSchemas returns every registered measurement schema entry.
// GET /api/v2/sensor-schemas
func (s *Server) handleListSchemas(c *gin.Context) {
	ctx, cancel := s.opContext(c)
	defer cancel()

	entries, err := s.store.ListSchemas(ctx)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "schemas": entries})
}

// handleListSchemasForSensor returns the schema entries of one sensor.
// GET /api/v2/sensor-schemas/:sensor_brand/:sensor_id
func (s *Server) handleListSchemasForSensor(c *gin.Context) {
	brand, id, ok := sensorParams(c)
	if !ok {
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	entries, err := s.store.ListSchemasForSensor(ctx, brand, id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "schemas": entries})
}

type registerSchemaRequest struct {
	SensorDataSchema map[string]string `json:"sensor_data_schema" binding:"required"`
}

// handleRegisterSchema registers a measurement stream and provisions its
// physical table.
// POST /api/v2/sensor-schemas/:sensor_brand/:sensor_id/:measurement_type/:measurement_time_interval[/:measurement_model]
func (s *Server) handleRegisterSchema(c *gin.Context) {
	identity, ok := identityFromPath(c)
	if !ok {
		return
	}

	var req registerSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sensor_data_schema is required: " + err.Error()})
		return
	}
	schema, err := measurement.ParseSchema(req.SensorDataSchema)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	entry, err := s.store.RegisterSchema(ctx, identity, schema)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("measurement table %s provisioned", entry.SensorTableName),
		"schema":  entry,
	})
}

type updateSchemaRequest struct {
	NewColumns    map[string]string `json:"new_columns"`
	RenameColumns map[string]string `json:"rename_columns"`
}

// handleUpdateSchema amends a measurement stream's columns, keeping the live
// table and the registry entry in sync.
// PUT /api/v2/sensor-schemas/:sensor_brand/:sensor_id/:measurement_type/:measurement_time_interval[/:measurement_model]
func (s *Server) handleUpdateSchema(c *gin.Context) {
	identity, ok := identityFromPath(c)
	if !ok {
		return
	}

	var req updateSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.NewColumns) == 0 && len(req.RenameColumns) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either new_columns or rename_columns must be provided"})
		return
	}

	var newColumns measurement.Schema
	if len(req.NewColumns) > 0 {
		var err error
		newColumns, err = measurement.ParseSchema(req.NewColumns)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	entry, err := s.store.UpdateSchema(ctx, identity.TableName(), newColumns, req.RenameColumns)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("schema for %s updated", entry.SensorTableName),
		"schema":  entry,
	})
}
