package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// dateRange extracts the required start_date/end_date query parameters.
// Normalization of slash-formatted dates happens inside the pipeline.
func dateRange(c *gin.Context) (start, end string, ok bool) {
	start, end = c.Query("start_date"), c.Query("end_date")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date and end_date are required query parameters"})
		return "", "", false
	}
	return start, end, true
}

// handleQueryReadingsJSON returns readings in an inclusive date range.
// GET /api/v2/readings/json/:sensor_brand/:sensor_id/:measurement_model/:measurement_type/:measurement_time_interval
func (s *Server) handleQueryReadingsJSON(c *gin.Context) {
	identity, ok := identityFromPath(c)
	if !ok {
		return
	}
	start, end, ok := dateRange(c)
	if !ok {
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	records, _, err := s.store.QueryReadings(ctx, identity.TableName(), start, end)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "readings": records})
}

// handleIngestReadingsJSON bulk-inserts a JSON array of records.
// POST /api/v2/readings/json/:sensor_brand/:sensor_id/:measurement_model/:measurement_type/:measurement_time_interval
func (s *Server) handleIngestReadingsJSON(c *gin.Context) {
	identity, ok := identityFromPath(c)
	if !ok {
		return
	}

	var records []map[string]any
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON array of records: " + err.Error()})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload contains no records"})
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	inserted, err := s.store.IngestReadings(ctx, identity.TableName(), records)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "data inserted successfully",
		"inserted": inserted,
	})
}

// handleExportReadingsCSV streams readings in an inclusive date range as a
// CSV attachment.
// GET /api/v2/readings/csv/:sensor_brand/:sensor_id/:measurement_model/:measurement_type/:measurement_time_interval
func (s *Server) handleExportReadingsCSV(c *gin.Context) {
	identity, ok := identityFromPath(c)
	if !ok {
		return
	}
	start, end, ok := dateRange(c)
	if !ok {
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	tableName := identity.TableName()
	records, cols, err := s.store.QueryReadings(ctx, tableName, start, end)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", tableName))
	c.Status(http.StatusOK)

	if err := writeCSV(c.Writer, cols, records); err != nil {
		// Headers are already out; all we can do is log and drop the stream.
		s.log.Error("csv export failed", "table", tableName, "error", err)
	}
}

// handleIngestReadingsCSV bulk-inserts an uploaded CSV file (multipart field
// "file"). The header row must exactly match the table's columns; a row
// failing validation aborts the whole upload.
// POST /api/v2/readings/csv/:sensor_brand/:sensor_id/:measurement_model/:measurement_type/:measurement_time_interval
func (s *Server) handleIngestReadingsCSV(c *gin.Context) {
	identity, ok := identityFromPath(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a CSV file upload named 'file' is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	records, err := readCSVRecords(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	inserted, err := s.store.IngestReadings(ctx, identity.TableName(), records)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "data inserted successfully",
		"inserted": inserted,
	})
}

// handleLastReading returns the most recent reading, or a null reading for
// an empty table.
// GET /api/v2/readings/last/:sensor_brand/:sensor_id/:measurement_model/:measurement_type/:measurement_time_interval
func (s *Server) handleLastReading(c *gin.Context) {
	identity, ok := identityFromPath(c)
	if !ok {
		return
	}

	ctx, cancel := s.opContext(c)
	defer cancel()

	record, err := s.store.LastReading(ctx, identity.TableName())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if record == nil {
		c.JSON(http.StatusOK, gin.H{"reading": nil, "message": "no readings recorded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reading": record})
}
