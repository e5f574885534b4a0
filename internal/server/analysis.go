package server

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	analysisdomain "github.com/fleetops/fuelrate/internal/analysis/domain"
	"github.com/fleetops/fuelrate/internal/config"
	summarydomain "github.com/fleetops/fuelrate/internal/summary/domain"
	"github.com/fleetops/fuelrate/pkg/tabular"
)

const (
	filterDateLayout = "2006-01-02"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) CreateAnalysis(c *gin.Context) {
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}

	refuels, err := s.formTable(c, "refuels", true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	workHours, err := s.formTable(c, "work_hours", true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	classification, err := s.formTable(c, "classification", false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	a, err := s.analysisSvc.Run(c.Request.Context(), analysisdomain.RunInput{
		Refuels:        refuels,
		WorkHours:      workHours,
		Classification: classification,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": a})
}

func (s *Server) GetAnalysis(c *gin.Context) {
	id, err := parseAnalysisID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	a, err := s.analysisSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": a})
}

func (s *Server) DeleteAnalysis(c *gin.Context) {
	id, err := parseAnalysisID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.analysisSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListIntervals(c *gin.Context) {
	id, err := parseAnalysisID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	filter, err := parseFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	intervals, err := s.analysisSvc.Intervals(c.Request.Context(), id, filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": intervals})
}

func (s *Server) GetSummary(c *gin.Context) {
	id, err := parseAnalysisID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	filter, err := parseFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	mode, err := parseMode(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summaries, err := s.analysisSvc.Summary(c.Request.Context(), id, filter, mode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func (s *Server) GetReport(c *gin.Context) {
	id, err := parseAnalysisID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.analysisSvc.Report(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// An analysis with no summarizable data has no report; that is "no
	// data", not an error.
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) GetActivities(c *gin.Context) {
	id, err := parseAnalysisID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	topN := 0
	if raw := strings.TrimSpace(c.Query("top")); raw != "" {
		topN, err = strconv.Atoi(raw)
		if err != nil || topN <= 0 {
			AbortWithError(c, newValidationError("top", "invalid_top", "top must be a positive integer"))
			return
		}
	}

	ranking, err := s.analysisSvc.Activities(c.Request.Context(), id, topN)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ranking})
}

func (s *Server) GetOutliers(c *gin.Context) {
	id, err := parseAnalysisID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	outliers, err := s.analysisSvc.Outliers(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": outliers})
}

func (s *Server) ExportIntervals(c *gin.Context) {
	id, err := parseAnalysisID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	filter, err := parseFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	buf, err := s.analysisSvc.ExportIntervals(c.Request.Context(), id, filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=intervals_%d.xlsx", id))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) ExportSummary(c *gin.Context) {
	id, err := parseAnalysisID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	filter, err := parseFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	mode, err := parseMode(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	buf, err := s.analysisSvc.ExportSummary(c.Request.Context(), id, filter, mode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=summary_%d.xlsx", id))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// formTable decodes one uploaded spreadsheet. Optional parts that are
// absent return (nil, nil).
func (s *Server) formTable(c *gin.Context, field string, required bool) (*tabular.Table, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		if !required {
			return nil, nil
		}
		return nil, newValidationError(field, "missing_file", fmt.Sprintf("multipart field %q is required", field))
	}
	return readUpload(fileHeader)
}

func readUpload(fileHeader *multipart.FileHeader) (*tabular.Table, error) {
	format, err := tabular.DetectFormat(fileHeader.Filename)
	if err != nil {
		return nil, err
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return tabular.Read(f, format)
}

func parseAnalysisID(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, newValidationError("id", "invalid_id", "invalid analysis id")
	}
	return snowflake.ID(id), nil
}

func parseFilter(c *gin.Context) (summarydomain.Filter, error) {
	f := summarydomain.Filter{
		Zones:      c.QueryArray("zone"),
		Categories: c.QueryArray("category"),
	}

	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		from, err := time.ParseInLocation(filterDateLayout, raw, time.UTC)
		if err != nil {
			return f, newValidationError("from", "invalid_from", "from must be YYYY-MM-DD")
		}
		f.From = &from
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		to, err := time.ParseInLocation(filterDateLayout, raw, time.UTC)
		if err != nil {
			return f, newValidationError("to", "invalid_to", "to must be YYYY-MM-DD")
		}
		f.To = &to
	}
	return f, nil
}

func parseMode(c *gin.Context) (string, error) {
	mode := strings.TrimSpace(c.Query("mode"))
	switch mode {
	case "", config.ModeWeighted, config.ModeUnweighted:
		return mode, nil
	default:
		return "", newValidationError("mode", "invalid_mode", "mode must be weighted or unweighted")
	}
}
