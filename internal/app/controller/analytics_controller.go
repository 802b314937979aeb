package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/internal/app/service"
	apperrors "github.com/kapehan/cafe-pos/internal/errors"
	"github.com/kapehan/cafe-pos/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AnalyticsController struct {
	analytics service.AnalyticsService
	reports   service.ReportService
}

func NewAnalyticsController(analytics service.AnalyticsService, reports service.ReportService) *AnalyticsController {
	return &AnalyticsController{
		analytics: analytics,
		reports:   reports,
	}
}

// Dashboard GET /api/v1/analytics/dashboard?from=YYYY-MM-DD&to=YYYY-MM-DD
func (ctrl *AnalyticsController) Dashboard(c *gin.Context) {
	from, to, ok := parseDateRange(c, ctrl.analytics.Location())
	if !ok {
		return
	}

	dashboard, err := ctrl.analytics.Dashboard(from, to)
	if err != nil {
		respondError(c, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// History returns stored daily rollups
// GET /api/v1/analytics/history?from=&to=
func (ctrl *AnalyticsController) History(c *gin.Context) {
	from, to, ok := parseDateRange(c, ctrl.analytics.Location())
	if !ok {
		return
	}

	rows, err := ctrl.analytics.History(from.Format("2006-01-02"), to.AddDate(0, 0, -1).Format("2006-01-02"))
	if err != nil {
		respondError(c, err, "load sales history")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"days":  rows,
		"count": len(rows),
	})
}

// Rollup recomputes one day's rollup on demand
// POST /api/v1/analytics/rollup?date=YYYY-MM-DD
func (ctrl *AnalyticsController) Rollup(c *gin.Context) {
	day, err := time.ParseInLocation("2006-01-02", c.Query("date"), ctrl.analytics.Location())
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "date must be YYYY-MM-DD")
		return
	}

	row, err := ctrl.analytics.RollupDay(day)
	if err != nil {
		respondError(c, err, "rollup daily sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": row})
}

// Report streams the dashboard as an XLSX workbook
// GET /api/v1/analytics/report.xlsx?from=&to=
func (ctrl *AnalyticsController) Report(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	from, to, ok := parseDateRange(c, ctrl.analytics.Location())
	if !ok {
		return
	}

	// Buffer so a failure still gets a JSON error instead of a truncated file.
	var buf bytes.Buffer
	if err := ctrl.reports.WriteSalesReport(&buf, from, to); err != nil {
		respondError(c, err, "build sales report")
		return
	}

	filename := fmt.Sprintf("sales_%s_%s.xlsx", from.Format("20060102"), to.AddDate(0, 0, -1).Format("20060102"))
	log.Info("Sales report exported", map[string]interface{}{
		"filename": filename,
		"bytes":    buf.Len(),
	})

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
