package console

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/reports"
)

// dashboardHandler serves the poller's last snapshot. The first request after
// startup fetches one if the poller has not yet succeeded.
func (h *Console) dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		latest, fetchedAt, lastErr := h.dashboard.Latest()
		if latest == nil {
			if err := h.dashboard.RefreshOnce(c.Request.Context()); err != nil {
				respondError(c, err)
				return
			}
			latest, fetchedAt, lastErr = h.dashboard.Latest()
		}
		respond(c, http.StatusOK, gin.H{
			"dashboard":  latest,
			"fetched_at": fetchedAt,
			"stale":      lastErr != nil,
		})
	}
}

func (h *Console) reportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var (
			data any
			err  error
		)
		switch models.ReportType(c.Param("type")) {
		case models.ReportTypeStock:
			data, err = h.api.Reports.Stock(ctx, token(c))
		case models.ReportTypeCustomerBalance:
			data, err = h.api.Reports.CustomerBalances(ctx, token(c))
		case models.ReportTypeSales:
			data, err = h.api.Reports.Sales(ctx, token(c))
		case models.ReportTypePayments:
			data, err = h.api.Reports.Payments(ctx, token(c))
		default:
			fail(c, http.StatusBadRequest, "unknown report type")
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, data)
	}
}

// exportReportsHandler builds the whole workbook before anything is sent, so
// a failed export never reaches the client as a truncated attachment.
func (h *Console) exportReportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		bundle, err := reports.Fetch(c.Request.Context(), h.api.Reports, token(c), h.now())
		if err != nil {
			respondError(c, err)
			return
		}
		var buf bytes.Buffer
		if err := h.export(&buf, bundle); err != nil {
			config.LogError(h.logger, "Console", "exportReportsHandler", "reports.Export", nil, err)
			_ = c.Error(err)
			fail(c, http.StatusInternalServerError, "Could not build the report workbook.")
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+reports.FileName(bundle)+`"`)
		c.Data(http.StatusOK, reports.ContentType, buf.Bytes())
	}
}

func (h *Console) auditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := h.db()
		if db == nil {
			fail(c, http.StatusServiceUnavailable, "audit log is not enabled")
			return
		}
		userId, _ := strconv.Atoi(c.Query("user_id"))
		limit, _ := strconv.Atoi(c.Query("limit"))
		logs, err := models.ListAuditLogs(c.Request.Context(), db, models.AuditLogFilter{
			ReferenceType: c.Query("reference_type"),
			UserId:        userId,
			Limit:         limit,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, logs)
	}
}
