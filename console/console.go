package console

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/checkin"
	"github.com/mmdatafocus/shop_console/client"
	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/middlewares"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/reports"
	"github.com/mmdatafocus/shop_console/session"
	"github.com/mmdatafocus/shop_console/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DashboardView interface {
	Latest() (*models.Dashboard, time.Time, error)
	RefreshOnce(ctx context.Context) error
}

// Archive stores a copy of a composed check-in photo. Remove undoes it.
type Archive interface {
	Store(ctx context.Context, name string, data []byte, contentType string) error
	Remove(ctx context.Context, name string) error
}

type gcsArchive struct{}

func (gcsArchive) Store(ctx context.Context, name string, data []byte, contentType string) error {
	return utils.UploadBytesToGCS(ctx, name, data, contentType)
}

func (gcsArchive) Remove(ctx context.Context, name string) error {
	return utils.DeleteObjectFromGCS(ctx, name)
}

// GCSArchive writes to the configured storage bucket.
func GCSArchive() Archive {
	return gcsArchive{}
}

type Console struct {
	api         *client.API
	sessions    *session.Manager
	dashboard   DashboardView
	db          func() *gorm.DB
	archive     Archive
	uploadsBase string
	logger      *logrus.Logger
	now         func() time.Time
	export      func(w io.Writer, b *reports.Bundle) error
}

type Option func(*Console)

func WithArchive(a Archive) Option {
	return func(h *Console) { h.archive = a }
}

// WithAuditDB supplies the audit database. It is read per request since the
// connection comes up after the server starts.
func WithAuditDB(db func() *gorm.DB) Option {
	return func(h *Console) { h.db = db }
}

func WithUploadsBase(base string) Option {
	return func(h *Console) { h.uploadsBase = base }
}

func WithClock(now func() time.Time) Option {
	return func(h *Console) { h.now = now }
}

func New(api *client.API, sessions *session.Manager, dashboard DashboardView, opts ...Option) *Console {
	h := &Console{
		api:         api,
		sessions:    sessions,
		dashboard:   dashboard,
		db:          func() *gorm.DB { return nil },
		uploadsBase: config.UploadsBaseURL(),
		logger:      config.GetLogger(),
		now:         time.Now,
		export:      reports.Export,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every console route on r. SessionMiddleware must already be installed.
func (h *Console) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.POST("/login", h.loginHandler())

	authed := api.Group("", middlewares.RequireSession(), middlewares.LoaderMiddleware(h.api), middlewares.AuditTrail(h.db))
	authed.POST("/logout", h.logoutHandler())
	authed.GET("/me", h.meHandler())

	dashboard := authed.Group("/dashboard", middlewares.RequireCapability(models.CapabilityDashboard))
	dashboard.GET("", h.dashboardHandler())

	staff := authed.Group("/staff", middlewares.RequireAdmin())
	staff.GET("", h.listStaffHandler())
	staff.GET("/:id", h.getStaffHandler())
	staff.POST("", h.createStaffHandler())
	staff.PUT("/:id", h.updateStaffHandler())
	staff.DELETE("/:id", h.deleteStaffHandler())

	brands := authed.Group("/brands", middlewares.RequireCapability(models.CapabilityBrand))
	brands.GET("", listHandler(h.api.Brands, "search"))
	brands.GET("/:id", getHandler(h.api.Brands))
	brands.POST("", createHandler(h.api.Brands))
	brands.PUT("/:id", updateHandler(h.api.Brands))
	brands.DELETE("/:id", deleteHandler(h.api.Brands, false))

	products := authed.Group("/products", middlewares.RequireCapability(models.CapabilityProduct))
	products.GET("", listHandler(h.api.Products, "search", "brand_id"))
	products.GET("/:id", getHandler(h.api.Products))
	products.POST("", createHandler(h.api.Products))
	products.PUT("/:id", updateHandler(h.api.Products))
	products.DELETE("/:id", deleteHandler(h.api.Products, true))

	customers := authed.Group("/customers", middlewares.RequireCapability(models.CapabilityCustomer))
	customers.GET("", listHandler(h.api.Customers, "search"))
	customers.GET("/:id", getHandler(h.api.Customers))
	customers.POST("", createHandler(h.api.Customers))
	customers.PUT("/:id", updateHandler(h.api.Customers))
	customers.DELETE("/:id", deleteHandler(h.api.Customers, false))

	bills := authed.Group("/bills", middlewares.RequireCapability(models.CapabilityBills))
	bills.GET("", h.listBillsHandler())
	bills.GET("/:id", h.billDetailHandler())
	bills.POST("/preview", h.previewBillHandler())
	bills.POST("", h.createBillHandler())
	bills.GET("/:id/payment-draft", h.paymentDraftHandler())
	bills.POST("/:id/payments", h.recordPaymentHandler())

	checkins := authed.Group("/checkins", middlewares.RequireCapability(models.CapabilityCheckin))
	checkins.GET("", h.listCheckinsHandler())
	checkins.POST("", h.createCheckinHandler())
	checkins.DELETE("/:id", h.deleteCheckinHandler())

	reportGroup := authed.Group("/reports", middlewares.RequireCapability(models.CapabilityReports))
	reportGroup.GET("/export", h.exportReportsHandler())
	reportGroup.GET("/:type", h.reportHandler())

	audit := authed.Group("/auditlogs", middlewares.RequireCapability(models.CapabilityAuditLogs))
	audit.GET("", h.auditLogsHandler())
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// respondError maps an operation failure to a status and a short message.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var camErr *checkin.CameraError
	var stateErr *checkin.StateError
	switch {
	case errors.Is(err, utils.ErrSubmissionInProgress):
		fail(c, http.StatusConflict, "Please wait, the previous submission is still in progress.")
		return
	case errors.As(err, &camErr):
		fail(c, http.StatusUnprocessableEntity, camErr.UserMessage())
		return
	case errors.As(err, &stateErr):
		fail(c, http.StatusConflict, err.Error())
		return
	}

	var ve *models.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": ve.Message, "fields": ve.Fields})
		return
	}

	kind, ok := client.KindOf(err)
	if !ok {
		fail(c, http.StatusInternalServerError, client.UserMessage(err))
		return
	}
	status := http.StatusInternalServerError
	switch kind {
	case client.KindValidation:
		status = http.StatusBadRequest
	case client.KindDomain:
		status = http.StatusUnprocessableEntity
	case client.KindTransport:
		status = http.StatusBadGateway
	case client.KindHTTP:
		var apiErr *client.Error
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		} else {
			status = http.StatusBadGateway
		}
	}
	fail(c, status, client.UserMessage(err))
}

func token(c *gin.Context) string {
	t, _ := utils.GetTokenFromContext(c.Request.Context())
	return t
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
