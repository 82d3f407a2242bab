package console

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/checkin"
	"github.com/mmdatafocus/shop_console/client"
	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/middlewares"
	"github.com/mmdatafocus/shop_console/models"
)

const maxFrameSize = 20 << 20

type checkinView struct {
	Checkins    []models.CheckinRecord `json:"checkins"`
	Pagination  models.Pagination      `json:"pagination"`
	CurrentUser string                 `json:"current_user"`
	Stats       models.CheckinStats    `json:"stats"`
}

func (h *Console) checkinView(page *models.CheckinPage) *checkinView {
	if page == nil {
		return nil
	}
	records := make([]models.CheckinRecord, 0, len(page.Checkins))
	for _, r := range page.Checkins {
		records = append(records, r.WithPhotoURL(h.uploadsBase))
	}
	return &checkinView{
		Checkins:    records,
		Pagination:  page.Pagination,
		CurrentUser: page.CurrentUser,
		Stats:       models.SummarizeCheckins(records, h.now()),
	}
}

func (h *Console) listCheckinsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query url.Values
		for _, k := range []string{"page", "limit", "customer_id"} {
			if v := c.Query(k); v != "" {
				if query == nil {
					query = url.Values{}
				}
				query.Set(k, v)
			}
		}
		page, err := h.api.Checkins.List(c.Request.Context(), token(c), query)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, h.checkinView(page))
	}
}

// checkinSubmitter forwards a composed photo to the backend, archiving a copy
// first when an archive is configured.
type checkinSubmitter struct {
	h     *Console
	token string
	page  *models.CheckinPage
}

func (s *checkinSubmitter) SubmitCheckin(ctx context.Context, customerId int, photo checkin.Photo) error {
	objectName := fmt.Sprintf("checkins/%d/%s", customerId, photo.Name)
	if s.h.archive != nil {
		if err := s.h.archive.Store(ctx, objectName, photo.Data, photo.ContentType); err != nil {
			config.LogError(s.h.logger, "Console", "SubmitCheckin", "archive", objectName, err)
			objectName = ""
		}
	}
	page, err := s.h.api.Checkins.Create(ctx, s.token, customerId, client.Upload{
		Filename:    photo.Name,
		ContentType: photo.ContentType,
		Data:        photo.Data,
	})
	if err != nil {
		if s.h.archive != nil && objectName != "" {
			if rmErr := s.h.archive.Remove(context.WithoutCancel(ctx), objectName); rmErr != nil {
				config.LogError(s.h.logger, "Console", "SubmitCheckin", "archive rollback", objectName, rmErr)
			}
		}
		return err
	}
	s.page = page
	return nil
}

// createCheckinHandler takes the raw frame posted as shop_photo, runs it
// through the capture flow and submits the composed photo.
func (h *Console) createCheckinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		customerId, _ := strconv.Atoi(c.PostForm("customer_id"))
		if customerId <= 0 {
			fail(c, http.StatusBadRequest, "please select a customer")
			return
		}
		if _, err := middlewares.GetCustomer(ctx, customerId); err != nil {
			respondError(c, err)
			return
		}

		fh, err := c.FormFile("shop_photo")
		if err != nil {
			fail(c, http.StatusBadRequest, "please capture a shop photo")
			return
		}
		if fh.Size > maxFrameSize {
			fail(c, http.StatusRequestEntityTooLarge, "the photo is too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close()
		frame, err := checkin.DecodeFrame(io.LimitReader(f, maxFrameSize))
		if err != nil {
			fail(c, http.StatusBadRequest, "the photo could not be read")
			return
		}

		capture := checkin.NewCapture(checkin.StillCamera{Image: frame})
		defer capture.Close()
		if err := capture.Open(ctx); err != nil {
			respondError(c, err)
			return
		}
		if _, err := capture.Capture(); err != nil {
			respondError(c, err)
			return
		}
		submitter := &checkinSubmitter{h: h, token: token(c)}
		if err := capture.Submit(ctx, customerId, submitter); err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusCreated, h.checkinView(submitter.page))
	}
}

func (h *Console) deleteCheckinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		page, err := h.api.Checkins.Delete(c.Request.Context(), token(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, h.checkinView(page))
	}
}
