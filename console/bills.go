package console

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/middlewares"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/utils"
)

func (h *Console) listBillsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query url.Values
		for _, k := range []string{"customer_id", "payment_status"} {
			if v := c.Query(k); v != "" {
				if query == nil {
					query = url.Values{}
				}
				query.Set(k, v)
			}
		}
		bills, err := h.api.Bills.List(c.Request.Context(), token(c), query)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, bills)
	}
}

func (h *Console) billDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		bill, err := h.api.Bills.Detail(c.Request.Context(), token(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, bill)
	}
}

func draftProductIds(d *models.BillDraft) []int {
	ids := make([]int, 0, len(d.Items))
	for _, item := range d.Items {
		ids = append(ids, item.ProductId)
	}
	return ids
}

// previewBillHandler recomputes line totals, subtotal and the pending preview
// for a draft being edited. Nothing is sent to the backend besides the
// catalog lookup.
func (h *Console) previewBillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		draft := models.NewBillDraft(h.now())
		if !bindJSON(c, draft) {
			return
		}
		catalog, err := middlewares.GetCatalog(c.Request.Context(), draftProductIds(draft))
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, draft.Preview(catalog))
	}
}

func (h *Console) createBillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		draft := models.NewBillDraft(h.now())
		if !bindJSON(c, draft) {
			return
		}
		if err := draft.Validate(); err != nil {
			respondError(c, err)
			return
		}

		s := middlewares.CurrentSession(ctx)
		release, err := utils.SubmissionLock(ctx, "bill", s.ID, "Console", "createBill")
		if err != nil {
			respondError(c, err)
			return
		}
		defer release()

		catalog, err := middlewares.GetCatalog(ctx, draftProductIds(draft))
		if err != nil {
			respondError(c, err)
			return
		}
		bill, err := h.api.Bills.CreateFromDraft(ctx, token(c), draft, catalog)
		if err != nil {
			respondError(c, err)
			return
		}
		if bill == nil {
			respondMessage(c, http.StatusCreated, "bill created")
			return
		}
		respond(c, http.StatusCreated, bill)
	}
}

// paymentDraftHandler returns the pre-filled payment form for a bill.
func (h *Console) paymentDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		bill, err := h.api.Bills.Get(c.Request.Context(), token(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, models.NewPaymentDraft(*bill, h.now()))
	}
}

func (h *Console) recordPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewPayment
		if !bindJSON(c, &input) {
			return
		}
		if input.PaymentDate == "" {
			input.PaymentDate = utils.DateOnly(h.now())
		}
		if input.PaymentMode == "" {
			input.PaymentMode = models.PaymentModeCash
		}

		s := middlewares.CurrentSession(ctx)
		release, err := utils.SubmissionLock(ctx, "payment", s.ID, "Console", "recordPayment")
		if err != nil {
			respondError(c, err)
			return
		}
		defer release()

		bill, err := h.api.Bills.Get(ctx, token(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := h.api.Bills.RecordPayment(ctx, token(c), *bill, input); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, http.StatusOK, "payment recorded")
	}
}
