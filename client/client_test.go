package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/shop_console/models"
	"github.com/shopspring/decimal"
)

type recordedRequest struct {
	Method string
	Path   string
	UserID string
	Body   []byte
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handle   func(w http.ResponseWriter, r *http.Request, body []byte)
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		UserID: r.Header.Get(UserHeader),
		Body:   body,
	})
	f.mu.Unlock()
	r.Body = io.NopCloser(bytes.NewReader(body))
	f.handle(w, r, body)
}

func (f *fakeBackend) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func writeEnvelope(w http.ResponseWriter, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"message": message,
		"data":    data,
	})
}

func newTestAPI(t *testing.T, backend *fakeBackend) *API {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	c := New(srv.URL+"/", WithRateLimit(0), WithHTTPClient(srv.Client()))
	return NewAPI(c, NewMemoryCache(time.Minute), nil)
}

func TestDo_EnvelopeFailureIsDomainError(t *testing.T) {
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeEnvelope(w, false, "Bill not found", nil)
	}}
	api := newTestAPI(t, backend)

	_, err := api.Bills.Get(context.Background(), "7", 99)
	if err == nil {
		t.Fatalf("expected error for success=false")
	}
	kind, ok := KindOf(err)
	if !ok || kind != KindDomain {
		t.Fatalf("expected domain error, got %v (%v)", kind, err)
	}
	if msg := UserMessage(err); msg != "Bill not found" {
		t.Fatalf("expected backend message, got %q", msg)
	}
}

func TestDo_NonSuccessStatusIsHTTPError(t *testing.T) {
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, _ []byte) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}}
	api := newTestAPI(t, backend)

	_, err := api.Brands.List(context.Background(), "7", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindHTTP || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected http 500, got %s %d", apiErr.Kind, apiErr.Status)
	}
}

func TestDo_SendsUserHeader(t *testing.T) {
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeEnvelope(w, true, "", []models.Brand{{ID: 1, Name: "Acme"}})
	}}
	api := newTestAPI(t, backend)

	brands, err := api.Brands.List(context.Background(), "42", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(brands) != 1 || brands[0].Name != "Acme" {
		t.Fatalf("unexpected brands: %+v", brands)
	}
	if got := backend.requests[0].UserID; got != "42" {
		t.Fatalf("expected X-User-ID 42, got %q", got)
	}
}

func TestDo_MissingTokenNeverCallsBackend(t *testing.T) {
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeEnvelope(w, true, "", []models.Brand{})
	}}
	api := newTestAPI(t, backend)

	_, err := api.Brands.List(context.Background(), "", nil)
	if kind, _ := KindOf(err); kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if backend.total() != 0 {
		t.Fatalf("expected no request, got %d", backend.total())
	}
}

func TestRecordPayment_RefetchesCachedBills(t *testing.T) {
	var mu sync.Mutex
	pending := "100.00"
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, body []byte) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/bills":
			writeEnvelope(w, true, "", []map[string]any{{
				"id":             "5",
				"bill_number":    "B-5",
				"total_amount":   "100.00",
				"paid_amount":    "0.00",
				"pending_amount": pending,
				"payment_status": "pending",
			}})
		case r.Method == http.MethodPut && r.URL.Path == "/bills/5":
			pending = "0.00"
			writeEnvelope(w, true, "Payment recorded", nil)
		default:
			http.NotFound(w, r)
		}
	}}
	api := newTestAPI(t, backend)
	ctx := context.Background()

	bills, err := api.Bills.List(ctx, "7", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := api.Bills.List(ctx, "7", nil); err != nil {
		t.Fatalf("List (cached): %v", err)
	}
	if n := backend.count(http.MethodGet, "/bills"); n != 1 {
		t.Fatalf("expected one fetch before payment, got %d", n)
	}

	payment := models.NewPaymentDraft(bills[0], time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	payment.PaymentMode = models.PaymentModeUpi
	payment.ReferenceNumber = "UPI-1"
	if err := api.Bills.RecordPayment(ctx, "7", bills[0], payment); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	var sent map[string]any
	for _, r := range backend.requests {
		if r.Method == http.MethodPut {
			if err := json.Unmarshal(r.Body, &sent); err != nil {
				t.Fatalf("decode payment body: %v", err)
			}
		}
	}
	if sent["payment_amount"] != "100" || sent["payment_date"] != "2024-05-01" || sent["payment_mode"] != "upi" || sent["reference_number"] != "UPI-1" {
		t.Fatalf("unexpected payment body: %v", sent)
	}

	if n := backend.count(http.MethodGet, "/bills"); n != 2 {
		t.Fatalf("expected the cached list to be refetched, got %d fetches", n)
	}
	refreshed, err := api.Bills.List(ctx, "7", nil)
	if err != nil {
		t.Fatalf("List after payment: %v", err)
	}
	if !refreshed[0].PendingAmount.IsZero() {
		t.Fatalf("expected pending 0 after refetch, got %s", refreshed[0].PendingAmount)
	}
}

func TestResourceCache_ScopedPerUser(t *testing.T) {
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, _ []byte) {
		user := r.Header.Get(UserHeader)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/brands":
			writeEnvelope(w, true, "", []map[string]any{{"id": 1, "name": "brand-of-" + user}})
		case r.Method == http.MethodGet && r.URL.Path == "/brands/1":
			writeEnvelope(w, true, "", map[string]any{"id": 1, "name": "brand-of-" + user})
		case r.Method == http.MethodDelete && r.URL.Path == "/brands/2":
			writeEnvelope(w, true, "Deleted", nil)
		default:
			http.NotFound(w, r)
		}
	}}
	api := newTestAPI(t, backend)
	ctx := context.Background()

	for _, round := range []string{"first", "cached"} {
		for _, user := range []string{"1", "7"} {
			brands, err := api.Brands.List(ctx, user, nil)
			if err != nil {
				t.Fatalf("%s list for %s: %v", round, user, err)
			}
			if brands[0].Name != "brand-of-"+user {
				t.Fatalf("%s list for %s: got %q", round, user, brands[0].Name)
			}
			brand, err := api.Brands.Get(ctx, user, 1)
			if err != nil {
				t.Fatalf("%s get for %s: %v", round, user, err)
			}
			if brand.Name != "brand-of-"+user {
				t.Fatalf("%s get for %s: got %q", round, user, brand.Name)
			}
		}
	}
	if n := backend.count(http.MethodGet, "/brands"); n != 2 {
		t.Fatalf("expected one list fetch per user, got %d", n)
	}
	if n := backend.count(http.MethodGet, "/brands/1"); n != 2 {
		t.Fatalf("expected one item fetch per user, got %d", n)
	}

	// user 1's delete refetches only user 1's list; user 7's entry is dropped.
	if err := api.Brands.Delete(ctx, "1", 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := backend.count(http.MethodGet, "/brands"); n != 3 {
		t.Fatalf("expected the caller's list to be refetched, got %d fetches", n)
	}
	if _, err := api.Brands.List(ctx, "7", nil); err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if n := backend.count(http.MethodGet, "/brands"); n != 4 {
		t.Fatalf("expected the other user's list to be fetched again, got %d fetches", n)
	}
}

func TestLogin_LooseFlagsDenyOnlyThatCapability(t *testing.T) {
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, _ []byte) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"user":{"id":5,"name":"Ravi","role":"user"},`+
			`"permissions":{"dashboard":1,"bills":"1","reports":true,"checkin":"yes","product":null}}}`)
	}}
	api := newTestAPI(t, backend)

	result, err := api.Login(context.Background(), "9876543210", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	tests := []struct {
		capability models.Capability
		want       bool
	}{
		{models.CapabilityDashboard, true},
		{models.CapabilityBills, false},
		{models.CapabilityReports, false},
		{models.CapabilityCheckin, false},
		{models.CapabilityProduct, false},
	}
	for _, tt := range tests {
		if got := models.HasCapability(&result.Permissions, tt.capability); got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.capability, tt.want, got)
		}
	}
}

func TestRecordPayment_RejectsInvalidAmounts(t *testing.T) {
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeEnvelope(w, true, "", nil)
	}}
	api := newTestAPI(t, backend)
	bill := models.Bill{ID: 5, PendingAmount: decimal.NewFromInt(100)}

	cases := []struct {
		name   string
		amount decimal.Decimal
	}{
		{"zero", decimal.Zero},
		{"negative", decimal.NewFromInt(-1)},
		{"above pending", decimal.NewFromFloat(100.01)},
	}
	for _, tc := range cases {
		payment := models.NewPaymentDraft(bill, time.Now())
		payment.PaymentAmount = tc.amount
		err := api.Bills.RecordPayment(context.Background(), "7", bill, payment)
		if kind, _ := KindOf(err); kind != KindValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	if backend.total() != 0 {
		t.Fatalf("expected no request, got %d", backend.total())
	}
}

func TestCreateFromDraft_InvalidDraftNeverCallsBackend(t *testing.T) {
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeEnvelope(w, true, "", nil)
	}}
	api := newTestAPI(t, backend)

	draft := models.NewBillDraft(time.Now())
	draft.CustomerId = 3
	_, err := api.Bills.CreateFromDraft(context.Background(), "7", draft, models.CatalogMap{})
	if kind, _ := KindOf(err); kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if backend.total() != 0 {
		t.Fatalf("expected no request, got %d", backend.total())
	}
}

func TestCreateFromDraft_ResolvesCatalogPrice(t *testing.T) {
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeEnvelope(w, true, "Bill created", map[string]any{"id": 11, "bill_number": "B-11"})
	}}
	api := newTestAPI(t, backend)

	draft := models.NewBillDraft(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	draft.CustomerId = 3
	draft.Items[0] = models.DraftItem{ProductId: 9, Quantity: decimal.NewFromInt(2)}
	bill, err := api.Bills.CreateFromDraft(context.Background(), "7", draft, models.CatalogMap{9: decimal.NewFromInt(65)})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	if bill == nil || bill.ID != 11 {
		t.Fatalf("expected created bill 11, got %+v", bill)
	}

	var sent struct {
		CustomerId int    `json:"customer_id"`
		BillDate   string `json:"bill_date"`
		Items      []struct {
			ProductId int             `json:"product_id"`
			UnitPrice decimal.Decimal `json:"unit_price"`
		} `json:"items"`
	}
	if err := json.Unmarshal(backend.requests[0].Body, &sent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if sent.CustomerId != 3 || sent.BillDate != "2024-05-01" || len(sent.Items) != 1 || !sent.Items[0].UnitPrice.Equal(decimal.NewFromInt(65)) {
		t.Fatalf("unexpected create body: %+v", sent)
	}
}

func TestStaffUpdate_SendsOnlyGrantedFlags(t *testing.T) {
	backend := &fakeBackend{handle: func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeEnvelope(w, true, "", nil)
	}}
	api := newTestAPI(t, backend)

	input := &models.UpdateStaff{
		Name:  "Ravi",
		Phone: "9876543210",
		Role:  models.UserRoleUser,
		Permissions: models.Permissions{
			Dashboard: 1,
			Bills:     1,
			Checkin:   0,
		},
	}
	if err := api.Staff.Update(context.Background(), "1", 4, input); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var sent struct {
		Permissions map[string]int `json:"permissions"`
	}
	if err := json.Unmarshal(backend.requests[0].Body, &sent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(sent.Permissions) != 2 || sent.Permissions["dashboard"] != 1 || sent.Permissions["bills"] != 1 {
		t.Fatalf("expected only granted flags, got %v", sent.Permissions)
	}
	if _, ok := sent.Permissions["checkin"]; ok {
		t.Fatalf("revoked flag must not be sent: %v", sent.Permissions)
	}
}

func TestCheckinCreate_SendsMultipartAndRefreshes(t *testing.T) {
	var gotCustomer, gotFilename string
	backend := &fakeBackend{}
	backend.handle = func(w http.ResponseWriter, r *http.Request, _ []byte) {
		switch r.Method {
		case http.MethodPost:
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			gotCustomer = r.FormValue("customer_id")
			if _, fh, err := r.FormFile("shop_photo"); err == nil {
				gotFilename = fh.Filename
			}
			writeEnvelope(w, true, "Checkin created", nil)
		case http.MethodGet:
			writeEnvelope(w, true, "", map[string]any{
				"checkins":     []map[string]any{{"id": 1, "customer_id": 3, "shop_photo": "a.jpg"}},
				"pagination":   map[string]any{"page": 1, "limit": 20, "total": 1, "total_pages": 1},
				"current_user": "Ravi",
			})
		}
	}
	api := newTestAPI(t, backend)

	page, err := api.Checkins.Create(context.Background(), "7", 3, Upload{
		Filename:    "checkin-1714550400000.jpg",
		ContentType: "image/jpeg",
		Data:        []byte{0xff, 0xd8, 0xff},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if gotCustomer != "3" || gotFilename != "checkin-1714550400000.jpg" {
		t.Fatalf("unexpected multipart fields: customer=%q file=%q", gotCustomer, gotFilename)
	}
	if page == nil || len(page.Checkins) != 1 || page.CurrentUser != "Ravi" {
		t.Fatalf("expected refreshed page, got %+v", page)
	}
}

func TestUserMessage_Kinds(t *testing.T) {
	cases := []struct {
		err      error
		expected string
	}{
		{&Error{Kind: KindTransport, Op: "x"}, "Could not reach the server. Check your connection and try again."},
		{&Error{Kind: KindHTTP, Status: 404}, "The record was not found."},
		{&Error{Kind: KindHTTP, Status: 502, Message: "bad gateway"}, "The server could not complete the request."},
		{&Error{Kind: KindDomain, Message: "Customer exists"}, "Customer exists"},
		{models.NewValidationError("please select a customer"), "please select a customer"},
		{errors.New("other"), "Something went wrong."},
	}
	for _, tc := range cases {
		if got := UserMessage(tc.err); got != tc.expected {
			t.Fatalf("UserMessage(%v) expected %q, got %q", tc.err, tc.expected, got)
		}
	}
}
