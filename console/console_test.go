package console

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/client"
	"github.com/mmdatafocus/shop_console/middlewares"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/session"
	"github.com/shopspring/decimal"
)

type backendCall struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

type backend struct {
	mu    sync.Mutex
	calls []backendCall
}

func (b *backend) record(r *http.Request) []byte {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, backendCall{Method: r.Method, Path: r.URL.Path, Body: body, Header: r.Header.Clone()})
	b.mu.Unlock()
	return body
}

func (b *backend) find(method, path string) []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []backendCall
	for _, c := range b.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (b *backend) mutations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Method != http.MethodGet && c.Path != "/auth" {
			n++
		}
	}
	return n
}

func envelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		b.mu.Lock()
		b.calls = append(b.calls, backendCall{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()})
		b.mu.Unlock()
	} else {
		b.record(r)
	}
	switch {
	case r.URL.Path == "/auth":
		envelope(w, map[string]any{
			"user":        map[string]any{"id": 5, "name": "Meena", "phone": "9876543210", "role": "user"},
			"permissions": map[string]any{"bills": 1, "product": 1, "checkin": 1, "dashboard": 1, "reports": 0},
		})
	case r.URL.Path == "/products" && r.Method == http.MethodGet:
		envelope(w, []map[string]any{{"id": 1, "name": "Tea 250g", "price": "65"}})
	case r.URL.Path == "/customers" && r.Method == http.MethodGet:
		envelope(w, []map[string]any{{"id": 3, "shop_name": "Lakshmi Stores"}})
	case r.URL.Path == "/bills" && r.Method == http.MethodGet:
		envelope(w, []map[string]any{})
	case r.URL.Path == "/bills/4" && r.Method == http.MethodGet:
		envelope(w, map[string]any{"id": 4, "total_amount": "300", "paid_amount": "200", "pending_amount": "100", "payment_status": "pending"})
	case r.URL.Path == "/checkins" && r.Method == http.MethodPost:
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, fh, err := r.FormFile("shop_photo")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		b.mu.Lock()
		last := &b.calls[len(b.calls)-1]
		last.Body = data
		last.Header.Set("X-Filename", fh.Filename)
		last.Header.Set("X-Customer", r.FormValue("customer_id"))
		b.mu.Unlock()
		envelope(w, nil)
	case r.URL.Path == "/checkins" && r.Method == http.MethodGet:
		envelope(w, map[string]any{
			"checkins":     []map[string]any{{"id": 1, "customer_id": 3, "shop_photo": "a.jpg", "checkin_time": "2024-05-01 09:30:00"}},
			"pagination":   map[string]any{"page": 1, "limit": 20, "total": 1, "total_pages": 1},
			"current_user": "Meena",
		})
	default:
		envelope(w, nil)
	}
}

type stubDashboard struct {
	snapshot *models.Dashboard
}

func (s *stubDashboard) Latest() (*models.Dashboard, time.Time, error) {
	return s.snapshot, time.Time{}, nil
}

func (s *stubDashboard) RefreshOnce(ctx context.Context) error {
	s.snapshot = &models.Dashboard{}
	return nil
}

type harness struct {
	backend *backend
	router  *gin.Engine
	token   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	api := client.NewAPI(client.New(srv.URL, client.WithRateLimit(0)), client.NewMemoryCache(time.Minute), nil)
	sessions := session.NewManager(api, session.NewMemoryStore(), time.Hour)
	now := func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	h := New(api, sessions, &stubDashboard{}, WithClock(now), WithUploadsBase("https://cdn.example.com/uploads"))

	r := gin.New()
	r.Use(middlewares.CorrelationId(), middlewares.SessionMiddleware(sessions))
	h.Register(r)

	hs := &harness{backend: b, router: r}
	w := hs.do(http.MethodPost, "/api/login", `{"phone":"9876543210","password":"secret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Token   string `json:"token"`
			Profile struct {
				Nav []models.NavItem `json:"nav"`
			} `json:"profile"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Data.Token == "" {
		t.Fatalf("login response: %v %s", err, w.Body.String())
	}
	hs.token = resp.Data.Token
	return hs
}

func (hs *harness) request(req *http.Request) *httptest.ResponseRecorder {
	if hs.token != "" {
		req.Header.Set("Authorization", "Bearer "+hs.token)
	}
	w := httptest.NewRecorder()
	hs.router.ServeHTTP(w, req)
	return w
}

func (hs *harness) do(method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return hs.request(req)
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return resp.Message
}

func TestLogin_BackendCredentialIsUserId(t *testing.T) {
	hs := newHarness(t)
	w := hs.do(http.MethodGet, "/api/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"key":"bills"`) || strings.Contains(w.Body.String(), `"key":"reports"`) {
		t.Fatalf("unexpected nav %s", w.Body.String())
	}

	hs.do(http.MethodGet, "/api/bills", "")
	calls := hs.backend.find(http.MethodGet, "/bills")
	if len(calls) != 1 || calls[0].Header.Get(client.UserHeader) != "5" {
		t.Fatalf("expected bills fetched as user 5, got %+v", calls)
	}
}

func TestCreateBill_InvalidDraftNeverReachesBackend(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"no customer", `{"customer_id":0,"items":[{"product_id":1,"quantity":"1"}]}`, "please select a customer"},
		{"no product", `{"customer_id":3,"items":[{"product_id":0,"quantity":"1"}]}`, "every item needs a product and a quantity"},
		{"zero quantity", `{"customer_id":3,"items":[{"product_id":1,"quantity":"0"}]}`, "every item needs a product and a quantity"},
		{"no items", `{"customer_id":3,"items":[]}`, "add at least one item"},
	}
	for _, tt := range tests {
		hs := newHarness(t)
		w := hs.do(http.MethodPost, "/api/bills", tt.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d %s", tt.name, w.Code, w.Body.String())
		}
		if got := message(t, w); got != tt.msg {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.msg, got)
		}
		if len(hs.backend.calls) != 1 {
			t.Fatalf("%s: expected only the login call, got %d", tt.name, len(hs.backend.calls))
		}
	}
}

func TestCreateBill_ResolvesCatalogPrice(t *testing.T) {
	hs := newHarness(t)
	w := hs.do(http.MethodPost, "/api/bills", `{"customer_id":3,"items":[{"product_id":1,"quantity":"2"}],"paid_amount":"100"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}
	posts := hs.backend.find(http.MethodPost, "/bills")
	if len(posts) != 1 {
		t.Fatalf("expected one bill post, got %d", len(posts))
	}
	var body models.NewBill
	if err := json.Unmarshal(posts[0].Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.BillDate != "2024-05-01" || !body.Items[0].UnitPrice.Equal(decimal.NewFromInt(65)) {
		t.Fatalf("unexpected bill body %s", posts[0].Body)
	}
}

func TestPreviewBill(t *testing.T) {
	hs := newHarness(t)
	tests := []struct {
		body    string
		pending string
		tone    models.Tone
	}{
		{`{"customer_id":3,"items":[{"product_id":1,"quantity":"2"}],"paid_amount":"100"}`, "30.00", models.ToneWarning},
		{`{"customer_id":3,"items":[{"product_id":1,"quantity":"2"}],"paid_amount":"130"}`, "0.00", models.ToneSuccess},
		{`{"customer_id":3,"items":[{"product_id":1,"quantity":"2","unit_price":"70"}],"paid_amount":"150"}`, "10.00", models.ToneSuccess},
	}
	for _, tt := range tests {
		w := hs.do(http.MethodPost, "/api/bills/preview", tt.body)
		if w.Code != http.StatusOK {
			t.Fatalf("preview: %d %s", w.Code, w.Body.String())
		}
		var resp struct {
			Data models.BillPreview `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Data.Pending != tt.pending || resp.Data.Tone != tt.tone {
			t.Fatalf("%s: expected %s/%s, got %s/%s", tt.body, tt.pending, tt.tone, resp.Data.Pending, resp.Data.Tone)
		}
	}
	if hs.backend.mutations() != 0 {
		t.Fatalf("preview must not mutate the backend")
	}
}

func TestRecordPayment(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		puts   int
	}{
		{"above pending", `{"payment_amount":"150","payment_mode":"cash"}`, http.StatusBadRequest, 0},
		{"zero", `{"payment_amount":"0","payment_mode":"cash"}`, http.StatusBadRequest, 0},
		{"bad mode", `{"payment_amount":"50","payment_mode":"barter"}`, http.StatusBadRequest, 0},
		{"full pending", `{"payment_amount":"100","payment_mode":"upi","reference_number":"UPI-9"}`, http.StatusOK, 1},
	}
	for _, tt := range tests {
		hs := newHarness(t)
		w := hs.do(http.MethodPost, "/api/bills/4/payments", tt.body)
		if w.Code != tt.status {
			t.Fatalf("%s: expected %d, got %d %s", tt.name, tt.status, w.Code, w.Body.String())
		}
		if got := len(hs.backend.find(http.MethodPut, "/bills/4")); got != tt.puts {
			t.Fatalf("%s: expected %d PUT calls, got %d", tt.name, tt.puts, got)
		}
	}
}

func TestPaymentDraftDefaults(t *testing.T) {
	hs := newHarness(t)
	w := hs.do(http.MethodGet, "/api/bills/4/payment-draft", "")
	var resp struct {
		Data models.NewPayment `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Data.PaymentAmount.Equal(decimal.NewFromInt(100)) || resp.Data.PaymentDate != "2024-05-01" || resp.Data.PaymentMode != models.PaymentModeCash {
		t.Fatalf("unexpected draft %+v", resp.Data)
	}
}

func TestDeleteProduct_RequiresConfirmation(t *testing.T) {
	hs := newHarness(t)
	w := hs.do(http.MethodDelete, "/api/products/1", "")
	if w.Code != http.StatusPreconditionRequired || len(hs.backend.find(http.MethodDelete, "/products/1")) != 0 {
		t.Fatalf("expected unconfirmed delete to stop locally, got %d", w.Code)
	}
	w = hs.do(http.MethodDelete, "/api/products/1?confirm=true", "")
	if w.Code != http.StatusOK || len(hs.backend.find(http.MethodDelete, "/products/1")) != 1 {
		t.Fatalf("expected confirmed delete to be forwarded, got %d", w.Code)
	}
}

func TestPermissionGate(t *testing.T) {
	hs := newHarness(t)
	tests := []struct {
		path   string
		status int
	}{
		{"/api/reports/stock", http.StatusForbidden},
		{"/api/staff", http.StatusForbidden},
		{"/api/brands", http.StatusForbidden},
		{"/api/auditlogs", http.StatusForbidden},
		{"/api/dashboard", http.StatusOK},
	}
	for _, tt := range tests {
		w := hs.do(http.MethodGet, tt.path, "")
		if w.Code != tt.status {
			t.Fatalf("%s: expected %d, got %d", tt.path, tt.status, w.Code)
		}
		if tt.status == http.StatusForbidden && message(t, w) != "access denied" {
			t.Fatalf("%s: unexpected denial %s", tt.path, w.Body.String())
		}
	}

	hs.token = ""
	if w := hs.do(http.MethodGet, "/api/bills", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected anonymous request to be rejected, got %d", w.Code)
	}
}

func frameUpload(t *testing.T, customerId string) *http.Request {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 1920, 1080))
	for y := 0; y < 1080; y++ {
		for x := 0; x < 1920; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 180, B: 120, A: 255})
		}
	}
	var frame bytes.Buffer
	if err := png.Encode(&frame, img); err != nil {
		t.Fatalf("encode frame: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("customer_id", customerId)
	part, _ := mw.CreateFormFile("shop_photo", "frame.png")
	_, _ = part.Write(frame.Bytes())
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/checkins", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateCheckin_ComposesAndRefreshes(t *testing.T) {
	hs := newHarness(t)
	w := hs.request(frameUpload(t, "3"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}

	posts := hs.backend.find(http.MethodPost, "/checkins")
	if len(posts) != 1 {
		t.Fatalf("expected one check-in upload, got %d", len(posts))
	}
	if name := posts[0].Header.Get("X-Filename"); !strings.HasPrefix(name, "checkin-") || !strings.HasSuffix(name, ".jpg") {
		t.Fatalf("unexpected upload name %q", name)
	}
	if posts[0].Header.Get("X-Customer") != "3" {
		t.Fatalf("unexpected customer field %q", posts[0].Header.Get("X-Customer"))
	}
	photo, err := jpeg.Decode(bytes.NewReader(posts[0].Body))
	if err != nil {
		t.Fatalf("uploaded photo is not a jpeg: %v", err)
	}
	if b := photo.Bounds(); b.Dx() != 800 || b.Dy() != 450 {
		t.Fatalf("expected 800x450, got %dx%d", b.Dx(), b.Dy())
	}

	var resp struct {
		Data checkinView `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Checkins) != 1 || resp.Data.Checkins[0].PhotoURL != "https://cdn.example.com/uploads/a.jpg" {
		t.Fatalf("unexpected refreshed page %+v", resp.Data)
	}
	if resp.Data.Stats.Total != 1 || resp.Data.Stats.Today != 1 {
		t.Fatalf("unexpected stats %+v", resp.Data.Stats)
	}
}

func TestCreateCheckin_RequiresKnownCustomer(t *testing.T) {
	hs := newHarness(t)
	for _, customerId := range []string{"", "99"} {
		w := hs.request(frameUpload(t, customerId))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("customer %q: expected 400, got %d %s", customerId, w.Code, w.Body.String())
		}
	}
	if len(hs.backend.find(http.MethodPost, "/checkins")) != 0 {
		t.Fatalf("no check-in may be uploaded without a valid customer")
	}
}
