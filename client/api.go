package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/sirupsen/logrus"
)

// Resource names double as cache scopes and invalidation topics.
const (
	ResourceBrands    = "brands"
	ResourceProducts  = "products"
	ResourceCustomers = "customers"
	ResourceBills     = "bills"
	ResourceStaff     = "users"
	ResourceCheckins  = "checkins"
)

// API groups every remote operation the console uses.
type API struct {
	client    *Client
	Brands    *Resource[models.Brand, models.NewBrand, models.NewBrand]
	Products  *Resource[models.Product, models.NewProduct, models.UpdateProduct]
	Customers *Resource[models.Customer, models.NewCustomer, models.UpdateCustomer]
	Bills     *BillService
	Staff     *StaffService
	Checkins  *CheckinService
	Reports   *ReportService

	remote map[string]func(ctx context.Context)
}

func NewAPI(c *Client, cache Cache, notifier Notifier) *API {
	brands := NewResource[models.Brand, models.NewBrand, models.NewBrand](c, ResourceBrands, cache, notifier).
		Affects(ResourceProducts)
	products := NewResource[models.Product, models.NewProduct, models.UpdateProduct](c, ResourceProducts, cache, notifier)
	customers := NewResource[models.Customer, models.NewCustomer, models.UpdateCustomer](c, ResourceCustomers, cache, notifier).
		Affects(ResourceBills)
	bills := NewResource[models.Bill, models.NewBill, models.NewPayment](c, ResourceBills, cache, notifier).
		Affects(ResourceCustomers, ResourceProducts)
	staff := NewResource[models.StaffMember, map[string]any, map[string]any](c, ResourceStaff, cache, notifier)

	a := &API{
		client:    c,
		Brands:    brands,
		Products:  products,
		Customers: customers,
		Bills:     &BillService{Resource: bills},
		Staff:     &StaffService{res: staff},
		Checkins:  &CheckinService{client: c, notifier: notifier},
		Reports:   &ReportService{client: c},
	}
	a.remote = map[string]func(ctx context.Context){
		ResourceBrands:    brands.ApplyRemoteInvalidation,
		ResourceProducts:  products.ApplyRemoteInvalidation,
		ResourceCustomers: customers.ApplyRemoteInvalidation,
		ResourceBills:     bills.ApplyRemoteInvalidation,
		ResourceStaff:     staff.ApplyRemoteInvalidation,
	}
	return a
}

// ApplyRemoteInvalidation handles a change announced by another instance.
func (a *API) ApplyRemoteInvalidation(ctx context.Context, resource string) bool {
	fn, ok := a.remote[resource]
	if ok {
		fn(ctx)
	}
	return ok
}

type LoginResult struct {
	User        models.User        `json:"user"`
	Permissions models.Permissions `json:"permissions"`
}

type loginBody struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login checks credentials. The backend issues no token; the user id is the
// credential for later calls.
func (a *API) Login(ctx context.Context, phone, password string) (*LoginResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, newValidationError("auth.login", models.NewValidationError("phone and password are required"))
	}
	b, err := json.Marshal(loginBody{Phone: phone, Password: password})
	if err != nil {
		return nil, err
	}
	var result LoginResult
	err = a.client.do(ctx, request{
		op:          "auth.login",
		method:      http.MethodPost,
		path:        "/auth",
		anonymous:   true,
		body:        bytes.NewReader(b),
		contentType: "application/json",
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.User.ID == 0 {
		return nil, &Error{Kind: KindDomain, Op: "auth.login", Message: "login response has no user"}
	}
	return &result, nil
}

func (a *API) Dashboard(ctx context.Context, token string) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	if err := a.client.getJSON(ctx, "dashboard.get", token, "/dashboard", nil, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// BillService adds draft submission and payments on top of the bills resource.
// PUT /bills/{id} records a payment; it never edits bill lines.
type BillService struct {
	*Resource[models.Bill, models.NewBill, models.NewPayment]
}

// CreateFromDraft validates the draft locally; an invalid draft never reaches the backend.
func (s *BillService) CreateFromDraft(ctx context.Context, token string, draft *models.BillDraft, catalog models.Catalog) (*models.Bill, error) {
	body, err := draft.Request(catalog)
	if err != nil {
		if ve, ok := err.(*models.ValidationError); ok {
			return nil, newValidationError("bills.create", ve)
		}
		return nil, err
	}
	return s.Create(ctx, token, *body)
}

// RecordPayment adds a payment to bill, capped at its pending amount.
func (s *BillService) RecordPayment(ctx context.Context, token string, bill models.Bill, input models.NewPayment) error {
	if err := input.ValidateAgainst(bill); err != nil {
		if ve, ok := err.(*models.ValidationError); ok {
			return newValidationError("bills.payment", ve)
		}
		return err
	}
	return s.Update(ctx, token, int(bill.ID), input)
}

// Detail fetches one bill with items and payments and logs any amounts that
// do not add up. The backend figures are returned unchanged.
func (s *BillService) Detail(ctx context.Context, token string, id int) (*models.Bill, error) {
	bill, err := s.Get(ctx, token, id)
	if err != nil {
		return nil, err
	}
	if issues := bill.Inconsistencies(); len(issues) > 0 {
		s.client.logger.WithFields(logrus.Fields{
			"module":  "BillService",
			"bill_id": id,
			"issues":  issues,
		}).Warn("bill amounts are inconsistent")
	}
	return bill, nil
}

// StaffService is the /users resource. Create and update bodies differ in how
// permission flags are sent; see models.UpdateStaff.RequestBody.
type StaffService struct {
	res *Resource[models.StaffMember, map[string]any, map[string]any]
}

func (s *StaffService) List(ctx context.Context, token string) ([]models.StaffMember, error) {
	return s.res.List(ctx, token, nil)
}

func (s *StaffService) Get(ctx context.Context, token string, id int) (*models.StaffMember, error) {
	return s.res.Get(ctx, token, id)
}

func (s *StaffService) Create(ctx context.Context, token string, input *models.NewStaff) error {
	if err := checkInput("users.create", input); err != nil {
		return err
	}
	_, err := s.res.Create(ctx, token, input.RequestBody())
	return err
}

func (s *StaffService) Update(ctx context.Context, token string, id int, input *models.UpdateStaff) error {
	if err := checkInput("users.update", input); err != nil {
		return err
	}
	return s.res.Update(ctx, token, id, input.RequestBody())
}

func (s *StaffService) Delete(ctx context.Context, token string, id int) error {
	return s.res.Delete(ctx, token, id)
}

// CheckinService lists check-ins page by page. Pages are not cached.
type CheckinService struct {
	client   *Client
	notifier Notifier
}

func (s *CheckinService) List(ctx context.Context, token string, query url.Values) (*models.CheckinPage, error) {
	var page models.CheckinPage
	if err := s.client.getJSON(ctx, "checkins.list", token, "/checkins", query, &page); err != nil {
		return nil, err
	}
	if page.Checkins == nil {
		page.Checkins = []models.CheckinRecord{}
	}
	return &page, nil
}

// Create uploads the shop photo and returns the refreshed first page. A failed
// refresh is logged and yields a nil page; the check-in itself was stored.
func (s *CheckinService) Create(ctx context.Context, token string, customerId int, photo Upload) (*models.CheckinPage, error) {
	if customerId <= 0 {
		return nil, newValidationError("checkins.create", models.NewValidationError("please select a customer"))
	}
	if len(photo.Data) == 0 {
		return nil, newValidationError("checkins.create", models.NewValidationError("please capture a shop photo"))
	}
	fields := map[string]string{"customer_id": strconv.Itoa(customerId)}
	files := map[string]Upload{"shop_photo": photo}
	if err := s.client.sendMultipart(ctx, "checkins.create", token, "/checkins", fields, files, nil); err != nil {
		return nil, err
	}
	s.publish(ctx)
	return s.refresh(ctx, token), nil
}

func (s *CheckinService) Delete(ctx context.Context, token string, id int) (*models.CheckinPage, error) {
	path := "/checkins/" + strconv.Itoa(id)
	if err := s.client.sendJSON(ctx, "checkins.delete", http.MethodDelete, token, path, nil, nil); err != nil {
		return nil, err
	}
	s.publish(ctx)
	return s.refresh(ctx, token), nil
}

func (s *CheckinService) refresh(ctx context.Context, token string) *models.CheckinPage {
	page, err := s.List(ctx, token, nil)
	if err != nil {
		config.LogError(s.client.logger, "CheckinService", "refresh", "checkins", nil, err)
		return nil
	}
	return page
}

func (s *CheckinService) publish(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, ResourceCheckins); err != nil {
		config.LogError(s.client.logger, "CheckinService", "publish", ResourceCheckins, nil, err)
	}
}

// ReportService reads GET /reports?type=<type>.
type ReportService struct {
	client *Client
}

func (s *ReportService) fetch(ctx context.Context, token string, reportType models.ReportType, out any) error {
	if !reportType.IsValid() {
		return newValidationError("reports.get", models.NewValidationError("unknown report type "+string(reportType)))
	}
	query := url.Values{"type": {string(reportType)}}
	return s.client.getJSON(ctx, "reports."+string(reportType), token, "/reports", query, out)
}

func (s *ReportService) Stock(ctx context.Context, token string) ([]models.StockItem, error) {
	var items []models.StockItem
	err := s.fetch(ctx, token, models.ReportTypeStock, &items)
	return items, err
}

func (s *ReportService) CustomerBalances(ctx context.Context, token string) ([]models.CustomerBalance, error) {
	var items []models.CustomerBalance
	err := s.fetch(ctx, token, models.ReportTypeCustomerBalance, &items)
	return items, err
}

func (s *ReportService) Sales(ctx context.Context, token string) (*models.SalesReport, error) {
	var report models.SalesReport
	if err := s.fetch(ctx, token, models.ReportTypeSales, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) Payments(ctx context.Context, token string) (*models.PaymentsReport, error) {
	var report models.PaymentsReport
	if err := s.fetch(ctx, token, models.ReportTypePayments, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
