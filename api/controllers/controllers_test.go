package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bazaar-backend/api/middleware"
	"github.com/angelmondragon/bazaar-backend/internal/auth"
	"github.com/angelmondragon/bazaar-backend/internal/orders"
	"github.com/angelmondragon/bazaar-backend/internal/principals"
	"github.com/angelmondragon/bazaar-backend/internal/products"
	pkgAuth "github.com/angelmondragon/bazaar-backend/pkg/auth"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
)

type stubAuth struct {
	auth.Service
	role  enums.Role
	calls int
}

func (s *stubAuth) Register(ctx context.Context, role enums.Role, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	s.role = role
	s.calls++
	return &auth.RegisterResponse{
		Principal: &principals.PrincipalDTO{Email: req.Email},
		Message:   "check your email",
	}, nil
}

func (s *stubAuth) Login(ctx context.Context, role enums.Role, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.role = role
	s.calls++
	return &auth.LoginResponse{AccessToken: "token", Email: req.Email, Role: role}, nil
}

type stubOrders struct {
	orders.Service
	actor  pkgAuth.Actor
	input  orders.CreateOrderInput
	status enums.OrderStatus
}

func (s *stubOrders) CreateOrder(ctx context.Context, actor pkgAuth.Actor, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	s.actor, s.input = actor, input
	return &orders.OrderDTO{ID: 1, ProductID: input.ProductID, Quantity: input.Quantity}, nil
}

func (s *stubOrders) ListOrders(ctx context.Context, actor pkgAuth.Actor, status enums.OrderStatus, params pagination.Params) (pagination.Page[orders.OrderDTO], error) {
	s.actor, s.status = actor, status
	return pagination.NewPage([]orders.OrderDTO{}, params, 0), nil
}

type stubProducts struct {
	products.Service
	list   products.ListInput
	create products.CreateProductInput
	images []products.ImageUpload
}

func (s *stubProducts) ListProducts(ctx context.Context, input products.ListInput) (pagination.Page[products.ProductDTO], error) {
	s.list = input
	return pagination.NewPage([]products.ProductDTO{}, input.Pagination, 0), nil
}

func (s *stubProducts) CreateProduct(ctx context.Context, actor pkgAuth.Actor, input products.CreateProductInput, images []products.ImageUpload) (*products.ProductDTO, error) {
	s.create, s.images = input, images
	return &products.ProductDTO{ID: 5, Name: input.Name}, nil
}

type errorBody struct {
	StatusCode int `json:"status_code"`
	Error      struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return body
}

func withActor(req *http.Request, role enums.Role, id uint) *http.Request {
	ctx := middleware.WithActor(req.Context(), pkgAuth.Actor{PrincipalID: id, Role: role})
	return req.WithContext(ctx)
}

func authRouter(svc auth.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/{role}/register", AuthRegister(svc, nil))
	r.Post("/auth/{role}/login", AuthLogin(svc, nil))
	return r
}

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestAuthRegisterUsesRoleFromPath(t *testing.T) {
	svc := &stubAuth{}
	resp := postJSON(authRouter(svc), "/auth/saller/register",
		`{"full_name":"Ada","email":"ada@example.com","password":"secret1"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.role != enums.RoleSaller {
		t.Fatalf("expected saller role got %s", svc.role)
	}
}

func TestAuthRegisterRejectsAdminRole(t *testing.T) {
	svc := &stubAuth{}
	resp := postJSON(authRouter(svc), "/auth/admin/register",
		`{"full_name":"Ada","email":"ada@example.com","password":"secret1"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestAuthRegisterMalformedBodyIsBadRequest(t *testing.T) {
	resp := postJSON(authRouter(&stubAuth{}), "/auth/user/register", `{"email":`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthRegisterFailedRulesAreUnprocessable(t *testing.T) {
	resp := postJSON(authRouter(&stubAuth{}), "/auth/user/register", `{"full_name":"Ada","email":"nope","password":"1"}`)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if _, ok := body.Error.Details["email"]; !ok {
		t.Fatalf("expected email detail, got %v", body.Error.Details)
	}
	if _, ok := body.Error.Details["password"]; !ok {
		t.Fatalf("expected password detail, got %v", body.Error.Details)
	}
}

func TestAuthLoginAcceptsAdminRole(t *testing.T) {
	svc := &stubAuth{}
	resp := postJSON(authRouter(svc), "/auth/admin/login", `{"email":"root@example.com","password":"x"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.role != enums.RoleAdmin {
		t.Fatalf("expected admin role got %s", svc.role)
	}
}

func TestOrderCreateRequiresActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"product_id":1,"quantity":1}`))
	resp := httptest.NewRecorder()
	OrderCreate(&stubOrders{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrderCreatePassesActorAndBody(t *testing.T) {
	svc := &stubOrders{}
	req := withActor(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"product_id":3,"quantity":2}`)), enums.RoleUser, 7)
	resp := httptest.NewRecorder()
	OrderCreate(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.actor.PrincipalID != 7 || svc.input.ProductID != 3 || svc.input.Quantity != 2 {
		t.Fatalf("unexpected call actor=%+v input=%+v", svc.actor, svc.input)
	}
}

func TestOrderCreateRejectsZeroQuantity(t *testing.T) {
	req := withActor(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"product_id":3,"quantity":0}`)), enums.RoleUser, 7)
	resp := httptest.NewRecorder()
	OrderCreate(&stubOrders{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestOrderUpdateStatusRejectsUnknownStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Patch("/orders/{id}/status", OrderUpdateStatus(&stubOrders{}, nil))
	req := withActor(httptest.NewRequest(http.MethodPatch, "/orders/4/status", strings.NewReader(`{"status":"shipped"}`)), enums.RoleAdmin, 1)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestOrderListNormalizesStatusFilter(t *testing.T) {
	svc := &stubOrders{}
	req := withActor(httptest.NewRequest(http.MethodGet, "/orders?status=COMPLETED", nil), enums.RoleSaller, 2)
	resp := httptest.NewRecorder()
	OrderList(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed got %q", svc.status)
	}
}

func TestProductListParsesFilters(t *testing.T) {
	svc := &stubProducts{}
	req := httptest.NewRequest(http.MethodGet,
		"/products?search=rose&min_price=10.5&category_id=2&delivery_service=YES&sort_by=createdat&sort_order=DESC&min_age=3&page=2&limit=5", nil)
	resp := httptest.NewRecorder()
	ProductList(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	f := svc.list.Filters
	if f.Search != "rose" || f.SortBy != "createdAt" || f.SortOrder != "desc" {
		t.Fatalf("unexpected text filters %+v", f)
	}
	if f.MinPrice == nil || f.MinPrice.String() != "10.5" {
		t.Fatalf("unexpected min price %v", f.MinPrice)
	}
	if f.CategoryID == nil || *f.CategoryID != 2 {
		t.Fatalf("unexpected category %v", f.CategoryID)
	}
	if f.DeliveryService == nil || *f.DeliveryService != enums.DeliveryServiceYes {
		t.Fatalf("unexpected delivery filter %v", f.DeliveryService)
	}
	if f.MinAge == nil || *f.MinAge != 3 || f.MaxAge != nil {
		t.Fatalf("unexpected age filters %v %v", f.MinAge, f.MaxAge)
	}
	if svc.list.Pagination.Page != 2 || svc.list.Pagination.Limit != 5 {
		t.Fatalf("unexpected pagination %+v", svc.list.Pagination)
	}
}

func TestProductListRejectsBadPrice(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products?max_price=cheap", nil)
	resp := httptest.NewRecorder()
	ProductList(&stubProducts{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartProduct(t *testing.T, fields map[string]string, withImage bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if withImage {
		part, err := mw.CreateFormFile(imagesField, "rose.png")
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		part.Write(pngHeader)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return withActor(req, enums.RoleSaller, 4)
}

func TestProductCreateCollectsFieldErrors(t *testing.T) {
	req := multipartProduct(t, map[string]string{"name": "Rose", "price": "abc", "region": "north"}, false)
	resp := httptest.NewRecorder()
	ProductCreate(&stubProducts{}, 1<<20, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if body.Error.Details["price"] == "" || body.Error.Details["stock"] == "" {
		t.Fatalf("expected price and stock details, got %v", body.Error.Details)
	}
}

func TestProductCreateForwardsImages(t *testing.T) {
	svc := &stubProducts{}
	req := multipartProduct(t, map[string]string{
		"name":             "Rose",
		"price":            "12.50",
		"stock":            "4",
		"region":           "north",
		"delivery_service": "yes",
	}, true)
	resp := httptest.NewRecorder()
	ProductCreate(svc, 1<<20, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.images) != 1 || svc.images[0].Name != "rose.png" {
		t.Fatalf("unexpected images %+v", svc.images)
	}
	if svc.create.Stock != 4 || svc.create.Price.String() != "12.5" || svc.create.DeliveryService != enums.DeliveryServiceYes {
		t.Fatalf("unexpected input %+v", svc.create)
	}
}
