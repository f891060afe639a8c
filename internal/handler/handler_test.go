package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/cakemarket-backend/internal/middleware"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
	"github.com/shinyyama/cakemarket-backend/internal/service"
	"github.com/shopspring/decimal"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withUID(uid uint64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appmw.ContextUID, uid)
			return next(c)
		}
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

func do(e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error.Code
}

type stubOrderService struct {
	gotBuyer uint64
	gotReq   service.PlaceOrderRequest
	result   *service.PlaceOrderResult
	err      error

	gotSeller uint64
	gotStatus model.OrderStatus
	order     *model.Order
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, buyerID uint64, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error) {
	s.gotBuyer, s.gotReq = buyerID, req
	return s.result, s.err
}

func (s *stubOrderService) SetStatus(ctx context.Context, sellerID, orderID uint64, status model.OrderStatus) (*model.Order, error) {
	s.gotSeller, s.gotStatus = sellerID, status
	return s.order, s.err
}

func (s *stubOrderService) ListByBuyer(ctx context.Context, buyerID uint64) ([]model.Order, error) {
	return []model.Order{{ID: 2, BuyerID: buyerID}, {ID: 1, BuyerID: buyerID}}, s.err
}

func (s *stubOrderService) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Order, error) {
	return nil, s.err
}

func orderEcho(svc service.OrderService) *echo.Echo {
	e := newEcho()
	h := NewOrderHandler(svc, quietLogger())
	e.POST("/api/orders", h.Place, withUID(7))
	e.GET("/api/orders/mine", h.ListMine, withUID(7))
	e.PUT("/api/orders/:id/status", h.SetStatus, withUID(10))
	e.POST("/anon/orders", h.Place)
	return e
}

func TestPlaceOrderHandler(t *testing.T) {
	svc := &stubOrderService{result: &service.PlaceOrderResult{Orders: []model.Order{
		{ID: 1, SellerID: 10, Subtotal: decimal.NewFromInt(2000), Status: model.OrderStatusPending,
			Items: []model.OrderItem{{ListingID: 100, Name: "Choco", Price: decimal.NewFromInt(1000), Quantity: 2}}},
	}}}
	e := orderEcho(svc)

	rec := do(e, http.MethodPost, "/api/orders",
		`{"items":[{"itemId":100,"qty":2}],"deliveryDistrict":"Colombo","buyerPhone":"0771234567"}`,
		map[string]string{IdempotencyHeader: "abc"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if svc.gotBuyer != 7 || svc.gotReq.IdempotencyKey != "abc" || svc.gotReq.Items[0] != (service.CartItem{ItemID: 100, Qty: 2}) {
		t.Fatalf("service got buyer=%d req=%+v", svc.gotBuyer, svc.gotReq)
	}
	var resp PlaceOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Orders) != 1 || resp.Orders[0].Subtotal != 2000 || resp.Orders[0].Items[0].Qty != 2 {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestPlaceOrderHandlerErrors(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		result   *service.PlaceOrderResult
		wantCode int
		wantErr  string
	}{
		{"empty cart", `{"items":[]}`, service.ErrEmptyCart, nil, http.StatusBadRequest, "empty_cart"},
		{"no valid", `{"items":[{"itemId":1}]}`, service.ErrNoValidItems, nil, http.StatusBadRequest, "no_valid_items"},
		{"in progress", `{"items":[{"itemId":1}]}`, service.ErrRequestInProgress, nil, http.StatusConflict, "request_in_progress"},
		{"missing item id", `{"items":[{"qty":1}]}`, nil, nil, http.StatusBadRequest, "bad_request"},
		{"bad json", `{"items":`, nil, nil, http.StatusBadRequest, "bad_request"},
		{"partial failure", `{"items":[{"itemId":1},{"itemId":2}]}`, errors.New("seller 2: boom"),
			&service.PlaceOrderResult{Orders: []model.Order{{ID: 5}}}, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := orderEcho(&stubOrderService{err: tc.err, result: tc.result})
			rec := do(e, http.MethodPost, "/api/orders", tc.body, nil)
			if rec.Code != tc.wantCode || errorCode(t, rec) != tc.wantErr {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPlaceOrderHandlerRequiresUID(t *testing.T) {
	rec := do(orderEcho(&stubOrderService{}), http.MethodPost, "/anon/orders", `{"items":[{"itemId":1}]}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestSetStatusHandler(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		err      error
		wantCode int
	}{
		{"ok", "/api/orders/3/status", nil, http.StatusOK},
		{"invalid", "/api/orders/3/status", service.ErrInvalidStatus, http.StatusBadRequest},
		{"not found", "/api/orders/3/status", service.ErrNotFound, http.StatusNotFound},
		{"finalized", "/api/orders/3/status", service.ErrOrderFinalized, http.StatusConflict},
		{"bad id", "/api/orders/abc/status", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubOrderService{err: tc.err, order: &model.Order{ID: 3, Status: model.OrderStatusAccepted}}
			rec := do(orderEcho(svc), http.MethodPut, tc.path, `{"status":"accepted"}`, nil)
			if rec.Code != tc.wantCode {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
			if tc.name == "ok" && (svc.gotSeller != 10 || svc.gotStatus != model.OrderStatusAccepted) {
				t.Fatalf("service got seller=%d status=%s", svc.gotSeller, svc.gotStatus)
			}
		})
	}
}

func TestListMineHandler(t *testing.T) {
	rec := do(orderEcho(&stubOrderService{}), http.MethodGet, "/api/orders/mine", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var list []OrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 2 || list[0].BuyerID != 7 {
		t.Fatalf("list=%+v err=%v", list, err)
	}
}

type stubListingService struct {
	gotFilter repository.ListingFilter
	gotInput  service.ListingInput
	err       error
}

func (s *stubListingService) Create(ctx context.Context, sellerID uint64, in service.ListingInput) (*model.Listing, error) {
	s.gotInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &model.Listing{ID: 1, SellerID: sellerID, Name: in.Name, Price: in.Price, Category: in.Category, Available: true}, nil
}

func (s *stubListingService) Update(ctx context.Context, sellerID, id uint64, patch service.ListingPatch) (*model.Listing, error) {
	return nil, s.err
}

func (s *stubListingService) Delete(ctx context.Context, sellerID, id uint64) error {
	return s.err
}

func (s *stubListingService) ListMine(ctx context.Context, sellerID uint64) ([]model.Listing, error) {
	return nil, s.err
}

func (s *stubListingService) Get(ctx context.Context, id uint64) (*model.Listing, error) {
	return nil, s.err
}

func (s *stubListingService) Browse(ctx context.Context, f repository.ListingFilter) ([]model.Listing, error) {
	s.gotFilter = f
	return []model.Listing{{ID: 1, Price: decimal.RequireFromString("12.50")}}, s.err
}

func listingEcho(svc service.ListingService) *echo.Echo {
	e := newEcho()
	h := NewListingHandler(svc, quietLogger())
	e.POST("/api/cakes", h.Create, withUID(10))
	e.DELETE("/api/cakes/:id", h.Delete, withUID(10))
	e.GET("/api/cakes/browse", h.Browse)
	e.GET("/api/cakes/:id", h.Get)
	return e
}

func TestCreateListingHandler(t *testing.T) {
	svc := &stubListingService{}
	rec := do(listingEcho(svc), http.MethodPost, "/api/cakes", `{"name":"Choco","price":1500.5,"category":"Birthday"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !svc.gotInput.Price.Equal(decimal.RequireFromString("1500.5")) || svc.gotInput.Available != nil {
		t.Fatalf("input=%+v", svc.gotInput)
	}

	rec = do(listingEcho(svc), http.MethodPost, "/api/cakes", `{"name":"Choco","category":"Birthday"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing price status=%d", rec.Code)
	}

	bad := &stubListingService{err: fmt.Errorf("%w: unknown category", service.ErrInvalidListing)}
	rec = do(listingEcho(bad), http.MethodPost, "/api/cakes", `{"name":"Choco","price":1,"category":"Pies"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid listing status=%d", rec.Code)
	}
}

func TestListingHandlerNotFound(t *testing.T) {
	svc := &stubListingService{err: service.ErrNotFound}
	if rec := do(listingEcho(svc), http.MethodDelete, "/api/cakes/4", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("delete status=%d", rec.Code)
	}
	if rec := do(listingEcho(svc), http.MethodGet, "/api/cakes/4", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get status=%d", rec.Code)
	}
}

func TestBrowseHandler(t *testing.T) {
	svc := &stubListingService{}
	rec := do(listingEcho(svc), http.MethodGet, "/api/cakes/browse?category=Wedding&district=Colombo&sort=priceAsc&q=choco&minPrice=10&maxPrice=99.5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	f := svc.gotFilter
	if f.Category != model.CategoryWedding || f.District != "Colombo" || f.Sort != "priceAsc" || f.Query != "choco" {
		t.Fatalf("filter=%+v", f)
	}
	if f.MinPrice == nil || !f.MinPrice.Equal(decimal.NewFromInt(10)) || f.MaxPrice == nil || !f.MaxPrice.Equal(decimal.RequireFromString("99.5")) {
		t.Fatalf("price bounds=%v %v", f.MinPrice, f.MaxPrice)
	}
	var list []ListingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || list[0].Price != 12.5 {
		t.Fatalf("list=%+v err=%v", list, err)
	}

	if rec := do(listingEcho(svc), http.MethodGet, "/api/cakes/browse?minPrice=abc", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad minPrice status=%d", rec.Code)
	}
}
