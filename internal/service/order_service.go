package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shinyyama/cakemarket-backend/internal/metrics"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/notify"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNoValidItems      = errors.New("no valid cakes found")
	ErrInvalidQuantity   = errors.New("quantity must not be negative")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrOrderFinalized    = errors.New("order already finalized")
	ErrRequestInProgress = errors.New("request with this idempotency key is in progress")
)

type CartItem struct {
	ItemID uint64
	Qty    int
}

type PlaceOrderRequest struct {
	Items            []CartItem
	DeliveryDistrict string
	Note             string
	BuyerPhone       string
	IdempotencyKey   string
}

type PlaceOrderResult struct {
	Orders   []model.Order
	Replayed bool
}

type OrderService interface {
	// PlaceOrder splits a cart into one pending order per seller. When some seller
	// groups fail, the orders that were created are returned together with the error.
	PlaceOrder(ctx context.Context, buyerID uint64, req PlaceOrderRequest) (*PlaceOrderResult, error)
	SetStatus(ctx context.Context, sellerID, orderID uint64, status model.OrderStatus) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerID uint64) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerID uint64) ([]model.Order, error)
}

type orderService struct {
	orders   repository.OrderRepository
	listings repository.ListingRepository
	accounts repository.AccountRepository
	idem     repository.IdempotencyRepository
	notifier notify.Dispatcher
	metrics  *metrics.Metrics
	log      *slog.Logger
}

type OrderDeps struct {
	Orders      repository.OrderRepository
	Listings    repository.ListingRepository
	Accounts    repository.AccountRepository
	Idempotency repository.IdempotencyRepository
	Notifier    notify.Dispatcher
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

func NewOrderService(d OrderDeps) OrderService {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &orderService{
		orders:   d.Orders,
		listings: d.Listings,
		accounts: d.Accounts,
		idem:     d.Idempotency,
		notifier: d.Notifier,
		metrics:  d.Metrics,
		log:      log.With("component", "orders"),
	}
}

type sellerGroup struct {
	sellerID uint64
	listings []model.Listing
}

func (s *orderService) PlaceOrder(ctx context.Context, buyerID uint64, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		s.metrics.ObserveCheckout("rejected")
		return nil, ErrEmptyCart
	}
	ids := make([]uint64, 0, len(req.Items))
	qty := make(map[uint64]int, len(req.Items))
	for _, it := range req.Items {
		if it.Qty < 0 {
			s.metrics.ObserveCheckout("rejected")
			return nil, ErrInvalidQuantity
		}
		q := it.Qty
		if q == 0 {
			q = 1
		}
		if _, seen := qty[it.ItemID]; !seen {
			ids = append(ids, it.ItemID)
		}
		qty[it.ItemID] = q
	}

	var claim *model.IdempotencyRecord
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" && s.idem != nil {
		rec, owned, err := s.idem.Claim(ctx, buyerID, key)
		if err != nil {
			return nil, fmt.Errorf("claim idempotency key: %w", err)
		}
		if !owned {
			if rec.Status == model.IdempotencyDone {
				return s.replay(ctx, rec)
			}
			s.metrics.ObserveCheckout("conflict")
			return nil, ErrRequestInProgress
		}
		claim = rec
	}

	created, err := s.placeGroups(ctx, buyerID, req, ids, qty)
	if claim != nil {
		s.settle(ctx, claim, created)
	}

	switch {
	case err == nil:
		s.metrics.ObserveCheckout("ok")
	case len(created) > 0:
		s.metrics.ObserveCheckout("partial")
	case errors.Is(err, ErrNoValidItems):
		s.metrics.ObserveCheckout("rejected")
	default:
		s.metrics.ObserveCheckout("error")
	}
	if len(created) == 0 {
		return nil, err
	}
	return &PlaceOrderResult{Orders: created}, err
}

func (s *orderService) placeGroups(ctx context.Context, buyerID uint64, req PlaceOrderRequest, ids []uint64, qty map[uint64]int) ([]model.Order, error) {
	listings, err := s.listings.FindAvailableByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve listings: %w", err)
	}
	if len(listings) == 0 {
		return nil, ErrNoValidItems
	}

	buyerPhone := strings.TrimSpace(req.BuyerPhone)
	if buyerPhone == "" {
		buyer, err := s.accounts.FindByID(ctx, buyerID)
		switch {
		case err == nil:
			buyerPhone = strings.TrimSpace(buyer.ContactPhone)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("load buyer: %w", err)
		}
	}

	var (
		created []model.Order
		errs    []error
	)
	for _, g := range groupBySeller(listings) {
		o, err := s.placeGroup(ctx, buyerID, buyerPhone, req, g, qty)
		if err != nil {
			s.metrics.ObserveGroup("failed")
			s.log.ErrorContext(ctx, "seller group failed", "buyer_id", buyerID, "seller_id", g.sellerID, "err", err)
			errs = append(errs, fmt.Errorf("seller %d: %w", g.sellerID, err))
			continue
		}
		s.metrics.ObserveGroup("ok")
		created = append(created, *o)
		s.dispatch(ctx, o.SellerPhone, notify.OrderPlaced(o))
	}
	if len(errs) > 0 && len(created) > 0 {
		ids := make([]uint64, 0, len(created))
		for _, o := range created {
			ids = append(ids, o.ID)
		}
		s.log.WarnContext(ctx, "checkout partially failed", "buyer_id", buyerID, "created_order_ids", ids, "failed_groups", len(errs))
	}
	return created, errors.Join(errs...)
}

func (s *orderService) placeGroup(ctx context.Context, buyerID uint64, buyerPhone string, req PlaceOrderRequest, g sellerGroup, qty map[uint64]int) (*model.Order, error) {
	sellerPhone := ""
	seller, err := s.accounts.FindByID(ctx, g.sellerID)
	switch {
	case err == nil:
		sellerPhone = strings.TrimSpace(seller.ContactPhone)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("load seller: %w", err)
	}

	items := make([]model.OrderItem, 0, len(g.listings))
	for _, l := range g.listings {
		items = append(items, model.OrderItem{
			ListingID: l.ID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  qty[l.ID],
			ImageURL:  l.ImageURL,
		})
	}
	o := &model.Order{
		BuyerID:          buyerID,
		SellerID:         g.sellerID,
		Items:            items,
		Subtotal:         model.Subtotal(items),
		DeliveryDistrict: strings.TrimSpace(req.DeliveryDistrict),
		Note:             strings.TrimSpace(req.Note),
		BuyerPhone:       buyerPhone,
		SellerPhone:      sellerPhone,
		Status:           model.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// groupBySeller partitions listings by owner, ordered by seller id and then listing id.
func groupBySeller(listings []model.Listing) []sellerGroup {
	bySeller := make(map[uint64][]model.Listing)
	for _, l := range listings {
		bySeller[l.SellerID] = append(bySeller[l.SellerID], l)
	}
	groups := make([]sellerGroup, 0, len(bySeller))
	for sellerID, ls := range bySeller {
		slices.SortFunc(ls, func(a, b model.Listing) int { return cmp.Compare(a.ID, b.ID) })
		groups = append(groups, sellerGroup{sellerID: sellerID, listings: ls})
	}
	slices.SortFunc(groups, func(a, b sellerGroup) int { return cmp.Compare(a.sellerID, b.sellerID) })
	return groups
}

func (s *orderService) replay(ctx context.Context, rec *model.IdempotencyRecord) (*PlaceOrderResult, error) {
	orders, err := s.orders.FindByIDs(ctx, rec.OrderIDs)
	if err != nil {
		return nil, fmt.Errorf("load replayed orders: %w", err)
	}
	s.metrics.ObserveCheckout("replayed")
	return &PlaceOrderResult{Orders: orders, Replayed: true}, nil
}

func (s *orderService) settle(ctx context.Context, rec *model.IdempotencyRecord, created []model.Order) {
	if len(created) == 0 {
		if err := s.idem.Fail(ctx, rec.ID); err != nil {
			s.log.ErrorContext(ctx, "release idempotency key failed", "key", rec.Key, "err", err)
		}
		return
	}
	ids := make([]uint64, 0, len(created))
	for _, o := range created {
		ids = append(ids, o.ID)
	}
	if err := s.idem.Complete(ctx, rec.ID, ids); err != nil {
		s.log.ErrorContext(ctx, "complete idempotency key failed", "key", rec.Key, "order_ids", ids, "err", err)
	}
}

func (s *orderService) SetStatus(ctx context.Context, sellerID, orderID uint64, status model.OrderStatus) (*model.Order, error) {
	if !status.Decision() {
		return nil, ErrInvalidStatus
	}
	o, err := s.orders.FindForSeller(ctx, orderID, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.Status != model.OrderStatusPending {
		return nil, ErrOrderFinalized
	}
	n, err := s.orders.TransitionFromPending(ctx, orderID, sellerID, status)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrOrderFinalized
	}
	o.Status = status

	phone := strings.TrimSpace(o.BuyerPhone)
	if phone == "" {
		buyer, err := s.accounts.FindByID(ctx, o.BuyerID)
		if err == nil {
			phone = strings.TrimSpace(buyer.ContactPhone)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.WarnContext(ctx, "load buyer for notification failed", "order_id", o.ID, "buyer_id", o.BuyerID, "err", err)
		}
	}
	s.dispatch(ctx, phone, notify.OrderDecided(o, phone))
	return o, nil
}

func (s *orderService) dispatch(ctx context.Context, phone string, msg notify.Message) {
	if s.notifier == nil || strings.TrimSpace(phone) == "" {
		return
	}
	s.notifier.Dispatch(ctx, msg)
}

func (s *orderService) ListByBuyer(ctx context.Context, buyerID uint64) ([]model.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

func (s *orderService) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Order, error) {
	return s.orders.ListBySeller(ctx, sellerID)
}
