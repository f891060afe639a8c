package service

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/shinyyama/cakemarket-backend/internal/auth"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/notify"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
	"gorm.io/gorm"
)

type fakeListingRepo struct {
	rows   map[uint64]model.Listing
	nextID uint64
	err    error
}

func newFakeListingRepo(ls ...model.Listing) *fakeListingRepo {
	r := &fakeListingRepo{rows: map[uint64]model.Listing{}}
	for _, l := range ls {
		r.rows[l.ID] = l
		r.nextID = max(r.nextID, l.ID)
	}
	return r
}

func (r *fakeListingRepo) Create(ctx context.Context, l *model.Listing) error {
	r.nextID++
	l.ID = r.nextID
	r.rows[l.ID] = *l
	return nil
}

func (r *fakeListingRepo) FindByID(ctx context.Context, id uint64) (*model.Listing, error) {
	l, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *fakeListingRepo) FindOwned(ctx context.Context, id, sellerID uint64) (*model.Listing, error) {
	l, ok := r.rows[id]
	if !ok || l.SellerID != sellerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *fakeListingRepo) Update(ctx context.Context, l *model.Listing) error {
	r.rows[l.ID] = *l
	return nil
}

func (r *fakeListingRepo) Delete(ctx context.Context, id, sellerID uint64) (int64, error) {
	l, ok := r.rows[id]
	if !ok || l.SellerID != sellerID {
		return 0, nil
	}
	delete(r.rows, id)
	return 1, nil
}

func (r *fakeListingRepo) FindAvailableByIDs(ctx context.Context, ids []uint64) ([]model.Listing, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []model.Listing
	for _, id := range ids {
		if l, ok := r.rows[id]; ok && l.Available {
			out = append(out, l)
		}
	}
	// Deliberately reversed so callers cannot rely on store ordering.
	slices.SortFunc(out, func(a, b model.Listing) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (r *fakeListingRepo) FindByOwner(ctx context.Context, sellerID uint64) ([]model.Listing, error) {
	var out []model.Listing
	for _, l := range r.rows {
		if l.SellerID == sellerID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b model.Listing) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (r *fakeListingRepo) Browse(ctx context.Context, f repository.ListingFilter) ([]model.Listing, error) {
	var out []model.Listing
	for _, l := range r.rows {
		if l.Available && (f.Category == "" || l.Category == f.Category) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeAccountRepo struct {
	rows    map[uint64]model.Account
	nextID  uint64
	findErr map[uint64]error
}

func newFakeAccountRepo(as ...model.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{rows: map[uint64]model.Account{}, findErr: map[uint64]error{}}
	for _, a := range as {
		r.rows[a.ID] = a
		r.nextID = max(r.nextID, a.ID)
	}
	return r
}

func (r *fakeAccountRepo) Create(ctx context.Context, a *model.Account) error {
	r.nextID++
	a.ID = r.nextID
	r.rows[a.ID] = *a
	return nil
}

func (r *fakeAccountRepo) FindByID(ctx context.Context, id uint64) (*model.Account, error) {
	if err := r.findErr[id]; err != nil {
		return nil, err
	}
	a, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *fakeAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	for _, a := range r.rows {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) FindByVerificationToken(ctx context.Context, token string) (*model.Account, error) {
	for _, a := range r.rows {
		if a.VerificationToken != nil && *a.VerificationToken == token {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) Update(ctx context.Context, a *model.Account) error {
	r.rows[a.ID] = *a
	return nil
}

func (r *fakeAccountRepo) ListPendingSellers(ctx context.Context) ([]model.Account, error) {
	var out []model.Account
	for _, a := range r.rows {
		if a.Role == model.RoleSeller && !a.Approved {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Delete(ctx context.Context, id uint64) error {
	delete(r.rows, id)
	return nil
}

type fakeOrderRepo struct {
	rows    map[uint64]model.Order
	nextID  uint64
	failFor map[uint64]error // keyed by seller id
	creates int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{rows: map[uint64]model.Order{}, failFor: map[uint64]error{}}
}

func cloneOrder(o model.Order) model.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *model.Order) error {
	if err := r.failFor[o.SellerID]; err != nil {
		return err
	}
	r.creates++
	r.nextID++
	o.ID = r.nextID
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		o.Items[i].ID = uint64(i + 1)
	}
	r.rows[o.ID] = cloneOrder(*o)
	return nil
}

func (r *fakeOrderRepo) FindByIDs(ctx context.Context, ids []uint64) ([]model.Order, error) {
	var out []model.Order
	for _, id := range ids {
		if o, ok := r.rows[id]; ok {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) FindForSeller(ctx context.Context, id, sellerID uint64) (*model.Order, error) {
	o, ok := r.rows[id]
	if !ok || o.SellerID != sellerID {
		return nil, gorm.ErrRecordNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *fakeOrderRepo) TransitionFromPending(ctx context.Context, id, sellerID uint64, status model.OrderStatus) (int64, error) {
	o, ok := r.rows[id]
	if !ok || o.SellerID != sellerID || o.Status != model.OrderStatusPending {
		return 0, nil
	}
	o.Status = status
	r.rows[id] = o
	return 1, nil
}

func (r *fakeOrderRepo) ListByBuyer(ctx context.Context, buyerID uint64) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.rows {
		if o.BuyerID == buyerID {
			out = append(out, cloneOrder(o))
		}
	}
	slices.SortFunc(out, func(a, b model.Order) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (r *fakeOrderRepo) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.rows {
		if o.SellerID == sellerID {
			out = append(out, cloneOrder(o))
		}
	}
	slices.SortFunc(out, func(a, b model.Order) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

type fakeIdemRepo struct {
	rows   map[string]*model.IdempotencyRecord
	nextID uint64
}

func newFakeIdemRepo() *fakeIdemRepo {
	return &fakeIdemRepo{rows: map[string]*model.IdempotencyRecord{}}
}

func (r *fakeIdemRepo) Claim(ctx context.Context, buyerID uint64, key string) (*model.IdempotencyRecord, bool, error) {
	k := key
	if rec, ok := r.rows[k]; ok && rec.BuyerID == buyerID {
		if rec.Status == model.IdempotencyFailed {
			rec.Status = model.IdempotencyInProgress
			cp := *rec
			return &cp, true, nil
		}
		cp := *rec
		return &cp, false, nil
	}
	r.nextID++
	rec := &model.IdempotencyRecord{ID: r.nextID, BuyerID: buyerID, Key: key, Status: model.IdempotencyInProgress}
	r.rows[k] = rec
	cp := *rec
	return &cp, true, nil
}

func (r *fakeIdemRepo) byID(id uint64) *model.IdempotencyRecord {
	for _, rec := range r.rows {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (r *fakeIdemRepo) Complete(ctx context.Context, id uint64, orderIDs []uint64) error {
	rec := r.byID(id)
	rec.Status = model.IdempotencyDone
	rec.OrderIDs = slices.Clone(orderIDs)
	return nil
}

func (r *fakeIdemRepo) Fail(ctx context.Context, id uint64) error {
	r.byID(id).Status = model.IdempotencyFailed
	return nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, msg notify.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
}

type fakeMailer struct {
	sent map[string]string
	err  error
}

func (m *fakeMailer) SendVerification(ctx context.Context, email, token string) error {
	if m.err != nil {
		return m.err
	}
	if m.sent == nil {
		m.sent = map[string]string{}
	}
	m.sent[email] = token
	return nil
}

type fakeVerifier struct {
	identity *auth.Identity
	err      error
}

func (v *fakeVerifier) Verify(ctx context.Context, idToken string) (*auth.Identity, error) {
	return v.identity, v.err
}
