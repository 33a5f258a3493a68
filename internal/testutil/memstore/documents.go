package memstore

import (
	"context"
	"sort"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/domain"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/documents/invoice"
	pr "stockledger/internal/domain/documents/purchase_request"
	sr "stockledger/internal/domain/documents/scheduling_request"
)

func page[T any](items []T, f domain.ListFilter) []T {
	if f.Offset >= len(items) {
		return []T{}
	}
	items = items[f.Offset:]
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return items
}

// ProductRepo implements product.Repository.
type ProductRepo struct{ s *Store }

var _ product.Repository = (*ProductRepo)(nil)

// Products returns the product catalog view.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

func (r *ProductRepo) Create(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.products {
		if existing.OwnerID == p.OwnerID && existing.Code == p.Code {
			return apperror.NewDuplicate("product", "products_user_id_code_key")
		}
	}
	r.s.st.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, ownerID string, productID id.ID) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.products[productID]
	if !ok || p.OwnerID != ownerID {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

func (r *ProductRepo) List(_ context.Context, ownerID string, f domain.ListFilter) ([]*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*product.Product, 0)
	for _, p := range r.s.st.products {
		if p.OwnerID == ownerID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, f), nil
}

// ProfileRepo implements auth.ProfileRepository.
type ProfileRepo struct{ s *Store }

var _ auth.ProfileRepository = (*ProfileRepo)(nil)

// Profiles returns the profile view.
func (s *Store) Profiles() *ProfileRepo { return &ProfileRepo{s: s} }

func (r *ProfileRepo) GetByID(_ context.Context, userID string) (*auth.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.profiles[userID]
	if !ok {
		return nil, apperror.NewNotFound("profile", userID)
	}
	return &p, nil
}

// PurchaseRepo implements purchase_request.Repository.
type PurchaseRepo struct{ s *Store }

var _ pr.Repository = (*PurchaseRepo)(nil)

// Purchases returns the purchase request view.
func (s *Store) Purchases() *PurchaseRepo { return &PurchaseRepo{s: s} }

func (r *PurchaseRepo) Create(_ context.Context, req *pr.PurchaseRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.purchases {
		if existing.OwnerID == req.OwnerID && existing.Code == req.Code {
			return apperror.NewDuplicate("purchase_request", "purchase_requests_user_id_code_key")
		}
	}
	r.s.st.purchases[req.ID] = *req
	return nil
}

func (r *PurchaseRepo) GetByID(_ context.Context, ownerID string, reqID id.ID) (*pr.PurchaseRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.st.purchases[reqID]
	if !ok || req.OwnerID != ownerID {
		return nil, apperror.NewNotFound("purchase_request", reqID)
	}
	return &req, nil
}

func (r *PurchaseRepo) GetForUpdate(ctx context.Context, ownerID string, reqID id.ID) (*pr.PurchaseRequest, error) {
	return r.GetByID(ctx, ownerID, reqID)
}

func (r *PurchaseRepo) Update(_ context.Context, req *pr.PurchaseRequest, from pr.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpPurchaseUpdate); err != nil {
		return err
	}
	stored, ok := r.s.st.purchases[req.ID]
	if !ok || stored.OwnerID != req.OwnerID {
		return apperror.NewNotFound("purchase_request", req.ID)
	}
	if stored.Status != from {
		return apperror.NewConcurrentModification("purchase_request", req.ID)
	}
	r.s.st.purchases[req.ID] = *req
	return nil
}

func (r *PurchaseRepo) List(_ context.Context, ownerID string, f pr.ListFilter) ([]*pr.PurchaseRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*pr.PurchaseRequest, 0)
	for _, req := range r.s.st.purchases {
		if req.OwnerID != ownerID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.ProductID != nil && req.ProductID != *f.ProductID {
			continue
		}
		req := req
		out = append(out, &req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code > out[j].Code })
	return page(out, f.ListFilter), nil
}

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct{ s *Store }

var _ invoice.Repository = (*InvoiceRepo)(nil)

// Invoices returns the invoice view.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{s: s} }

// AddInvoiceNumber inserts a bare invoice header numbered outside the counter,
// as rows imported from the legacy max-scan are.
func (s *Store) AddInvoiceNumber(ownerID, number string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := invoice.NewInvoice(ownerID, "legacy", time.Now().UTC(), nil, "")
	inv.Number = number
	s.st.invoices[inv.ID] = *inv
}

func (r *InvoiceRepo) Create(_ context.Context, inv *invoice.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpInvoiceCreate); err != nil {
		return err
	}
	for _, existing := range r.s.st.invoices {
		if existing.OwnerID == inv.OwnerID && existing.Number == inv.Number {
			return apperror.NewDuplicate("invoice", "invoices_user_id_number_key")
		}
	}
	stored := *inv
	stored.Items = nil
	r.s.st.invoices[inv.ID] = stored
	return nil
}

func (r *InvoiceRepo) SaveItems(_ context.Context, invoiceID id.ID, items []invoice.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpInvoiceSaveItems); err != nil {
		return err
	}
	r.s.st.items[invoiceID] = append([]invoice.Item(nil), items...)
	return nil
}

func (r *InvoiceRepo) GetByID(_ context.Context, ownerID string, invoiceID id.ID) (*invoice.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.st.invoices[invoiceID]
	if !ok || inv.OwnerID != ownerID {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	return &inv, nil
}

func (r *InvoiceRepo) GetItems(_ context.Context, invoiceID id.ID) ([]invoice.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]invoice.Item{}, r.s.st.items[invoiceID]...), nil
}

func (r *InvoiceRepo) List(_ context.Context, ownerID string, f invoice.ListFilter) ([]*invoice.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*invoice.Invoice, 0)
	for _, inv := range r.s.st.invoices {
		if inv.OwnerID != ownerID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.DateFrom != nil && inv.IssueDate.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && inv.IssueDate.After(*f.DateTo) {
			continue
		}
		inv := inv
		out = append(out, &inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return page(out, f.ListFilter), nil
}

// ScheduleRepo implements scheduling_request.Repository.
type ScheduleRepo struct{ s *Store }

var _ sr.Repository = (*ScheduleRepo)(nil)

// Schedules returns the scheduling request view.
func (s *Store) Schedules() *ScheduleRepo { return &ScheduleRepo{s: s} }

func (r *ScheduleRepo) Create(_ context.Context, req *sr.SchedulingRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.st.schedules[req.ID] = *req
	return nil
}

func (r *ScheduleRepo) GetByID(_ context.Context, ownerID string, reqID id.ID) (*sr.SchedulingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.st.schedules[reqID]
	if !ok || req.OwnerID != ownerID {
		return nil, apperror.NewNotFound("scheduling_request", reqID)
	}
	return &req, nil
}

func (r *ScheduleRepo) GetForUpdate(ctx context.Context, ownerID string, reqID id.ID) (*sr.SchedulingRequest, error) {
	return r.GetByID(ctx, ownerID, reqID)
}

func (r *ScheduleRepo) Update(_ context.Context, req *sr.SchedulingRequest, from sr.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpScheduleUpdate); err != nil {
		return err
	}
	stored, ok := r.s.st.schedules[req.ID]
	if !ok || stored.OwnerID != req.OwnerID {
		return apperror.NewNotFound("scheduling_request", req.ID)
	}
	if stored.Status != from {
		return apperror.NewConcurrentModification("scheduling_request", req.ID)
	}
	if req.DeliveryOrderNumber != nil {
		for otherID, other := range r.s.st.schedules {
			if otherID != req.ID && other.OwnerID == req.OwnerID &&
				other.DeliveryOrderNumber != nil && *other.DeliveryOrderNumber == *req.DeliveryOrderNumber {
				return apperror.NewDuplicate("scheduling_request", "scheduling_requests_user_id_delivery_order_number_key")
			}
		}
	}
	r.s.st.schedules[req.ID] = *req
	return nil
}

func (r *ScheduleRepo) List(_ context.Context, ownerID string, f sr.ListFilter) ([]*sr.SchedulingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*sr.SchedulingRequest, 0)
	for _, req := range r.s.st.schedules {
		if req.OwnerID != ownerID || (f.Status != "" && req.Status != f.Status) {
			continue
		}
		req := req
		out = append(out, &req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	return page(out, f.ListFilter), nil
}

// Numerator implements numerator.Generator over the store's counters.
type Numerator struct{ s *Store }

var _ numerator.Generator = (*Numerator)(nil)

// Numerator returns the sequence counter view.
func (s *Store) Numerator() *Numerator { return &Numerator{s: s} }

func counterKey(ownerID string, cfg numerator.Config, day time.Time) string {
	return ownerID + "|" + numerator.Key(cfg, day)
}

func (n *Numerator) Next(_ context.Context, ownerID string, cfg numerator.Config, day time.Time) (string, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	if err := n.s.fault(OpNumeratorNext); err != nil {
		return "", err
	}
	k := counterKey(ownerID, cfg, day)
	n.s.st.counters[k]++
	return numerator.Format(cfg, day, n.s.st.counters[k]), nil
}

func (n *Numerator) Seed(_ context.Context, ownerID string, cfg numerator.Config, day time.Time, value int64) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	k := counterKey(ownerID, cfg, day)
	if value > n.s.st.counters[k] {
		n.s.st.counters[k] = value
	}
	return nil
}
