package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fatflowers/repricer/internal/app/repository"
	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/types"
)

type memData struct {
	products            map[string]models.Product
	productPriceChanges map[string]models.ProductPriceChange
	subscriptions       map[string]models.Subscription
	priceChanges        map[string]models.SubscriptionPriceChange
	subscriptionLogs    []models.SubscriptionLog
	notifications       []models.NotificationLogEntry
}

func newMemData() *memData {
	return &memData{
		products:            make(map[string]models.Product),
		productPriceChanges: make(map[string]models.ProductPriceChange),
		subscriptions:       make(map[string]models.Subscription),
		priceChanges:        make(map[string]models.SubscriptionPriceChange),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.productPriceChanges {
		c.productPriceChanges[k] = v
	}
	for k, v := range d.subscriptions {
		c.subscriptions[k] = v
	}
	for k, v := range d.priceChanges {
		c.priceChanges[k] = v
	}
	c.subscriptionLogs = append([]models.SubscriptionLog(nil), d.subscriptionLogs...)
	c.notifications = append([]models.NotificationLogEntry(nil), d.notifications...)
	return c
}

type fault struct {
	op  string
	id  string
	err error
}

// InMemoryStore implements repository.Store for service tests. Transactions
// are serialized and roll back by restoring a snapshot.
type InMemoryStore struct {
	mu     *sync.Mutex
	data   **memData
	faults *[]fault
	inTx   bool
}

var _ repository.Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	d := newMemData()
	return &InMemoryStore{
		mu:     &sync.Mutex{},
		data:   &d,
		faults: &[]fault{},
	}
}

func (s *InMemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *InMemoryStore) d() *memData { return *s.data }

// FailOn makes operation op return err. An empty id matches every call.
func (s *InMemoryStore) FailOn(op, id string, err error) {
	defer s.lock()()
	*s.faults = append(*s.faults, fault{op: op, id: id, err: err})
}

// fault also fails every call made on a cancelled context, as a database
// driver would.
func (s *InMemoryStore) fault(ctx context.Context, op, id string) error {
	if err := ctx.Err(); err != nil {
		return ierr.WithError(err).
			WithHint("Internal error").
			Mark(ierr.ErrDatabase)
	}
	for _, f := range *s.faults {
		if f.op == op && (f.id == "" || f.id == id) {
			return f.err
		}
	}
	return nil
}

func notFound(entity string) error {
	return ierr.NewError("record not found").
		WithHintf("%s not found", entity).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := s.fault(ctx, "Transaction", ""); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.d().clone()
	tx := &InMemoryStore{mu: s.mu, data: s.data, faults: s.faults, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

// Seeding helpers

func (s *InMemoryStore) AddProduct(p models.Product) {
	defer s.lock()()
	s.d().products[p.ID] = p
}

func (s *InMemoryStore) AddSubscription(sub models.Subscription) {
	defer s.lock()()
	s.d().subscriptions[sub.ID] = sub
}

func (s *InMemoryStore) AddProductPriceChange(c models.ProductPriceChange) {
	defer s.lock()()
	s.d().productPriceChanges[c.ID] = c
}

func (s *InMemoryStore) AddSubscriptionPriceChange(c models.SubscriptionPriceChange) {
	defer s.lock()()
	s.d().priceChanges[c.ID] = c
}

// Inspection helpers

func (s *InMemoryStore) SubscriptionPriceChanges() []models.SubscriptionPriceChange {
	defer s.lock()()
	out := lo.Values(s.d().priceChanges)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *InMemoryStore) SubscriptionPriceChangesFor(subscriptionID string) []models.SubscriptionPriceChange {
	return lo.Filter(s.SubscriptionPriceChanges(), func(c models.SubscriptionPriceChange, _ int) bool {
		return c.SubscriptionID == subscriptionID
	})
}

func (s *InMemoryStore) Notifications() []models.NotificationLogEntry {
	defer s.lock()()
	return append([]models.NotificationLogEntry(nil), s.d().notifications...)
}

func (s *InMemoryStore) SubscriptionLogs() []models.SubscriptionLog {
	defer s.lock()()
	return append([]models.SubscriptionLog(nil), s.d().subscriptionLogs...)
}

// Store implementation

func (s *InMemoryStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	defer s.lock()()
	if err := s.fault(ctx, "GetProduct", id); err != nil {
		return nil, err
	}
	p, ok := s.d().products[id]
	if !ok {
		return nil, notFound("Product")
	}
	return &p, nil
}

func (s *InMemoryStore) UpdateProductBaseAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	defer s.lock()()
	if err := s.fault(ctx, "UpdateProductBaseAmount", id); err != nil {
		return err
	}
	p, ok := s.d().products[id]
	if !ok {
		return nil
	}
	p.BaseAmount = amount
	p.UpdatedAt = time.Now()
	s.d().products[id] = p
	return nil
}

func (s *InMemoryStore) GetProductPriceChange(ctx context.Context, id string) (*models.ProductPriceChange, error) {
	defer s.lock()()
	if err := s.fault(ctx, "GetProductPriceChange", id); err != nil {
		return nil, err
	}
	c, ok := s.d().productPriceChanges[id]
	if !ok {
		return nil, notFound("Price change")
	}
	return &c, nil
}

func (s *InMemoryStore) TransitionProductPriceChange(ctx context.Context, id string, from, to types.ProductPriceChangeStatus) (bool, error) {
	defer s.lock()()
	if err := s.fault(ctx, "TransitionProductPriceChange", id); err != nil {
		return false, err
	}
	c, ok := s.d().productPriceChanges[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	c.UpdatedAt = time.Now()
	s.d().productPriceChanges[id] = c
	return true, nil
}

func (s *InMemoryStore) CompleteProductPriceChange(ctx context.Context, id string, tally models.PriceChangeTally, total int, appliedAt time.Time) (bool, error) {
	defer s.lock()()
	if err := s.fault(ctx, "CompleteProductPriceChange", id); err != nil {
		return false, err
	}
	c, ok := s.d().productPriceChanges[id]
	if !ok || c.Status != types.ProductPriceChangeStatusApplying {
		return false, nil
	}
	c.Status = types.ProductPriceChangeStatusApplied
	c.AppliedAt = &appliedAt
	c.SubscriptionsApplied = tally.Applied
	c.SubscriptionsPendingApproval = tally.PendingApproval
	c.SubscriptionsFailed = tally.Failed
	c.TotalSubscriptionsAffected = total
	c.UpdatedAt = time.Now()
	s.d().productPriceChanges[id] = c
	return true, nil
}

func (s *InMemoryStore) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	defer s.lock()()
	if err := s.fault(ctx, "GetSubscription", id); err != nil {
		return nil, err
	}
	sub, ok := s.d().subscriptions[id]
	if !ok {
		return nil, notFound("Subscription")
	}
	return &sub, nil
}

func (s *InMemoryStore) ListSubscriptionsByProduct(ctx context.Context, productID string, statuses []types.SubscriptionStatus) ([]*models.Subscription, error) {
	defer s.lock()()
	if err := s.fault(ctx, "ListSubscriptionsByProduct", productID); err != nil {
		return nil, err
	}
	var out []*models.Subscription
	for _, sub := range s.d().subscriptions {
		if sub.ProductID == productID && lo.Contains(statuses, sub.Status) {
			sub := sub
			out = append(out, &sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) ApplySubscriptionAmount(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (bool, error) {
	defer s.lock()()
	if err := s.fault(ctx, "ApplySubscriptionAmount", id); err != nil {
		return false, err
	}
	sub, ok := s.d().subscriptions[id]
	if !ok {
		return false, nil
	}
	sub.Amount = amount
	sub.PriceChangeHistoryCount++
	sub.LastPriceChangeDate = &at
	sub.UpdatedAt = time.Now()
	s.d().subscriptions[id] = sub
	return true, nil
}

func (s *InMemoryStore) TransitionSubscriptionStatus(ctx context.Context, id string, from []types.SubscriptionStatus, to types.SubscriptionStatus) (bool, error) {
	defer s.lock()()
	if err := s.fault(ctx, "TransitionSubscriptionStatus", id); err != nil {
		return false, err
	}
	sub, ok := s.d().subscriptions[id]
	if !ok || !lo.Contains(from, sub.Status) {
		return false, nil
	}
	sub.Status = to
	sub.UpdatedAt = time.Now()
	s.d().subscriptions[id] = sub
	return true, nil
}

func (s *InMemoryStore) CreateSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error {
	defer s.lock()()
	if err := s.fault(ctx, "CreateSubscriptionLog", log.SubscriptionID); err != nil {
		return err
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	s.d().subscriptionLogs = append(s.d().subscriptionLogs, *log)
	return nil
}

func (s *InMemoryStore) CreateSubscriptionPriceChange(ctx context.Context, change *models.SubscriptionPriceChange) error {
	defer s.lock()()
	if err := s.fault(ctx, "CreateSubscriptionPriceChange", change.SubscriptionID); err != nil {
		return err
	}
	if _, ok := s.d().priceChanges[change.ID]; ok {
		return ierr.NewError("duplicate primary key").WithHint("Internal error").Mark(ierr.ErrDatabase)
	}
	if change.ApprovalToken != nil {
		for _, c := range s.d().priceChanges {
			if c.ApprovalToken != nil && *c.ApprovalToken == *change.ApprovalToken {
				return ierr.NewError("duplicate approval token").WithHint("Internal error").Mark(ierr.ErrDatabase)
			}
		}
	}
	now := time.Now()
	if change.CreatedAt.IsZero() {
		change.CreatedAt = now
	}
	if change.UpdatedAt.IsZero() {
		change.UpdatedAt = now
	}
	s.d().priceChanges[change.ID] = *change
	return nil
}

func (s *InMemoryStore) GetSubscriptionPriceChange(ctx context.Context, id string) (*models.SubscriptionPriceChange, error) {
	defer s.lock()()
	if err := s.fault(ctx, "GetSubscriptionPriceChange", id); err != nil {
		return nil, err
	}
	c, ok := s.d().priceChanges[id]
	if !ok {
		return nil, notFound("Subscription price change")
	}
	return &c, nil
}

func (s *InMemoryStore) GetPendingSubscriptionPriceChangeByToken(ctx context.Context, token string) (*models.SubscriptionPriceChange, error) {
	defer s.lock()()
	if err := s.fault(ctx, "GetPendingSubscriptionPriceChangeByToken", token); err != nil {
		return nil, err
	}
	for _, c := range s.d().priceChanges {
		if c.ApprovalToken != nil && *c.ApprovalToken == token &&
			c.ClientApprovalStatus == types.ClientApprovalStatusPending {
			c := c
			return &c, nil
		}
	}
	return nil, notFound("Subscription price change")
}

func (s *InMemoryStore) ResolveConsent(ctx context.Context, change *models.SubscriptionPriceChange) (bool, error) {
	defer s.lock()()
	if err := s.fault(ctx, "ResolveConsent", change.ID); err != nil {
		return false, err
	}
	c, ok := s.d().priceChanges[change.ID]
	if !ok ||
		c.Status != types.SubscriptionPriceChangeStatusPending ||
		c.ClientApprovalStatus != types.ClientApprovalStatusPending {
		return false, nil
	}
	c.Status = change.Status
	c.ClientApprovalStatus = change.ClientApprovalStatus
	c.ClientApprovalDate = change.ClientApprovalDate
	c.ClientApprovalMethod = change.ClientApprovalMethod
	c.ScheduledDate = change.ScheduledDate
	c.UpdatedAt = time.Now()
	s.d().priceChanges[c.ID] = c
	return true, nil
}

func (s *InMemoryStore) MarkSubscriptionPriceChangeApplied(ctx context.Context, id string, at time.Time) (bool, error) {
	defer s.lock()()
	if err := s.fault(ctx, "MarkSubscriptionPriceChangeApplied", id); err != nil {
		return false, err
	}
	c, ok := s.d().priceChanges[id]
	if !ok ||
		c.Status != types.SubscriptionPriceChangeStatusScheduled ||
		!c.ClientApprovalStatus.Applicable() ||
		c.AppliedAt != nil {
		return false, nil
	}
	c.Status = types.SubscriptionPriceChangeStatusApplied
	c.AppliedAt = &at
	c.UpdatedAt = time.Now()
	s.d().priceChanges[id] = c
	return true, nil
}

func (s *InMemoryStore) ListDueSubscriptionPriceChanges(ctx context.Context, now time.Time, limit int) ([]*models.SubscriptionPriceChange, error) {
	defer s.lock()()
	if err := s.fault(ctx, "ListDueSubscriptionPriceChanges", ""); err != nil {
		return nil, err
	}
	var out []*models.SubscriptionPriceChange
	for _, c := range s.d().priceChanges {
		if c.Status == types.SubscriptionPriceChangeStatusScheduled &&
			c.ScheduledDate != nil && !c.ScheduledDate.After(now) &&
			c.ClientApprovalStatus.Applicable() &&
			c.AppliedAt == nil {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.Before(*out[j].ScheduledDate) })
	return limitSlice(out, limit), nil
}

func (s *InMemoryStore) ListStaleConsentRequests(ctx context.Context, createdBefore time.Time, limit int) ([]*models.SubscriptionPriceChange, error) {
	defer s.lock()()
	if err := s.fault(ctx, "ListStaleConsentRequests", ""); err != nil {
		return nil, err
	}
	var out []*models.SubscriptionPriceChange
	for _, c := range s.d().priceChanges {
		if c.Status == types.SubscriptionPriceChangeStatusPending &&
			c.RequiresClientApproval &&
			c.ClientApprovalStatus == types.ClientApprovalStatusPending &&
			!c.CreatedAt.After(createdBefore) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return limitSlice(out, limit), nil
}

func (s *InMemoryStore) ScanSubscriptionPriceChanges(ctx context.Context, req *repository.ScanRequest) ([]*models.SubscriptionPriceChange, int64, error) {
	defer s.lock()()
	if err := s.fault(ctx, "ScanSubscriptionPriceChanges", req.ProductPriceChangeID); err != nil {
		return nil, 0, err
	}
	var out []*models.SubscriptionPriceChange
	for _, c := range s.d().priceChanges {
		if c.ProductPriceChangeID == nil || *c.ProductPriceChangeID != req.ProductPriceChangeID {
			continue
		}
		if !matchFilters(&c, req.Filters) {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	sort.SliceStable(out, func(i, j int) bool {
		c := compareColumn(out[i], out[j], req.SortBy)
		if req.SortDesc {
			return c > 0
		}
		return c < 0
	})
	total := int64(len(out))
	if req.Offset >= len(out) {
		return nil, total, nil
	}
	return limitSlice(out[req.Offset:], req.Limit), total, nil
}

// compareColumn orders two records by a sortable column, created_at when empty.
// Nil timestamps sort last, as postgres does in ascending order.
func compareColumn(a, b *models.SubscriptionPriceChange, column string) int {
	switch column {
	case "new_amount":
		return a.NewAmount.Cmp(b.NewAmount)
	case "scheduled_date":
		return compareTimePtr(a.ScheduledDate, b.ScheduledDate)
	case "applied_at":
		return compareTimePtr(a.AppliedAt, b.AppliedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func (s *InMemoryStore) AppendNotification(ctx context.Context, entry *models.NotificationLogEntry) error {
	defer s.lock()()
	if err := s.fault(ctx, "AppendNotification", entry.SubscriptionID); err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.d().notifications = append(s.d().notifications, *entry)
	return nil
}

func limitSlice[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

// matchFilters supports eq and in on the columns tests filter by.
func matchFilters(c *models.SubscriptionPriceChange, filters types.FiltersAnd) bool {
	for _, f := range filters {
		var actual string
		switch f.Field {
		case "status":
			actual = string(c.Status)
		case "client_approval_status":
			actual = string(c.ClientApprovalStatus)
		case "subscription_id":
			actual = c.SubscriptionID
		case "requires_client_approval":
			actual = fmt.Sprint(c.RequiresClientApproval)
		default:
			continue
		}
		values := lo.Map(f.Values, func(v any, _ int) string { return fmt.Sprint(v) })
		switch f.Operator {
		case types.CommonFilterOperatorEq:
			if actual != values[0] {
				return false
			}
		case types.CommonFilterOperatorIn:
			if !lo.Contains(values, actual) {
				return false
			}
		}
	}
	return true
}
