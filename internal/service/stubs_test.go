package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/internal/ws"

	"github.com/google/uuid"
)

// In-memory repositories. Embedded interfaces leave unused methods nil.

func stamp(b *model.BaseModel) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	b.UpdatedAt = time.Now()
}

type memActivity struct {
	mu   sync.Mutex
	rows []model.ActivityLog
	err  error
}

func (m *memActivity) Create(_ context.Context, e *model.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, *e)
	return nil
}

func (m *memActivity) FindAll(_ context.Context, scope authz.Scope, _ repository.ActivityFilter) ([]model.ActivityLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityLog
	for _, r := range m.rows {
		if r.TenantID != nil && scope.Allows(*r.TenantID, nil) {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memActivity) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Action
	}
	return out
}

type memProducts struct {
	repository.ProductRepository
	mu     sync.Mutex
	offers map[uuid.UUID]map[uuid.UUID]model.TenantProduct // tenant -> product -> offer
}

func newMemProducts() *memProducts {
	return &memProducts{offers: map[uuid.UUID]map[uuid.UUID]model.TenantProduct{}}
}

func (m *memProducts) offer(tenantID uuid.UUID, name string, price int64) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	product := &model.Product{Name: name, SKU: name, IsActive: true}
	stamp(&product.BaseModel)
	if m.offers[tenantID] == nil {
		m.offers[tenantID] = map[uuid.UUID]model.TenantProduct{}
	}
	m.offers[tenantID][product.ID] = model.TenantProduct{
		TenantID: tenantID, ProductID: product.ID, Product: product, Price: price, IsAvailable: true,
	}
	return product.ID
}

func (m *memProducts) setPrice(tenantID, productID uuid.UUID, price int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tp := m.offers[tenantID][productID]
	tp.Price = price
	m.offers[tenantID][productID] = tp
}

func (m *memProducts) FindTenantProductsByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.TenantProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TenantProduct
	for _, id := range ids {
		if tp, ok := m.offers[tenantID][id]; ok {
			out = append(out, tp)
		}
	}
	return out, nil
}

type memOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]model.Order
}

func newMemOrders() *memOrders { return &memOrders{orders: map[uuid.UUID]model.Order{}} }

func (m *memOrders) visible(scope authz.Scope, o model.Order) bool {
	return scope.Allows(o.TenantID, &o.UserID)
}

func (m *memOrders) FindAll(_ context.Context, scope authz.Scope, _ repository.OrderFilter) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if m.visible(scope, o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memOrders) FindByID(_ context.Context, scope authz.Scope, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || !m.visible(scope, o) {
		return nil, apperror.NotFound("order")
	}
	o.Items = append([]model.OrderItem(nil), o.Items...)
	return &o, nil
}

func (m *memOrders) Create(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&o.BaseModel)
	for i := range o.Items {
		stamp(&o.Items[i].BaseModel)
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	m.orders[o.ID] = cp
	return nil
}

func (m *memOrders) Mutate(_ context.Context, scope authz.Scope, id uuid.UUID, fn repository.OrderMutation) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || !m.visible(scope, o) {
		return nil, apperror.NotFound("order")
	}
	if err := fn(&o); err != nil {
		return nil, err
	}
	o.UpdatedAt = time.Now()
	m.orders[id] = o
	return &o, nil
}

func (m *memOrders) Delete(_ context.Context, scope authz.Scope, id uuid.UUID, check repository.OrderMutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || !m.visible(scope, o) {
		return apperror.NotFound("order")
	}
	if err := check(&o); err != nil {
		return err
	}
	delete(m.orders, id)
	return nil
}

type memDeliveries struct {
	repository.DeliveryRepository
	mu     sync.Mutex
	orders *memOrders
	rows   map[uuid.UUID]model.Delivery
}

func newMemDeliveries(orders *memOrders) *memDeliveries {
	return &memDeliveries{orders: orders, rows: map[uuid.UUID]model.Delivery{}}
}

func (m *memDeliveries) visible(scope authz.Scope, d model.Delivery) bool {
	if scope.OwnerID == nil || scope.Unrestricted {
		return scope.Allows(d.TenantID, nil)
	}
	m.orders.mu.Lock()
	o, ok := m.orders.orders[d.OrderID]
	m.orders.mu.Unlock()
	return ok && scope.Allows(d.TenantID, &o.UserID)
}

func (m *memDeliveries) FindByID(_ context.Context, scope authz.Scope, id uuid.UUID) (*model.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok || !m.visible(scope, d) {
		return nil, apperror.NotFound("delivery")
	}
	return &d, nil
}

func (m *memDeliveries) FindByTrackingNumber(_ context.Context, tn string) (*model.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.rows {
		if d.TrackingNumber == tn {
			return &d, nil
		}
	}
	return nil, apperror.NotFound("delivery")
}

func (m *memDeliveries) Create(_ context.Context, d *model.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.TrackingNumber == d.TrackingNumber {
			return apperror.Conflict("delivery already exists")
		}
	}
	stamp(&d.BaseModel)
	m.rows[d.ID] = *d
	return nil
}

func (m *memDeliveries) Mutate(_ context.Context, scope authz.Scope, id uuid.UUID, fn repository.DeliveryMutation) (*model.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok || !m.visible(scope, d) {
		return nil, apperror.NotFound("delivery")
	}
	if err := fn(&d); err != nil {
		return nil, err
	}
	m.rows[id] = d
	return &d, nil
}

type memTickets struct {
	repository.TicketRepository
	mu       sync.Mutex
	rows     map[uuid.UUID]model.Ticket
	comments []model.TicketComment
}

func newMemTickets() *memTickets { return &memTickets{rows: map[uuid.UUID]model.Ticket{}} }

func (m *memTickets) Create(_ context.Context, t *model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.TicketNumber == t.TicketNumber {
			return apperror.Conflict("ticket already exists")
		}
	}
	stamp(&t.BaseModel)
	m.rows[t.ID] = *t
	return nil
}

func (m *memTickets) FindByID(_ context.Context, scope authz.Scope, id uuid.UUID, includeInternal bool) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok || !scope.Allows(t.TenantID, &t.UserID) {
		return nil, apperror.NotFound("ticket")
	}
	t.Comments = nil
	for _, c := range m.comments {
		if c.TicketID == id && (includeInternal || !c.IsInternal) {
			t.Comments = append(t.Comments, c)
		}
	}
	return &t, nil
}

func (m *memTickets) Mutate(_ context.Context, scope authz.Scope, id uuid.UUID, fn repository.TicketMutation) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok || !scope.Allows(t.TenantID, &t.UserID) {
		return nil, apperror.NotFound("ticket")
	}
	if err := fn(&t); err != nil {
		return nil, err
	}
	m.rows[id] = t
	return &t, nil
}

func (m *memTickets) AddComment(_ context.Context, scope authz.Scope, id uuid.UUID, c *model.TicketComment, check repository.TicketMutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok || !scope.Allows(t.TenantID, &t.UserID) {
		return apperror.NotFound("ticket")
	}
	if err := check(&t); err != nil {
		return err
	}
	stamp(&c.BaseModel)
	c.TicketID = id
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memTickets) ListComments(ctx context.Context, scope authz.Scope, id uuid.UUID, includeInternal bool) ([]model.TicketComment, error) {
	t, err := m.FindByID(ctx, scope, id, includeInternal)
	if err != nil {
		return nil, err
	}
	return t.Comments, nil
}

type memTenants struct {
	repository.TenantRepository
	users, products int64
	deleted         bool
	bySlug          map[string]*model.Tenant
}

func (m *memTenants) FindByID(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	for _, t := range m.bySlug {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, apperror.NotFound("tenant")
}

func (m *memTenants) Update(_ context.Context, t *model.Tenant) error {
	m.bySlug[t.Slug] = t
	return nil
}

func (m *memTenants) DeleteIfUnused(_ context.Context, _ uuid.UUID) (int64, int64, error) {
	if m.users > 0 || m.products > 0 {
		return m.users, m.products, nil
	}
	m.deleted = true
	return 0, 0, nil
}

func (m *memTenants) FindBySlug(_ context.Context, slug string) (*model.Tenant, error) {
	if t, ok := m.bySlug[slug]; ok {
		return t, nil
	}
	return nil, apperror.NotFound("tenant")
}

type memUsers struct {
	repository.UserRepository
	mu   sync.Mutex
	rows map[uuid.UUID]*model.User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[uuid.UUID]*model.User{}} }

func (m *memUsers) add(u *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&u.BaseModel)
	m.rows[u.ID] = u
	return u
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	if _, err := m.FindByEmail(context.Background(), u.Email); err == nil {
		return apperror.Conflict("user already exists")
	}
	cp := *u
	m.add(&cp)
	u.ID = cp.ID
	return nil
}

func (m *memUsers) update(id uuid.UUID, fn func(u *model.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return apperror.NotFound("user")
	}
	fn(u)
	return nil
}

func (m *memUsers) Update(_ context.Context, u *model.User) error {
	cp := *u
	return m.update(u.ID, func(stored *model.User) { *stored = cp })
}

func (m *memUsers) UpdateTokenVersion(_ context.Context, id uuid.UUID, version string) error {
	return m.update(id, func(u *model.User) { u.TokenVersion = version })
}

func (m *memUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash, version string) error {
	return m.update(id, func(u *model.User) { u.PasswordHash, u.TokenVersion = hash, version })
}

func (m *memUsers) RecordLogin(_ context.Context, id uuid.UUID, version string, at time.Time) error {
	return m.update(id, func(u *model.User) { u.TokenVersion, u.LastLoginAt = version, &at })
}

type memRoles struct {
	repository.RoleRepository
	roles map[authz.RoleName]*model.Role
}

func newMemRoles(policy *authz.Policy) *memRoles {
	m := &memRoles{roles: map[authz.RoleName]*model.Role{}}
	for i, rp := range policy.Roles() {
		role := model.RoleFromProfile(rp)
		role.ID = uint(i + 1)
		m.roles[rp.Name] = &role
	}
	return m
}

func (m *memRoles) FindByName(_ context.Context, name authz.RoleName) (*model.Role, error) {
	if r, ok := m.roles[name]; ok {
		return r, nil
	}
	return nil, apperror.NotFound("role")
}

// recordingNotifier captures published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []ws.Event
}

func (r *recordingNotifier) Publish(e ws.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

var errBoom = errors.New("boom")
