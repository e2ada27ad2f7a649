package repo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/graphkart/storefront/internal/graph"
	"github.com/graphkart/storefront/internal/models"
)

// MemoryRepo keeps the same graph in process memory. It backs
// GRAPH_BACKEND=memory and the service and handler tests.
type MemoryRepo struct {
	mu         sync.RWMutex
	products   map[string]models.Product
	categories map[string]struct{}
	belongs    map[string]string // product id -> category
	users      map[string]models.User
	wishlists  map[string]map[string]struct{}
	views      map[string]map[string]int64 // username -> product id -> count
	carts      map[string]map[string]int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		products:   map[string]models.Product{},
		categories: map[string]struct{}{},
		belongs:    map[string]string{},
		users:      map[string]models.User{},
		wishlists:  map[string]map[string]struct{}{},
		views:      map[string]map[string]int64{},
		carts:      map[string]map[string]int64{},
	}
}

func (m *MemoryRepo) product(id string) models.Product {
	p := m.products[id]
	p.Category = m.belongs[id]
	p.ImageURL = graph.FileName(p.ImageURL)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

func sortProducts(items []models.Product, sortBy string, desc bool) {
	var less func(a, b models.Product) bool
	switch strings.ToLower(sortBy) {
	case models.SortPrice:
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	case models.SortName:
		less = func(a, b models.Product) bool { return a.Name < b.Name }
	default:
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func (m *MemoryRepo) ListProducts(_ context.Context, q models.ProductQuery) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]models.Product, 0, len(m.products))
	for id := range m.products {
		if q.Category != "" && m.belongs[id] != q.Category {
			continue
		}
		items = append(items, m.product(id))
	}
	// map order is random; keep unsorted listings stable
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	sortProducts(items, q.SortBy, q.Desc)
	return items, nil
}

func (m *MemoryRepo) ProductNames(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.products))
	for _, p := range m.products {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryRepo) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.products[id]; !ok {
		return nil, ErrNotFound
	}
	p := m.product(id)
	return &p, nil
}

func (m *MemoryRepo) CreateProduct(_ context.Context, p *models.Product, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; ok {
		return fmt.Errorf("product %s: %w", p.ID, ErrAlreadyExists)
	}
	stored := *p
	stored.Category = ""
	stored.Tags = append([]string{}, p.Tags...)
	m.products[p.ID] = stored
	if category != "" {
		m.categories[category] = struct{}{}
		m.belongs[p.ID] = category
	}
	p.Category = category
	return nil
}

func (m *MemoryRepo) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	delete(m.belongs, id)
	for _, w := range m.wishlists {
		delete(w, id)
	}
	for _, v := range m.views {
		delete(v, id)
	}
	for _, c := range m.carts {
		delete(c, id)
	}
	return nil
}

func matches(p models.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func (m *MemoryRepo) SearchProducts(_ context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	if offset < 0 || limit < 0 {
		return 0, nil, fmt.Errorf("search products: negative offset %d or limit %d", offset, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	q = strings.ToLower(q)
	var hits []models.Product
	for id, p := range m.products {
		if matches(p, q) {
			hits = append(hits, m.product(id))
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Name < hits[j].Name })

	total := int64(len(hits))
	if offset >= len(hits) {
		return total, []models.Product{}, nil
	}
	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	return total, hits[offset:end], nil
}

func (m *MemoryRepo) AlsoViewed(_ context.Context, id string, limit int) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scores := map[string]int{}
	for _, viewed := range m.views {
		if _, ok := viewed[id]; !ok {
			continue
		}
		for other := range viewed {
			if other != id {
				scores[other]++
			}
		}
	}
	items := make([]models.Product, 0, len(scores))
	for pid := range scores {
		items = append(items, m.product(pid))
	}
	sort.Slice(items, func(i, j int) bool {
		si, sj := scores[items[i].ID], scores[items[j].ID]
		if si != sj {
			return si > sj
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryRepo) MergeCategory(_ context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[name] = struct{}{}
	return &models.Category{Name: name}, nil
}

func (m *MemoryRepo) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, 0, len(m.categories))
	for name := range m.categories {
		out = append(out, models.Category{Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepo) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("user %s: %w", u.Username, ErrAlreadyExists)
		}
	}
	stored := *u
	stored.Verified = false
	stored.CreatedAt = time.Now().UTC()
	m.users[u.Username] = stored
	return nil
}

func (m *MemoryRepo) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryRepo) VerifyUser(_ context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, u := range m.users {
		if u.Token != "" && u.Token == token {
			u.Verified = true
			u.Token = ""
			m.users[name] = u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ResetVerificationToken(_ context.Context, email, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, u := range m.users {
		if strings.EqualFold(u.Email, email) && !u.Verified {
			u.Token = token
			m.users[name] = u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// exists reports whether both ends of a user->product edge are present.
func (m *MemoryRepo) exists(username, productID string) bool {
	_, userOK := m.users[username]
	_, productOK := m.products[productID]
	return userOK && productOK
}

func (m *MemoryRepo) AddToWishlist(_ context.Context, username, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists(username, productID) {
		return ErrNotFound
	}
	if m.wishlists[username] == nil {
		m.wishlists[username] = map[string]struct{}{}
	}
	m.wishlists[username][productID] = struct{}{}
	return nil
}

func (m *MemoryRepo) GetWishlist(_ context.Context, username string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.Product, 0, len(m.wishlists[username]))
	for id := range m.wishlists[username] {
		items = append(items, m.product(id))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *MemoryRepo) RemoveFromWishlist(_ context.Context, username, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wishlists[username][productID]; !ok {
		return ErrNotFound
	}
	delete(m.wishlists[username], productID)
	return nil
}

func (m *MemoryRepo) MarkViewed(_ context.Context, username, productID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists(username, productID) {
		return 0, ErrNotFound
	}
	if m.views[username] == nil {
		m.views[username] = map[string]int64{}
	}
	m.views[username][productID]++
	return m.views[username][productID], nil
}

func (m *MemoryRepo) GetCart(_ context.Context, username string) ([]models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.CartItem, 0, len(m.carts[username]))
	for id, qty := range m.carts[username] {
		p := m.product(id)
		p.Category = ""
		items = append(items, models.CartItem{Product: p, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Product.Name < items[j].Product.Name })
	return items, nil
}

func (m *MemoryRepo) AddToCart(_ context.Context, username, productID string, quantity int64) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists(username, productID) {
		return nil, ErrNotFound
	}
	if m.carts[username] == nil {
		m.carts[username] = map[string]int64{}
	}
	m.carts[username][productID] += quantity
	p := m.product(productID)
	p.Category = ""
	return &models.CartItem{Product: p, Quantity: m.carts[username][productID]}, nil
}

func (m *MemoryRepo) DeleteOneFromCart(_ context.Context, username, productID string) (bool, *models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qty, ok := m.carts[username][productID]
	if !ok {
		return false, nil, ErrNotFound
	}
	qty--
	if qty <= 0 {
		delete(m.carts[username], productID)
	} else {
		m.carts[username][productID] = qty
	}
	p := m.product(productID)
	p.Category = ""
	return qty <= 0, &models.CartItem{Product: p, Quantity: qty}, nil
}

func (m *MemoryRepo) ClearCart(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, username)
	return nil
}
