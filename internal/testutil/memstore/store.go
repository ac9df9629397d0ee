// Package memstore provides in-memory implementations of the persistence,
// media and cache ports for unit tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shelfapi/shelf/internal/model"
	"github.com/shelfapi/shelf/internal/repository"
)

type pair struct {
	userID    int64
	productID int64
}

// Store is an in-memory stand-in for the repository.
// It returns the same sentinel errors as the PostgreSQL implementation.
type Store struct {
	mu           sync.Mutex
	nextUserID   int64
	nextProduct  int64
	users        map[int64]*model.User
	products     map[int64]*model.Product
	userProducts map[pair]time.Time
	tokens       map[string]*model.AccessToken
	clock        time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:        make(map[int64]*model.User),
		products:     make(map[int64]*model.Product),
		userProducts: make(map[pair]time.Time),
		tokens:       make(map[string]*model.AccessToken),
		clock:        time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so orderings are deterministic.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// CreateUser inserts a user and sets its ID.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}

	s.nextUserID++
	user.ID = s.nextUserID
	now := s.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// GetUserByEmail finds a user by email, case-insensitively.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// DeleteUser removes a user with the same cascades as the schema.
func (s *Store) DeleteUser(_ context.Context, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
	for _, p := range s.products {
		if p.IsOwnedBy(id) {
			p.UserID = nil
		}
	}
	for k := range s.userProducts {
		if k.userID == id {
			delete(s.userProducts, k)
		}
	}
	for k, t := range s.tokens {
		if t.UserID == id {
			delete(s.tokens, k)
		}
	}
}

// CreateProduct inserts a product and sets its ID and timestamps.
func (s *Store) CreateProduct(_ context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.UserID != nil {
		if _, ok := s.users[*product.UserID]; !ok {
			return repository.ErrUserNotFound
		}
	}

	s.nextProduct++
	product.ID = s.nextProduct
	now := s.tick()
	product.CreatedAt, product.UpdatedAt = now, now
	s.products[product.ID] = cloneProduct(product)
	return nil
}

// GetProductByID returns a copy of a stored product without its image.
func (s *Store) GetProductByID(_ context.Context, id int64) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

// ProductExists reports whether a product exists.
func (s *Store) ProductExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.products[id]
	return ok, nil
}

// ListProducts pages through products ordered by ID.
func (s *Store) ListProducts(_ context.Context, page repository.Page) ([]*model.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*model.Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return paginate(all, page), len(all), nil
}

// UpdateProduct overwrites the mutable fields of a product.
func (s *Store) UpdateProduct(_ context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.products[product.ID]
	if !ok {
		return repository.ErrProductNotFound
	}
	stored.Name = product.Name
	stored.Description = product.Description
	stored.Price = product.Price
	stored.UpdatedAt = s.tick()
	product.UpdatedAt = stored.UpdatedAt
	return nil
}

// DeleteProduct removes a product and its associations.
func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(s.products, id)
	for k := range s.userProducts {
		if k.productID == id {
			delete(s.userProducts, k)
		}
	}
	return nil
}

// ListUserProducts pages through a user's attached products by attach time.
func (s *Store) ListUserProducts(_ context.Context, userID int64, page repository.Page) ([]*model.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type attached struct {
		product *model.Product
		at      time.Time
	}
	var rows []attached
	for k, at := range s.userProducts {
		if k.userID != userID {
			continue
		}
		if p, ok := s.products[k.productID]; ok {
			rows = append(rows, attached{product: p, at: at})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].at.Equal(rows[j].at) {
			return rows[i].product.ID < rows[j].product.ID
		}
		return rows[i].at.Before(rows[j].at)
	})

	all := make([]*model.Product, len(rows))
	for i, r := range rows {
		all[i] = r.product
	}
	return paginate(all, page), len(all), nil
}

// AttachUserProduct associates a product with a user; repeats are no-ops.
func (s *Store) AttachUserProduct(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return repository.ErrProductNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return repository.ErrUserNotFound
	}

	k := pair{userID: userID, productID: productID}
	if _, ok := s.userProducts[k]; !ok {
		s.userProducts[k] = s.tick()
	}
	return nil
}

// DetachUserProduct removes an association if present.
func (s *Store) DetachUserProduct(_ context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pair{userID: userID, productID: productID}
	if _, ok := s.userProducts[k]; !ok {
		return false, nil
	}
	delete(s.userProducts, k)
	return true, nil
}

// AssociationCount returns how many association rows exist for a pair.
func (s *Store) AssociationCount(userID, productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userProducts[pair{userID: userID, productID: productID}]; ok {
		return 1
	}
	return 0
}

// CreateAccessToken stores an access token record.
func (s *Store) CreateAccessToken(_ context.Context, token *model.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[token.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *token
	s.tokens[token.ID] = &cp
	return nil
}

// GetAccessToken returns an access token record by ID.
func (s *Store) GetAccessToken(_ context.Context, id string) (*model.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok {
		return nil, repository.ErrAccessTokenNotFound
	}
	cp := *t
	return &cp, nil
}

// RevokeAccessToken marks an access token as revoked.
func (s *Store) RevokeAccessToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok {
		return repository.ErrAccessTokenNotFound
	}
	t.Revoked = true
	return nil
}

// TokenCount returns how many access tokens were issued.
func (s *Store) TokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func paginate(all []*model.Product, page repository.Page) []*model.Product {
	out := []*model.Product{}
	start := page.Offset()
	if start >= len(all) {
		return out
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	for _, p := range all[start:end] {
		out = append(out, cloneProduct(p))
	}
	return out
}

func cloneProduct(p *model.Product) *model.Product {
	cp := *p
	if p.UserID != nil {
		id := *p.UserID
		cp.UserID = &id
	}
	cp.Image = nil
	return &cp
}
