package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

// In-memory repository fakes backing the handler tests.

type memUserRepo struct {
	mu    sync.Mutex
	order []string
	users map[string]*UserRecord
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*UserRecord{}}
}

func (r *memUserRepo) Create(_ context.Context, id, username, name, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return errors.New(`duplicate key value violates unique constraint "users_username_key"`)
		}
	}
	r.users[id] = &UserRecord{
		ID:           id,
		Username:     username,
		Name:         name,
		PasswordHash: passwordHash,
		BlogIDs:      []string{},
		CreatedAt:    time.Now(),
	}
	r.order = append(r.order, id)
	return nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) List(_ context.Context) ([]UserListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]UserListItem, 0, len(r.order))
	for _, id := range r.order {
		u := r.users[id]
		items = append(items, UserListItem{
			ID:        u.ID,
			Username:  u.Username,
			Name:      u.Name,
			Blogs:     append([]string{}, u.BlogIDs...),
			CreatedAt: u.CreatedAt,
		})
	}
	return items, nil
}

func (r *memUserRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *memUserRepo) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = map[string]*UserRecord{}
	r.order = nil
	return nil
}

type memBlogRepo struct {
	mu    sync.Mutex
	order []string
	blogs map[string]*BlogRecord
	users *memUserRepo
}

func newMemBlogRepo(users *memUserRepo) *memBlogRepo {
	return &memBlogRepo{blogs: map[string]*BlogRecord{}, users: users}
}

func (r *memBlogRepo) CreateOwned(_ context.Context, blog BlogRecord, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	blog.CreatedAt = time.Now()
	blog.Owner = nil
	r.blogs[blog.ID] = &blog
	r.order = append(r.order, blog.ID)

	if ownerID != "" {
		r.users.mu.Lock()
		if u, ok := r.users.users[ownerID]; ok {
			u.BlogIDs = append(u.BlogIDs, blog.ID)
		}
		r.users.mu.Unlock()
	}
	return nil
}

func (r *memBlogRepo) DeleteOwned(_ context.Context, blogID, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blogs[blogID]; !ok {
		return ErrNotFound
	}
	delete(r.blogs, blogID)
	for i, id := range r.order {
		if id == blogID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.users.mu.Lock()
	if u, ok := r.users.users[ownerID]; ok {
		kept := u.BlogIDs[:0]
		for _, id := range u.BlogIDs {
			if id != blogID {
				kept = append(kept, id)
			}
		}
		u.BlogIDs = kept
	}
	r.users.mu.Unlock()
	return nil
}

func (r *memBlogRepo) FindByID(_ context.Context, id string) (*BlogRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memBlogRepo) Update(_ context.Context, id string, in BlogUpdateInput) (*BlogRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Author != nil {
		b.Author = *in.Author
	}
	if in.URL != nil {
		b.URL = *in.URL
	}
	if in.Likes != nil {
		b.Likes = *in.Likes
	}
	cp := *b
	return &cp, nil
}

func (r *memBlogRepo) ListWithOwners(_ context.Context) ([]BlogRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]BlogRecord, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.blogs[id]
		if cp.UserID != "" {
			r.users.mu.Lock()
			if u, ok := r.users.users[cp.UserID]; ok {
				cp.Owner = &OwnerView{ID: u.ID, Username: u.Username, Name: u.Name}
			}
			r.users.mu.Unlock()
		}
		items = append(items, cp)
	}
	return items, nil
}

func (r *memBlogRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blogs), nil
}

func (r *memBlogRepo) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blogs = map[string]*BlogRecord{}
	r.order = nil
	return nil
}
