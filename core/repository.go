package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// UserRecord is the persistence-layer projection of a user, including
// the password hash. Handlers never serialize it directly.
type UserRecord struct {
	ID           string
	Username     string
	Name         string
	PasswordHash string
	BlogIDs      []string
	CreatedAt    time.Time
}

// Principal strips the hash for use as the request principal.
func (u UserRecord) Principal() User {
	blogs := u.BlogIDs
	if blogs == nil {
		blogs = []string{}
	}
	return User{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Blogs:     blogs,
		CreatedAt: u.CreatedAt,
	}
}

// UserListItem is a projection for user listing (no password hash).
type UserListItem struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Blogs     []string  `json:"blogs"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, id, username, name, passwordHash string) error
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	List(ctx context.Context) ([]UserListItem, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	db *pgxpool.Pool
}

func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

func (r *PgUserRepository) Create(ctx context.Context, id, username, name, passwordHash string) error {
	const q = `INSERT INTO users (id, username, name, password_hash) VALUES ($1,$2,$3,$4)`
	_, err := r.db.Exec(ctx, q, id, username, name, passwordHash)
	return err
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	const q = `SELECT id, username, name, password_hash, blog_ids, created_at FROM users WHERE username=$1`
	return r.scanOne(r.db.QueryRow(ctx, q, username))
}

func (r *PgUserRepository) FindByID(ctx context.Context, id string) (*UserRecord, error) {
	const q = `SELECT id, username, name, password_hash, blog_ids, created_at FROM users WHERE id=$1`
	return r.scanOne(r.db.QueryRow(ctx, q, id))
}

func (r *PgUserRepository) scanOne(row pgx.Row) (*UserRecord, error) {
	var u UserRecord
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.BlogIDs, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns all users without password hashes, oldest first.
func (r *PgUserRepository) List(ctx context.Context) ([]UserListItem, error) {
	rows, err := r.db.Query(ctx, `SELECT id, username, name, blog_ids, created_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]UserListItem, 0)
	for rows.Next() {
		var u UserListItem
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Blogs, &u.CreatedAt); err != nil {
			return nil, err
		}
		if u.Blogs == nil {
			u.Blogs = []string{}
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (r *PgUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PgUserRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users`)
	return err
}
