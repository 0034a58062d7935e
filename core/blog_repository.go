package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OwnerView is the reduced owner projection attached to listed blogs.
// It never carries the password hash.
type OwnerView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// BlogRecord represents a stored blog entry. UserID is empty for
// entries created without an owner (legacy data); such entries cannot
// be deleted through the owner-checked path.
type BlogRecord struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	URL       string     `json:"url"`
	Likes     int        `json:"likes"`
	UserID    string     `json:"-"`
	Owner     *OwnerView `json:"owner,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// BlogUpdateInput carries the updatable fields; nil means keep current.
type BlogUpdateInput struct {
	Title  *string
	Author *string
	URL    *string
	Likes  *int
}

// BlogRepository defines persistence operations for blog entries.
type BlogRepository interface {
	// CreateOwned inserts the blog and appends its id to the owner's
	// blog list in one transaction.
	CreateOwned(ctx context.Context, blog BlogRecord, ownerID string) error
	// DeleteOwned removes the blog and drops its id from the owner's
	// blog list in one transaction.
	DeleteOwned(ctx context.Context, blogID, ownerID string) error
	FindByID(ctx context.Context, id string) (*BlogRecord, error)
	Update(ctx context.Context, id string, in BlogUpdateInput) (*BlogRecord, error)
	ListWithOwners(ctx context.Context) ([]BlogRecord, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// PgBlogRepository implements BlogRepository using pgxpool.
type PgBlogRepository struct {
	db *pgxpool.Pool
}

func NewPgBlogRepository(db *pgxpool.Pool) *PgBlogRepository {
	return &PgBlogRepository{db: db}
}

func (r *PgBlogRepository) CreateOwned(ctx context.Context, blog BlogRecord, ownerID string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		const insertQ = `INSERT INTO blogs (id, title, author, url, likes, user_id) VALUES ($1,$2,$3,$4,$5,NULLIF($6,''))`
		if _, err := tx.Exec(ctx, insertQ, blog.ID, blog.Title, blog.Author, blog.URL, blog.Likes, ownerID); err != nil {
			return err
		}
		const appendQ = `UPDATE users SET blog_ids = array_append(blog_ids, $1) WHERE id=$2`
		_, err := tx.Exec(ctx, appendQ, blog.ID, ownerID)
		return err
	})
}

func (r *PgBlogRepository) DeleteOwned(ctx context.Context, blogID, ownerID string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM blogs WHERE id=$1`, blogID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		const removeQ = `UPDATE users SET blog_ids = array_remove(blog_ids, $1) WHERE id=$2`
		_, err = tx.Exec(ctx, removeQ, blogID, ownerID)
		return err
	})
}

func (r *PgBlogRepository) FindByID(ctx context.Context, id string) (*BlogRecord, error) {
	const q = `SELECT id, title, author, url, likes, COALESCE(user_id, ''), created_at FROM blogs WHERE id=$1`
	var b BlogRecord
	if err := r.db.QueryRow(ctx, q, id).Scan(&b.ID, &b.Title, &b.Author, &b.URL, &b.Likes, &b.UserID, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Update overwrites only the provided fields and returns the new row.
func (r *PgBlogRepository) Update(ctx context.Context, id string, in BlogUpdateInput) (*BlogRecord, error) {
	const q = `UPDATE blogs SET
		title  = COALESCE($2, title),
		author = COALESCE($3, author),
		url    = COALESCE($4, url),
		likes  = COALESCE($5, likes)
	WHERE id=$1
	RETURNING id, title, author, url, likes, COALESCE(user_id, ''), created_at`
	var b BlogRecord
	err := r.db.QueryRow(ctx, q, id, in.Title, in.Author, in.URL, in.Likes).
		Scan(&b.ID, &b.Title, &b.Author, &b.URL, &b.Likes, &b.UserID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListWithOwners returns all blogs in insertion order, each annotated
// with the reduced owner view when an owner exists.
func (r *PgBlogRepository) ListWithOwners(ctx context.Context) ([]BlogRecord, error) {
	const q = `SELECT b.id, b.title, b.author, b.url, b.likes, COALESCE(b.user_id, ''), b.created_at,
		COALESCE(u.username, ''), COALESCE(u.name, '')
	FROM blogs b
	LEFT JOIN users u ON u.id = b.user_id
	ORDER BY b.created_at, b.id`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]BlogRecord, 0)
	for rows.Next() {
		var b BlogRecord
		var ownerUsername, ownerName string
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.URL, &b.Likes, &b.UserID, &b.CreatedAt,
			&ownerUsername, &ownerName); err != nil {
			return nil, err
		}
		if b.UserID != "" {
			b.Owner = &OwnerView{ID: b.UserID, Username: ownerUsername, Name: ownerName}
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *PgBlogRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM blogs`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PgBlogRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM blogs`)
	return err
}
