package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyjsx/journal/internal/db"
)

var _ Repository = (*sqlRepository)(nil)

const postColumns = "id, title, excerpt, content, cover_image, category, published, created_at, updated_at"

type sqlRepository struct {
	db  *db.DB
	now func() time.Time
}

func NewSQLRepository(database *db.DB) Repository {
	return &sqlRepository{db: database, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var p Post
	var excerpt, cover, category sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&excerpt,
		&p.Content,
		&cover,
		&category,
		&p.Published,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Excerpt = excerpt.String
	p.CoverImage = cover.String
	p.Category = category.String
	return &p, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// stamp returns a write timestamp strictly after prev, truncated to the
// microsecond precision Postgres keeps.
func (r *sqlRepository) stamp(prev time.Time) time.Time {
	now := r.now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %s", op, ErrPersistence, db.Describe(err))
}

func (r *sqlRepository) List(ctx context.Context, params ListParams) ([]*Post, error) {
	var (
		where []string
		args  []any
	)
	if params.PublishedOnly {
		where = append(where, "published = ?")
		args = append(args, true)
	}
	if c := strings.TrimSpace(params.Category); c != "" {
		where = append(where, "category = ?")
		args = append(args, c)
	}
	if q := strings.TrimSpace(params.Query); q != "" {
		where = append(where, r.db.Lower("title || ' ' || content")+` LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
	}

	query := "SELECT " + postColumns + " FROM posts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	out := make([]*Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	// SQLite compares DATETIME as text, which misorders fractional seconds.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *sqlRepository) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT "+postColumns+" FROM posts WHERE id = ?"), id)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (r *sqlRepository) Create(ctx context.Context, post *Post) (*Post, error) {
	created := *post
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = r.stamp(time.Time{})
	created.UpdatedAt = created.CreatedAt

	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		"INSERT INTO posts ("+postColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		created.ID,
		created.Title,
		nullable(created.Excerpt),
		created.Content,
		nullable(created.CoverImage),
		nullable(created.Category),
		created.Published,
		created.CreatedAt,
		created.UpdatedAt,
	)
	if err != nil {
		return nil, persistenceError("create post", err)
	}
	return &created, nil
}

func (r *sqlRepository) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Post, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistenceError("begin update", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, r.db.Rebind("SELECT "+postColumns+" FROM posts WHERE id = ?"+r.db.ForUpdate()), id)
	current, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, persistenceError("load post for update", err)
	}

	patch.Apply(current)
	current.UpdatedAt = r.stamp(current.UpdatedAt)

	_, err = tx.ExecContext(ctx, r.db.Rebind(`
		UPDATE posts
		SET title = ?, excerpt = ?, content = ?, cover_image = ?, category = ?, published = ?, updated_at = ?
		WHERE id = ?`),
		current.Title,
		nullable(current.Excerpt),
		current.Content,
		nullable(current.CoverImage),
		nullable(current.Category),
		current.Published,
		current.UpdatedAt,
		id,
	)
	if err != nil {
		return nil, persistenceError("update post", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, persistenceError("commit update", err)
	}
	return current, nil
}

func (r *sqlRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM posts WHERE id = ?"), id)
	if err != nil {
		return persistenceError("delete post", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistenceError("delete post", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlRepository) Categories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT category, COUNT(*)
		FROM posts
		WHERE published = ? AND category IS NOT NULL AND category <> ''
		GROUP BY category
		ORDER BY COUNT(*) DESC, category ASC`), true)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]CategoryCount, 0)
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}
