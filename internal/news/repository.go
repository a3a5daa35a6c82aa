package news

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kadikoy/service/internal/paging"
)

// ErrNotFound is returned when an article does not exist.
var ErrNotFound = errors.New("news not found")

const articleColumns = `id, title, content, sport_type, news_type, published_at, created_at, updated_at, is_active`

// Repository handles all news database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List returns one page of articles matching f, newest first, and the
// number of matching articles.
func (r *Repository) List(ctx context.Context, f Filter, p paging.Params) ([]Article, int, error) {
	where, args := f.where()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM news`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count news: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	args = append(args, p.Size, p.Offset())
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM news%s ORDER BY published_at DESC, id DESC LIMIT $%d OFFSET $%d`,
			articleColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list news: %w", err)
	}
	articles, err := pgx.CollectRows(rows, scanArticle)
	if err != nil {
		return nil, 0, fmt.Errorf("list news: %w", err)
	}
	return articles, total, nil
}

// Get fetches an article by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Article, error) {
	rows, err := r.db.Query(ctx, `SELECT `+articleColumns+` FROM news WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get news: %w", err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanArticle)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get news: %w", err)
	}
	return &a, nil
}

// Create inserts a and fills in its id and created time.
func (r *Repository) Create(ctx context.Context, a *Article) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO news (title, content, sport_type, news_type, published_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		a.Title, a.Content, a.SportType, a.NewsType, a.PublishedAt, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create news: %w", err)
	}
	return nil
}

// Update writes every editable column of a and stamps updated_at.
func (r *Repository) Update(ctx context.Context, a *Article) error {
	err := r.db.QueryRow(ctx,
		`UPDATE news
		 SET title = $2, content = $3, sport_type = $4, news_type = $5,
		     published_at = $6, is_active = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		a.ID, a.Title, a.Content, a.SportType, a.NewsType, a.PublishedAt, a.IsActive,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	return nil
}

// Delete removes an article by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (f Filter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if f.SportType != nil {
		add("sport_type", *f.SportType)
	}
	if f.NewsType != nil {
		add("news_type", *f.NewsType)
	}
	if f.IsActive != nil {
		add("is_active", *f.IsActive)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanArticle(row pgx.CollectableRow) (Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.SportType, &a.NewsType,
		&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt, &a.IsActive)
	return a, err
}
