package sponsor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kadikoy/service/internal/paging"
)

// ErrNotFound is returned when a sponsor does not exist.
var ErrNotFound = errors.New("sponsor not found")

const sponsorColumns = `id, name, description, sport_type, placement, photo_url, logo_url, website_url,
	is_active, created_at, updated_at`

// Repository handles all sponsor database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List returns one page of sponsors matching f, newest first, and the
// number of matching sponsors.
func (r *Repository) List(ctx context.Context, f Filter, p paging.Params) ([]Sponsor, int, error) {
	where, args := f.where()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sponsors`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sponsors: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	args = append(args, p.Size, p.Offset())
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM sponsors%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
			sponsorColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list sponsors: %w", err)
	}
	sponsors, err := pgx.CollectRows(rows, scanSponsor)
	if err != nil {
		return nil, 0, fmt.Errorf("list sponsors: %w", err)
	}
	return sponsors, total, nil
}

// Get fetches a sponsor by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Sponsor, error) {
	rows, err := r.db.Query(ctx, `SELECT `+sponsorColumns+` FROM sponsors WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get sponsor: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSponsor)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sponsor: %w", err)
	}
	return &s, nil
}

// Create inserts s and fills in its id and created time.
func (r *Repository) Create(ctx context.Context, s *Sponsor) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO sponsors (name, description, sport_type, placement, photo_url, logo_url, website_url, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		s.Name, s.Description, s.SportType, s.Placement, s.PhotoURL, s.LogoURL, s.WebsiteURL, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create sponsor: %w", err)
	}
	return nil
}

// Update writes every editable column of s and stamps updated_at.
func (r *Repository) Update(ctx context.Context, s *Sponsor) error {
	err := r.db.QueryRow(ctx,
		`UPDATE sponsors
		 SET name = $2, description = $3, sport_type = $4, placement = $5, photo_url = $6,
		     logo_url = $7, website_url = $8, is_active = $9, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		s.ID, s.Name, s.Description, s.SportType, s.Placement, s.PhotoURL, s.LogoURL, s.WebsiteURL, s.IsActive,
	).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update sponsor: %w", err)
	}
	return nil
}

// SetImageURL stores url in the photo or logo column.
func (r *Repository) SetImageURL(ctx context.Context, id int64, img Image, url string) error {
	column := "photo_url"
	if img == ImageLogo {
		column = "logo_url"
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE sponsors SET `+column+` = $2, updated_at = now() WHERE id = $1`,
		id, url,
	)
	if err != nil {
		return fmt.Errorf("set sponsor %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a sponsor by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sponsors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sponsor: %w", err)
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
	if f.Placement != nil {
		add("placement", *f.Placement)
	}
	if f.IsActive != nil {
		add("is_active", *f.IsActive)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanSponsor(row pgx.CollectableRow) (Sponsor, error) {
	var s Sponsor
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.SportType, &s.Placement, &s.PhotoURL,
		&s.LogoURL, &s.WebsiteURL, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
