package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `id, owner_type, owner_id, kind, object_key, url, file_name, file_size,
	content_type, sort_order, uploaded_at, uploaded_by`

// Repository handles media_records persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts rec and fills in its id.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO media_records
		   (owner_type, owner_id, kind, object_key, url, file_name, file_size,
		    content_type, sort_order, uploaded_at, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		rec.OwnerType, rec.OwnerID, rec.Kind, rec.Key, rec.URL, rec.FileName, rec.FileSize,
		rec.ContentType, rec.Order, rec.UploadedAt, rec.UploadedBy,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert media record: %w", err)
	}
	return nil
}

// Get fetches a record by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+recordColumns+` FROM media_records WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get media record: %w", err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanRecord)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media record: %w", err)
	}
	return &rec, nil
}

// Delete removes a record by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner returns an owner's records in display order.
func (r *Repository) ListByOwner(ctx context.Context, owner Owner) ([]Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+` FROM media_records
		 WHERE owner_type = $1 AND owner_id = $2
		 ORDER BY sort_order, id`,
		owner.Type, owner.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list media records: %w", err)
	}
	recs, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("list media records: %w", err)
	}
	return recs, nil
}

// ListByOwners returns the records of many owners of one type, grouped by owner id.
func (r *Repository) ListByOwners(ctx context.Context, ownerType OwnerType, ids []int64) (map[int64][]Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+` FROM media_records
		 WHERE owner_type = $1 AND owner_id = ANY($2)
		 ORDER BY owner_id, sort_order, id`,
		ownerType, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("list media records: %w", err)
	}
	recs, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("list media records: %w", err)
	}
	out := make(map[int64][]Record, len(ids))
	for _, rec := range recs {
		out[rec.OwnerID] = append(out[rec.OwnerID], rec)
	}
	return out, nil
}

// CountPhotosBySport counts news photos grouped by the article's sport type.
func (r *Repository) CountPhotosBySport(ctx context.Context) (map[int]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT n.sport_type, COUNT(*)
		 FROM media_records m
		 JOIN news n ON n.id = m.owner_id
		 WHERE m.owner_type = $1 AND m.kind = $2
		 GROUP BY n.sport_type`,
		OwnerNews, KindPhoto,
	)
	if err != nil {
		return nil, fmt.Errorf("count photos: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var sportType, n int
		if err := rows.Scan(&sportType, &n); err != nil {
			return nil, fmt.Errorf("scan photo count: %w", err)
		}
		out[sportType] = n
	}
	return out, rows.Err()
}

func scanRecord(row pgx.CollectableRow) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.OwnerType, &rec.OwnerID, &rec.Kind, &rec.Key, &rec.URL,
		&rec.FileName, &rec.FileSize, &rec.ContentType, &rec.Order, &rec.UploadedAt, &rec.UploadedBy)
	return rec, err
}
