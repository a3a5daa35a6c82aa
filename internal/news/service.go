package news

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/kadikoy/service/internal/apperr"
	"github.com/kadikoy/service/internal/media"
	"github.com/kadikoy/service/internal/paging"
	"github.com/kadikoy/service/internal/sport"
)

// Store is the article persistence the Service needs.
type Store interface {
	List(ctx context.Context, f Filter, p paging.Params) ([]Article, int, error)
	Get(ctx context.Context, id int64) (*Article, error)
	Create(ctx context.Context, a *Article) error
	Update(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id int64) error
}

// MediaRegistry is the part of media.Registry articles use.
type MediaRegistry interface {
	Attach(ctx context.Context, in media.AttachInput) (*media.Record, error)
	DetachAll(ctx context.Context, owner media.Owner) (int, error)
	RecordsFor(ctx context.Context, ownerType media.OwnerType, ids []int64) (map[int64][]media.Record, error)
	PhotoCountsBySport(ctx context.Context) (map[int]int, error)
}

// MediaUpload is one file attached to an article.
type MediaUpload struct {
	Kind       media.Kind
	Order      int
	File       media.File
	UploadedBy string
}

// Service contains business logic for news articles.
type Service struct {
	repo  Store
	media MediaRegistry
	log   zerolog.Logger
	now   func() time.Time
}

// NewService creates a new news Service.
func NewService(repo Store, registry MediaRegistry, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		media: registry,
		log:   log.With().Str("component", "news-service").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of articles with their media.
func (s *Service) List(ctx context.Context, f Filter, p paging.Params) (paging.Page[Article], error) {
	articles, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return paging.Page[Article]{}, apperr.Persistence("could not list news", err)
	}

	ids := make([]int64, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	recs, err := s.media.RecordsFor(ctx, media.OwnerNews, ids)
	if err != nil {
		return paging.Page[Article]{}, err
	}
	for i := range articles {
		articles[i].Media = recs[articles[i].ID]
	}
	return paging.NewPage(p, total, articles), nil
}

// Get returns one article with its media.
func (s *Service) Get(ctx context.Context, id int64) (*Article, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	recs, err := s.media.RecordsFor(ctx, media.OwnerNews, []int64{id})
	if err != nil {
		return nil, err
	}
	a.Media = recs[id]
	return a, nil
}

// Create stores a new article. PublishedAt defaults to now and IsActive to true.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Article, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	a := &Article{
		Title:       in.Title,
		Content:     in.Content,
		SportType:   in.SportType,
		NewsType:    in.NewsType,
		PublishedAt: s.now(),
		IsActive:    true,
	}
	if in.PublishedAt != nil {
		a.PublishedAt = in.PublishedAt.UTC()
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperr.Persistence("could not create news", err)
	}
	s.log.Info().Int64("news_id", a.ID).Str("sport", a.SportType.Slug()).Msg("news created")
	return a, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Article, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(a)
	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("news not found")
		}
		return nil, apperr.Persistence("could not update news", err)
	}
	return s.Get(ctx, id)
}

// Delete removes an article after detaching all of its media. Media whose
// object delete fails is still detached.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	n, err := s.media.DetachAll(ctx, media.Owner{Type: media.OwnerNews, ID: id})
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("news not found")
		}
		return apperr.Persistence("could not delete news", err)
	}
	s.log.Info().Int64("news_id", id).Int("media_removed", n).Msg("news deleted")
	return nil
}

// AttachMedia uploads a photo or video for an article into the folder of the
// article's sport type.
func (s *Service) AttachMedia(ctx context.Context, id int64, up MediaUpload) (*media.Record, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.media.Attach(ctx, media.AttachInput{
		Owner:      media.Owner{Type: media.OwnerNews, ID: id},
		Domain:     media.DomainNews,
		Category:   a.SportType.Slug(),
		Kind:       up.Kind,
		Order:      up.Order,
		File:       up.File,
		UploadedBy: up.UploadedBy,
	})
}

// PhotoStats counts news photos in total and per sport type. Every sport
// type is listed, with zero when it has no photos.
func (s *Service) PhotoStats(ctx context.Context) (*PhotoStats, error) {
	counts, err := s.media.PhotoCountsBySport(ctx)
	if err != nil {
		return nil, err
	}
	stats := &PhotoStats{BySportType: make([]SportCount, 0, len(sport.Types))}
	for _, t := range sport.Types {
		n := counts[int(t)]
		stats.TotalPhotos += n
		stats.BySportType = append(stats.BySportType, SportCount{SportType: t, SportTypeName: t.String(), Count: n})
	}
	return stats, nil
}

func (s *Service) get(ctx context.Context, id int64) (*Article, error) {
	a, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("news not found")
	}
	if err != nil {
		return nil, apperr.Persistence("could not load news", err)
	}
	return a, nil
}
