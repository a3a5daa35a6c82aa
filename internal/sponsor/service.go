package sponsor

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/kadikoy/service/internal/apperr"
	"github.com/kadikoy/service/internal/media"
	"github.com/kadikoy/service/internal/paging"
)

// Store is the sponsor persistence the Service needs.
type Store interface {
	List(ctx context.Context, f Filter, p paging.Params) ([]Sponsor, int, error)
	Get(ctx context.Context, id int64) (*Sponsor, error)
	Create(ctx context.Context, s *Sponsor) error
	Update(ctx context.Context, s *Sponsor) error
	SetImageURL(ctx context.Context, id int64, img Image, url string) error
	Delete(ctx context.Context, id int64) error
}

// MediaRegistry is the part of media.Registry sponsors use.
type MediaRegistry interface {
	Attach(ctx context.Context, in media.AttachInput) (*media.Record, error)
	Detach(ctx context.Context, id int64) error
	DetachAll(ctx context.Context, owner media.Owner) (int, error)
	RecordsFor(ctx context.Context, ownerType media.OwnerType, ids []int64) (map[int64][]media.Record, error)
}

// Service contains business logic for sponsors.
type Service struct {
	repo  Store
	media MediaRegistry
	log   zerolog.Logger
}

// NewService creates a new sponsor Service.
func NewService(repo Store, registry MediaRegistry, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		media: registry,
		log:   log.With().Str("component", "sponsor-service").Logger(),
	}
}

// List returns one page of sponsors with their media.
func (s *Service) List(ctx context.Context, f Filter, p paging.Params) (paging.Page[Sponsor], error) {
	sponsors, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return paging.Page[Sponsor]{}, apperr.Persistence("could not list sponsors", err)
	}

	ids := make([]int64, len(sponsors))
	for i, sp := range sponsors {
		ids[i] = sp.ID
	}
	recs, err := s.media.RecordsFor(ctx, media.OwnerSponsor, ids)
	if err != nil {
		return paging.Page[Sponsor]{}, err
	}
	for i := range sponsors {
		sponsors[i].Media = recs[sponsors[i].ID]
	}
	return paging.NewPage(p, total, sponsors), nil
}

// Get returns one sponsor with its media.
func (s *Service) Get(ctx context.Context, id int64) (*Sponsor, error) {
	sp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	recs, err := s.media.RecordsFor(ctx, media.OwnerSponsor, []int64{id})
	if err != nil {
		return nil, err
	}
	sp.Media = recs[id]
	return sp, nil
}

// Create stores a new sponsor. IsActive defaults to true.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sponsor, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	sp := &Sponsor{
		Name:        in.Name,
		Description: in.Description,
		SportType:   in.SportType,
		Placement:   in.Placement,
		PhotoURL:    in.PhotoURL,
		LogoURL:     in.LogoURL,
		WebsiteURL:  in.WebsiteURL,
		IsActive:    true,
	}
	if in.IsActive != nil {
		sp.IsActive = *in.IsActive
	}
	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, apperr.Persistence("could not create sponsor", err)
	}
	s.log.Info().Int64("sponsor_id", sp.ID).Str("name", sp.Name).Msg("sponsor created")
	return sp, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Sponsor, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	sp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(sp)
	if err := s.repo.Update(ctx, sp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("sponsor not found")
		}
		return nil, apperr.Persistence("could not update sponsor", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a sponsor after detaching all of its media.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	n, err := s.media.DetachAll(ctx, media.Owner{Type: media.OwnerSponsor, ID: id})
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("sponsor not found")
		}
		return apperr.Persistence("could not delete sponsor", err)
	}
	s.log.Info().Int64("sponsor_id", id).Int("media_removed", n).Msg("sponsor deleted")
	return nil
}

// AttachMedia uploads an extra photo or video for a sponsor.
func (s *Service) AttachMedia(ctx context.Context, id int64, kind media.Kind, order int, f media.File, by string) (*media.Record, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	return s.media.Attach(ctx, media.AttachInput{
		Owner:      media.Owner{Type: media.OwnerSponsor, ID: id},
		Domain:     media.DomainSponsor,
		Category:   media.SponsorPhotos,
		Kind:       kind,
		Order:      order,
		File:       f,
		UploadedBy: by,
	})
}

// SetImage uploads the sponsor's photo or logo and points the sponsor at it.
// The media record that backed the previous image, if any, is detached.
func (s *Service) SetImage(ctx context.Context, id int64, img Image, f media.File, by string) (*Sponsor, error) {
	sp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := sp.PhotoURL
	if img == ImageLogo {
		previous = sp.LogoURL
	}

	rec, err := s.media.Attach(ctx, media.AttachInput{
		Owner:      media.Owner{Type: media.OwnerSponsor, ID: id},
		Domain:     media.DomainSponsor,
		Category:   img.Category(),
		Kind:       media.KindPhoto,
		File:       f,
		UploadedBy: by,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetImageURL(context.WithoutCancel(ctx), id, img, rec.URL); err != nil {
		if derr := s.media.Detach(context.WithoutCancel(ctx), rec.ID); derr != nil {
			s.log.Warn().Err(derr).Int64("sponsor_id", id).Int64("media_id", rec.ID).
				Msg("could not remove image after failed sponsor update")
		}
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("sponsor not found")
		}
		s.log.Error().Err(err).Int64("sponsor_id", id).Int64("media_id", rec.ID).
			Str("image", img.Category()).Msg("uploaded image but could not update sponsor")
		return nil, apperr.Persistence("could not update sponsor image", err)
	}

	if previous != nil && *previous != "" {
		s.detachByURL(ctx, id, *previous, rec.ID)
	}
	return s.Get(ctx, id)
}

// detachByURL detaches the sponsor record stored at url, except keep.
// Images set by plain URL have no record and are left alone.
func (s *Service) detachByURL(ctx context.Context, id int64, url string, keep int64) {
	recs, err := s.media.RecordsFor(ctx, media.OwnerSponsor, []int64{id})
	if err != nil {
		s.log.Warn().Err(err).Int64("sponsor_id", id).Msg("could not look up previous image")
		return
	}
	for _, rec := range recs[id] {
		if rec.URL != url || rec.ID == keep {
			continue
		}
		if err := s.media.Detach(ctx, rec.ID); err != nil {
			s.log.Warn().Err(err).Int64("media_id", rec.ID).Msg("could not detach previous image")
		}
	}
}

func (s *Service) get(ctx context.Context, id int64) (*Sponsor, error) {
	sp, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("sponsor not found")
	}
	if err != nil {
		return nil, apperr.Persistence("could not load sponsor", err)
	}
	return sp, nil
}
