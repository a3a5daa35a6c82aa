package sponsor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadikoy/service/internal/apperr"
	"github.com/kadikoy/service/internal/media"
	"github.com/kadikoy/service/internal/paging"
	"github.com/kadikoy/service/internal/sport"
)

type memStore struct {
	rows      map[int64]Sponsor
	nextID    int64
	setURLErr error
}

func (m *memStore) List(_ context.Context, f Filter, p paging.Params) ([]Sponsor, int, error) {
	var all []Sponsor
	for id := m.nextID; id >= 1; id-- {
		s, ok := m.rows[id]
		if !ok {
			continue
		}
		if f.Placement != nil && s.Placement != *f.Placement {
			continue
		}
		if f.IsActive != nil && s.IsActive != *f.IsActive {
			continue
		}
		all = append(all, s)
	}
	start := min(p.Offset(), len(all))
	end := min(start+p.Size, len(all))
	return all[start:end], len(all), nil
}

func (m *memStore) Get(_ context.Context, id int64) (*Sponsor, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *memStore) Create(_ context.Context, s *Sponsor) error {
	m.nextID++
	s.ID = m.nextID
	m.rows[s.ID] = *s
	return nil
}

func (m *memStore) Update(_ context.Context, s *Sponsor) error {
	if _, ok := m.rows[s.ID]; !ok {
		return ErrNotFound
	}
	m.rows[s.ID] = *s
	return nil
}

func (m *memStore) SetImageURL(_ context.Context, id int64, img Image, url string) error {
	if m.setURLErr != nil {
		return m.setURLErr
	}
	s, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	if img == ImageLogo {
		s.LogoURL = &url
	} else {
		s.PhotoURL = &url
	}
	m.rows[id] = s
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type fakeRegistry struct {
	nextID   int64
	records  map[int64][]media.Record
	attached []media.AttachInput
	detached []int64
}

func (f *fakeRegistry) Attach(_ context.Context, in media.AttachInput) (*media.Record, error) {
	f.nextID++
	f.attached = append(f.attached, in)
	rec := media.Record{
		ID:      f.nextID,
		OwnerID: in.Owner.ID,
		URL:     "https://cdn.example.com/sponsors/" + in.Category + "/" + string(rune('a'+f.nextID)),
		Kind:    in.Kind,
	}
	f.records[in.Owner.ID] = append(f.records[in.Owner.ID], rec)
	return &rec, nil
}

func (f *fakeRegistry) Detach(_ context.Context, id int64) error {
	f.detached = append(f.detached, id)
	for owner, recs := range f.records {
		for i, r := range recs {
			if r.ID == id {
				f.records[owner] = append(recs[:i], recs[i+1:]...)
				return nil
			}
		}
	}
	return apperr.NotFound("media not found")
}

func (f *fakeRegistry) DetachAll(_ context.Context, owner media.Owner) (int, error) {
	n := len(f.records[owner.ID])
	for _, r := range f.records[owner.ID] {
		f.detached = append(f.detached, r.ID)
	}
	delete(f.records, owner.ID)
	return n, nil
}

func (f *fakeRegistry) RecordsFor(_ context.Context, _ media.OwnerType, ids []int64) (map[int64][]media.Record, error) {
	out := map[int64][]media.Record{}
	for _, id := range ids {
		out[id] = append([]media.Record(nil), f.records[id]...)
	}
	return out, nil
}

func newTestService() (*Service, *memStore, *fakeRegistry) {
	store := &memStore{rows: map[int64]Sponsor{}}
	reg := &fakeRegistry{records: map[int64][]media.Record{}}
	return NewService(store, reg, zerolog.Nop()), store, reg
}

func strPtr(s string) *string { return &s }

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()

	vb := sport.Volleyball
	sp, err := svc.Create(context.Background(), CreateInput{Name: " Bakery ", SportType: &vb, WebsiteURL: strPtr("https://bakery.example.com")})
	require.NoError(t, err)
	assert.Equal(t, "Bakery", sp.Name)
	assert.True(t, sp.IsActive)

	cases := map[string]CreateInput{
		"no name":       {Name: "  "},
		"bad placement": {Name: "x", Placement: 5},
		"bad url":       {Name: "x", WebsiteURL: strPtr("ftp://example.com")},
		"relative url":  {Name: "x", LogoURL: strPtr("/logo.png")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestListPagingAndFilter(t *testing.T) {
	svc, _, _ := newTestService()
	for i := 0; i < 12; i++ {
		p := PlacementBanner
		if i%3 == 0 {
			p = PlacementSidebar
		}
		_, err := svc.Create(context.Background(), CreateInput{Name: "s", Placement: p})
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), Filter{}, paging.Normalize(2, 5))
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(7), page.Data[0].ID)

	side := PlacementSidebar
	page, err = svc.List(context.Background(), Filter{Placement: &side}, paging.Normalize(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalCount)
}

func TestUpdateKeepsImageOnBlankURL(t *testing.T) {
	svc, _, _ := newTestService()
	sp, err := svc.Create(context.Background(), CreateInput{Name: "Bakery", LogoURL: strPtr("https://cdn.example.com/logo.png")})
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), sp.ID, UpdateInput{LogoURL: strPtr(" "), Name: strPtr("Bakery Co")})
	require.NoError(t, err)
	assert.Equal(t, "Bakery Co", got.Name)
	require.NotNil(t, got.LogoURL)
	assert.Equal(t, "https://cdn.example.com/logo.png", *got.LogoURL)
}

func TestSetImageReplacesPreviousRecord(t *testing.T) {
	svc, _, reg := newTestService()
	sp, err := svc.Create(context.Background(), CreateInput{Name: "Bakery"})
	require.NoError(t, err)

	first, err := svc.SetImage(context.Background(), sp.ID, ImageLogo, media.File{Name: "a.png"}, "admin")
	require.NoError(t, err)
	require.NotNil(t, first.LogoURL)
	assert.Equal(t, media.SponsorLogos, reg.attached[0].Category)
	assert.Empty(t, reg.detached)

	second, err := svc.SetImage(context.Background(), sp.ID, ImageLogo, media.File{Name: "b.png"}, "admin")
	require.NoError(t, err)
	assert.NotEqual(t, *first.LogoURL, *second.LogoURL)
	assert.Equal(t, []int64{1}, reg.detached)
	assert.Len(t, second.Media, 1)

	photo, err := svc.SetImage(context.Background(), sp.ID, ImagePhoto, media.File{Name: "p.jpg"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, media.SponsorPhotos, reg.attached[2].Category)
	assert.Equal(t, *second.LogoURL, *photo.LogoURL)
	assert.Len(t, photo.Media, 2)
}

func TestSetImagePersistenceFailure(t *testing.T) {
	svc, store, reg := newTestService()
	sp, err := svc.Create(context.Background(), CreateInput{Name: "Bakery"})
	require.NoError(t, err)
	store.setURLErr = errors.New("connection reset")

	_, err = svc.SetImage(context.Background(), sp.ID, ImagePhoto, media.File{Name: "p.jpg"}, "admin")
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	require.Len(t, reg.attached, 1)
	assert.Equal(t, []int64{1}, reg.detached)
	assert.Empty(t, reg.records[sp.ID])
	assert.Nil(t, store.rows[sp.ID].PhotoURL)

	_, err = svc.SetImage(context.Background(), 99, ImagePhoto, media.File{Name: "p.jpg"}, "admin")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Len(t, reg.attached, 1)
}

func TestSetImageOnSponsorDeletedMidUpload(t *testing.T) {
	svc, store, reg := newTestService()
	sp, err := svc.Create(context.Background(), CreateInput{Name: "Bakery"})
	require.NoError(t, err)
	store.setURLErr = ErrNotFound

	_, err = svc.SetImage(context.Background(), sp.ID, ImageLogo, media.File{Name: "l.png"}, "admin")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, []int64{1}, reg.detached)
	assert.Empty(t, reg.records[sp.ID])
}

func TestDeleteCascades(t *testing.T) {
	svc, store, reg := newTestService()
	sp, err := svc.Create(context.Background(), CreateInput{Name: "Bakery"})
	require.NoError(t, err)
	_, err = svc.AttachMedia(context.Background(), sp.ID, media.KindPhoto, 0, media.File{Name: "x.jpg"}, "admin")
	require.NoError(t, err)
	_, err = svc.AttachMedia(context.Background(), sp.ID, media.KindVideo, 1, media.File{Name: "x.mp4"}, "admin")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), sp.ID))
	assert.ElementsMatch(t, []int64{1, 2}, reg.detached)
	assert.Empty(t, store.rows)
}
