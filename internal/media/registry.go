package media

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kadikoy/service/internal/apperr"
	"github.com/kadikoy/service/internal/metrics"
	"github.com/kadikoy/service/internal/storage"
)

// detachWorkers bounds concurrent object deletes during an entity cascade.
const detachWorkers = 4

// ErrNotFound is returned by a RecordRepository when a record does not exist.
var ErrNotFound = errors.New("media record not found")

// RecordRepository persists media records.
type RecordRepository interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id int64) (*Record, error)
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, owner Owner) ([]Record, error)
	ListByOwners(ctx context.Context, ownerType OwnerType, ids []int64) (map[int64][]Record, error)
	CountPhotosBySport(ctx context.Context) (map[int]int, error)
}

// Policies are the validation rules for photos and videos.
type Policies struct {
	Default Policy
	Video   Policy
}

// AttachInput describes a media upload for a content entity.
type AttachInput struct {
	Owner      Owner
	Domain     Domain
	Category   string
	Kind       Kind
	Order      int
	File       File
	UploadedBy string
}

// Registry coordinates validation, naming, the object store and media records.
type Registry struct {
	store    storage.ObjectStore
	records  RecordRepository
	namer    *Namer
	policies Policies
	log      zerolog.Logger
	now      func() time.Time
}

// NewRegistry wires a Registry.
func NewRegistry(store storage.ObjectStore, records RecordRepository, namer *Namer, policies Policies, log zerolog.Logger) *Registry {
	return &Registry{
		store:    store,
		records:  records,
		namer:    namer,
		policies: policies,
		log:      log.With().Str("component", "media-registry").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Namer returns the registry's key naming scheme.
func (r *Registry) Namer() *Namer { return r.namer }

// Upload validates f and stores it as a loose object (gallery photos).
func (r *Registry) Upload(ctx context.Context, d Domain, category string, f File) (*StoredObject, error) {
	return r.put(ctx, d, category, f, r.policies.Default)
}

// List returns the objects in folder.
func (r *Registry) List(ctx context.Context, folder string) ([]StoredObject, error) {
	if err := r.checkFolder(folder); err != nil {
		return nil, err
	}
	names, err := r.store.List(ctx, folder)
	if err != nil {
		return nil, asStorage("could not list objects", err)
	}
	out := make([]StoredObject, 0, len(names))
	for _, name := range names {
		out = append(out, StoredObject{
			Key:    folder + name,
			Folder: folder,
			Name:   name,
			URL:    r.store.BuildURL(name, folder),
		})
	}
	return out, nil
}

// URL returns the public URL of name in folder without contacting the store.
func (r *Registry) URL(folder, name string) (string, error) {
	if err := r.checkFolder(folder); err != nil {
		return "", err
	}
	if err := checkName(name); err != nil {
		return "", err
	}
	return r.store.BuildURL(name, folder), nil
}

// LooseDomain maps a folder to the domain of loose objects stored there. Only
// the gallery holds loose objects; other folders back media records and are
// changed through Attach and Detach. An empty folder means the gallery.
func (r *Registry) LooseDomain(folder string) (Domain, error) {
	if folder == "" || folder == r.namer.GalleryFolder() {
		return DomainGallery, nil
	}
	if err := r.checkFolder(folder); err != nil {
		return 0, err
	}
	return 0, apperr.Validationf("files under %q are managed through their news or sponsor media", folder)
}

// Remove deletes the loose object name in folder.
func (r *Registry) Remove(ctx context.Context, folder, name string) error {
	if _, err := r.LooseDomain(folder); err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, folder+name); err != nil {
		r.log.Error().Err(err).Str("key", folder+name).Msg("object delete failed")
		return asStorage("could not delete object", err)
	}
	r.log.Info().Str("key", folder+name).Msg("object deleted")
	return nil
}

// Attach uploads a file for a content entity and records it. When the record
// cannot be saved, the uploaded object is deleted again on a best-effort basis.
func (r *Registry) Attach(ctx context.Context, in AttachInput) (*Record, error) {
	policy := r.policies.Default
	if in.Kind == KindVideo {
		policy = r.policies.Video
	}

	obj, err := r.put(ctx, in.Domain, in.Category, in.File, policy)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		OwnerType:   in.Owner.Type,
		OwnerID:     in.Owner.ID,
		Kind:        in.Kind,
		Key:         obj.Key,
		URL:         obj.URL,
		FileName:    in.File.Name,
		FileSize:    obj.Size,
		ContentType: obj.ContentType,
		Order:       in.Order,
		UploadedAt:  obj.UploadedAt,
		UploadedBy:  in.UploadedBy,
	}

	ctx = context.WithoutCancel(ctx)
	if err := r.records.Create(ctx, rec); err != nil {
		log := r.log.With().Str("key", obj.Key).Str("owner", string(in.Owner.Type)).Int64("owner_id", in.Owner.ID).Logger()
		if derr := r.store.Delete(ctx, obj.Key); derr != nil {
			metrics.RecordOrphan("compensation_failed")
			log.Warn().Err(derr).Msg("orphaned object: record insert failed and compensating delete failed")
		} else {
			log.Info().Msg("compensating delete after failed record insert")
		}
		return nil, apperr.Persistence("could not save media record", err)
	}

	r.log.Info().
		Int64("media_id", rec.ID).
		Str("owner", string(rec.OwnerType)).
		Int64("owner_id", rec.OwnerID).
		Str("key", rec.Key).
		Msg("media attached")
	return rec, nil
}

// Detach deletes a media record and its object. A failed object delete is
// logged and the record is removed anyway.
func (r *Registry) Detach(ctx context.Context, id int64) error {
	rec, err := r.records.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("media not found")
	}
	if err != nil {
		return apperr.Persistence("could not load media record", err)
	}
	return r.detach(context.WithoutCancel(ctx), rec)
}

// DetachAll applies the Detach flow to every record of owner. Failures are
// logged per record and never stop the others. It returns how many records
// were removed.
func (r *Registry) DetachAll(ctx context.Context, owner Owner) (int, error) {
	recs, err := r.records.ListByOwner(ctx, owner)
	if err != nil {
		return 0, apperr.Persistence("could not list media records", err)
	}

	ctx = context.WithoutCancel(ctx)
	removed := make([]bool, len(recs))
	var g errgroup.Group
	g.SetLimit(detachWorkers)
	for i := range recs {
		rec := &recs[i]
		g.Go(func() error {
			if err := r.detach(ctx, rec); err != nil {
				r.log.Error().Err(err).Int64("media_id", rec.ID).Str("key", rec.Key).Msg("cascade detach failed")
				return nil
			}
			removed[i] = true
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range removed {
		if ok {
			n++
		}
	}
	return n, nil
}

// RecordsFor returns the records of the given owners, keyed by owner id.
func (r *Registry) RecordsFor(ctx context.Context, ownerType OwnerType, ids []int64) (map[int64][]Record, error) {
	if len(ids) == 0 {
		return map[int64][]Record{}, nil
	}
	recs, err := r.records.ListByOwners(ctx, ownerType, ids)
	if err != nil {
		return nil, apperr.Persistence("could not load media records", err)
	}
	return recs, nil
}

// PhotoCountsBySport counts news photos per sport type value.
func (r *Registry) PhotoCountsBySport(ctx context.Context) (map[int]int, error) {
	counts, err := r.records.CountPhotosBySport(ctx)
	if err != nil {
		return nil, apperr.Persistence("could not count photos", err)
	}
	return counts, nil
}

func (r *Registry) detach(ctx context.Context, rec *Record) error {
	if err := r.store.Delete(ctx, rec.Key); err != nil {
		metrics.RecordOrphan("delete_failed")
		r.log.Warn().Err(err).Int64("media_id", rec.ID).Str("key", rec.Key).
			Msg("object delete failed, removing media record anyway")
	}
	if err := r.records.Delete(ctx, rec.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return apperr.Persistence("could not delete media record", err)
	}
	r.log.Info().Int64("media_id", rec.ID).Str("key", rec.Key).Msg("media detached")
	return nil
}

func (r *Registry) put(ctx context.Context, d Domain, category string, f File, policy Policy) (*StoredObject, error) {
	if err := policy.Validate(f); err != nil {
		metrics.RecordUpload(d.String(), "rejected", f.Size)
		return nil, err
	}

	folder, name, err := r.namer.DeriveKey(d, category, Extension(f.Name))
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	key := folder + name

	url, err := r.store.Upload(context.WithoutCancel(ctx), key, f.Body, f.Size, f.ContentType)
	if err != nil {
		metrics.RecordUpload(d.String(), "error", f.Size)
		r.log.Error().Err(err).Str("key", key).Str("file", f.Name).Msg("upload failed")
		return nil, asStorage("could not upload file", err)
	}
	metrics.RecordUpload(d.String(), "success", f.Size)
	r.log.Info().Str("key", key).Str("file", f.Name).Int64("bytes", f.Size).Msg("object uploaded")

	return &StoredObject{
		Key:         key,
		Folder:      folder,
		Name:        name,
		URL:         url,
		Size:        f.Size,
		ContentType: f.ContentType,
		UploadedAt:  r.now(),
	}, nil
}

func (r *Registry) checkFolder(folder string) error {
	if !r.namer.IsKnownFolder(folder) {
		return apperr.Validationf("unknown folder %q", folder)
	}
	return nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return apperr.Validation("invalid file name")
	}
	return nil
}

// asStorage classifies an unclassified store error as a storage failure.
func asStorage(msg string, err error) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	return apperr.Storage(msg, err)
}
