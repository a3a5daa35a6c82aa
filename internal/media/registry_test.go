package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadikoy/service/internal/apperr"
)

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   int
	deletes   int
	uploadErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.objects[key] = b
	return "https://bucket.example.com/" + key, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, strings.TrimPrefix(k, prefix))
		}
	}
	return out, nil
}

func (s *fakeStore) BuildURL(name, folder string) string {
	return "https://bucket.example.com/" + folder + name
}

type fakeRecords struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]Record
	creates   int
	createErr error
	deleteErr error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{rows: make(map[int64]Record)}
}

func (f *fakeRecords) Create(_ context.Context, rec *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	rec.ID = f.nextID
	f.rows[rec.ID] = *rec
	return nil
}

func (f *fakeRecords) Get(_ context.Context, id int64) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (f *fakeRecords) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRecords) ListByOwner(_ context.Context, owner Owner) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Record
	for _, r := range f.rows {
		if r.OwnerType == owner.Type && r.OwnerID == owner.ID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) ListByOwners(_ context.Context, ownerType OwnerType, ids []int64) (map[int64][]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64][]Record)
	for _, id := range ids {
		for _, r := range f.rows {
			if r.OwnerType == ownerType && r.OwnerID == id {
				out[id] = append(out[id], r)
			}
		}
	}
	return out, nil
}

func (f *fakeRecords) CountPhotosBySport(context.Context) (map[int]int, error) {
	return map[int]int{}, nil
}

type fixture struct {
	store   *fakeStore
	records *fakeRecords
	reg     *Registry
	logs    *bytes.Buffer
}

func newFixture() *fixture {
	store := newFakeStore()
	records := newFakeRecords()
	logs := &bytes.Buffer{}
	policies := Policies{
		Default: NewPolicy(10*mb, imageExts),
		Video:   NewPolicy(100*mb, []string{".mp4"}),
	}
	reg := NewRegistry(store, records, NewNamer("gallery/"), policies, zerolog.New(logs))
	return &fixture{store: store, records: records, reg: reg, logs: logs}
}

func (f *fixture) warnings(msg string) int {
	n := 0
	for _, line := range strings.Split(f.logs.String(), "\n") {
		if strings.Contains(line, `"level":"warn"`) && strings.Contains(line, msg) {
			n++
		}
	}
	return n
}

func payload(size int) File {
	return File{Name: "match.jpg", Size: int64(size), ContentType: "image/jpeg", Body: bytes.NewReader(make([]byte, size))}
}

func TestUploadGalleryPhoto(t *testing.T) {
	f := newFixture()

	obj, err := f.reg.Upload(context.Background(), DomainGallery, "", payload(2*mb))
	require.NoError(t, err)

	assert.Equal(t, "gallery/", obj.Folder)
	assert.Contains(t, obj.URL, "gallery/")
	assert.True(t, strings.HasSuffix(obj.URL, ".jpg"))
	assert.Equal(t, int64(2*mb), obj.Size)
	assert.Len(t, f.store.objects, 1)
	assert.Equal(t, 0, f.records.creates)
}

func TestUploadRejectedBeforeAnyIO(t *testing.T) {
	f := newFixture()

	exe := File{Name: "setup.exe", Size: 1024, ContentType: "application/x-msdownload", Body: strings.NewReader("MZ")}
	_, err := f.reg.Upload(context.Background(), DomainGallery, "", exe)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), ".jpg, .jpeg, .png, .gif, .webp")

	_, err = f.reg.Attach(context.Background(), AttachInput{
		Owner: Owner{Type: OwnerNews, ID: 1}, Domain: DomainNews, Category: "archery", File: exe,
	})
	require.Error(t, err)

	assert.Equal(t, 0, f.store.uploads)
	assert.Equal(t, 0, f.records.creates)
}

func TestUploadKeysAreUnique(t *testing.T) {
	f := newFixture()
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		obj, err := f.reg.Upload(context.Background(), DomainGallery, "", payload(10))
		require.NoError(t, err)
		require.False(t, seen[obj.Key], "duplicate key %s", obj.Key)
		seen[obj.Key] = true
	}
}

func TestUploadStorageFailure(t *testing.T) {
	f := newFixture()
	f.store.uploadErr = errors.New("503 slow down")

	_, err := f.reg.Upload(context.Background(), DomainGallery, "", payload(10))
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
}

func TestAttachUsesVideoPolicy(t *testing.T) {
	f := newFixture()
	video := File{Name: "final.MP4", Size: 50 * mb, ContentType: "video/mp4", Body: bytes.NewReader([]byte("x"))}

	rec, err := f.reg.Attach(context.Background(), AttachInput{
		Owner: Owner{Type: OwnerNews, ID: 7}, Domain: DomainNews, Category: "basketball",
		Kind: KindVideo, Order: 2, File: video, UploadedBy: "admin",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.Key, "news/basketball/"))
	assert.True(t, strings.HasSuffix(rec.Key, ".mp4"))
	assert.Equal(t, 2, rec.Order)
	assert.Equal(t, "final.MP4", rec.FileName)

	// the photo policy still applies to photos
	_, err = f.reg.Attach(context.Background(), AttachInput{
		Owner: Owner{Type: OwnerNews, ID: 7}, Domain: DomainNews, Category: "basketball",
		Kind: KindPhoto, File: File{Name: "big.jpg", Size: 50 * mb, Body: bytes.NewReader(nil)},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAttachCompensatesFailedInsert(t *testing.T) {
	f := newFixture()
	f.records.createErr = errors.New("connection refused")

	_, err := f.reg.Attach(context.Background(), AttachInput{
		Owner: Owner{Type: OwnerSponsor, ID: 3}, Domain: DomainSponsor, Category: SponsorLogos, File: payload(10),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.Equal(t, 1, f.store.uploads)
	assert.Equal(t, 1, f.store.deletes)
	assert.Empty(t, f.store.objects)
}

func TestAttachCompensationFailureLeavesOrphan(t *testing.T) {
	f := newFixture()
	f.records.createErr = errors.New("connection refused")
	f.store.deleteErr = errors.New("timeout")

	_, err := f.reg.Attach(context.Background(), AttachInput{
		Owner: Owner{Type: OwnerSponsor, ID: 3}, Domain: DomainSponsor, Category: SponsorPhotos, File: payload(10),
	})
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.Len(t, f.store.objects, 1)
	assert.Equal(t, 1, f.warnings("orphaned object"))
}

func TestDetachRemovesRecordWhenObjectDeleteFails(t *testing.T) {
	f := newFixture()
	rec, err := f.reg.Attach(context.Background(), AttachInput{
		Owner: Owner{Type: OwnerNews, ID: 1}, Domain: DomainNews, Category: "archery", File: payload(10),
	})
	require.NoError(t, err)

	f.store.deleteErr = errors.New("access denied")
	require.NoError(t, f.reg.Detach(context.Background(), rec.ID))

	_, err = f.records.Get(context.Background(), rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, f.warnings("object delete failed"))
}

func TestDetachMissingRecord(t *testing.T) {
	f := newFixture()
	err := f.reg.Detach(context.Background(), 404)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, 0, f.store.deletes)
}

func TestDetachAllContinuesPastFailures(t *testing.T) {
	f := newFixture()
	owner := Owner{Type: OwnerNews, ID: 9}
	for i := 0; i < 5; i++ {
		_, err := f.reg.Attach(context.Background(), AttachInput{
			Owner: owner, Domain: DomainNews, Category: "volleyball", Order: i, File: payload(10),
		})
		require.NoError(t, err)
	}
	other, err := f.reg.Attach(context.Background(), AttachInput{
		Owner: Owner{Type: OwnerNews, ID: 10}, Domain: DomainNews, Category: "volleyball", File: payload(10),
	})
	require.NoError(t, err)

	f.store.deleteErr = errors.New("bucket unavailable")
	n, err := f.reg.DetachAll(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, f.warnings("object delete failed"))

	left, _ := f.records.ListByOwner(context.Background(), owner)
	assert.Empty(t, left)
	_, err = f.records.Get(context.Background(), other.ID)
	assert.NoError(t, err)
}

func TestListStripsFolder(t *testing.T) {
	f := newFixture()
	for _, k := range []string{"gallery/a", "gallery/b", "gallery/c", "news/all/x"} {
		f.store.objects[k] = nil
	}

	objs, err := f.reg.List(context.Background(), "gallery/")
	require.NoError(t, err)

	var names []string
	for _, o := range objs {
		names = append(names, o.Name)
		assert.Equal(t, "https://bucket.example.com/gallery/"+o.Name, o.URL)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)
}

func TestFolderAndNameChecks(t *testing.T) {
	f := newFixture()

	_, err := f.reg.List(context.Background(), "private/")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(f.reg.Remove(context.Background(), "gallery/", "../x")))

	f.store.objects["news/archery/x.jpg"] = nil
	err = f.reg.Remove(context.Background(), "news/archery/", "x.jpg")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, f.store.objects, "news/archery/x.jpg")
	assert.Equal(t, 0, f.store.deletes)

	url, err := f.reg.URL("gallery/", "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.example.com/gallery/a.jpg", url)
}
