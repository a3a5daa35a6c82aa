package media

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kadikoy/service/internal/sport"
)

// Domain is the content domain an upload belongs to.
type Domain int

const (
	DomainGallery Domain = iota
	DomainNews
	DomainSponsor
)

func (d Domain) String() string {
	switch d {
	case DomainGallery:
		return "gallery"
	case DomainNews:
		return "news"
	case DomainSponsor:
		return "sponsor"
	default:
		return fmt.Sprintf("Domain(%d)", int(d))
	}
}

// Sponsor sub-categories.
const (
	SponsorPhotos = "photos"
	SponsorLogos  = "logos"
)

// Namer derives folder prefixes and object names.
type Namer struct {
	galleryFolder string
	newID         func() string
}

// NewNamer returns a Namer that places gallery photos under galleryFolder.
func NewNamer(galleryFolder string) *Namer {
	return &Namer{galleryFolder: galleryFolder, newID: newULID}
}

// Folder returns the static prefix for domain and sub-category.
// News uses the sport slug; sponsors use SponsorPhotos or SponsorLogos.
func (n *Namer) Folder(d Domain, sub string) (string, error) {
	switch d {
	case DomainGallery:
		return n.galleryFolder, nil
	case DomainNews:
		for _, t := range sport.Types {
			if t.Slug() == sub {
				return "news/" + sub + "/", nil
			}
		}
		return "", fmt.Errorf("unknown news category %q", sub)
	case DomainSponsor:
		if sub == SponsorPhotos || sub == SponsorLogos {
			return "sponsors/" + sub + "/", nil
		}
		return "", fmt.Errorf("unknown sponsor category %q", sub)
	}
	return "", fmt.Errorf("unknown media domain %s", d)
}

// DeriveKey returns the folder prefix and a fresh object name ending in ext.
// The full object key is folder + name. Names are never checked against the store.
func (n *Namer) DeriveKey(d Domain, sub, ext string) (folder, name string, err error) {
	folder, err = n.Folder(d, sub)
	if err != nil {
		return "", "", err
	}
	return folder, n.newID() + strings.ToLower(ext), nil
}

// Folders lists every prefix the Namer can produce.
func (n *Namer) Folders() []string {
	out := []string{n.galleryFolder}
	for _, t := range sport.Types {
		out = append(out, "news/"+t.Slug()+"/")
	}
	return append(out, "sponsors/"+SponsorPhotos+"/", "sponsors/"+SponsorLogos+"/")
}

// IsKnownFolder reports whether folder is one of Folders.
func (n *Namer) IsKnownFolder(folder string) bool {
	for _, f := range n.Folders() {
		if f == folder {
			return true
		}
	}
	return false
}

// GalleryFolder is the prefix of gallery photos.
func (n *Namer) GalleryFolder() string { return n.galleryFolder }

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newULID returns a lowercase ULID. The shared monotonic source makes ids
// strictly increasing, hence unique, within the process.
func newULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}
