// Package media validates, names, stores and tracks uploaded files.
//
// Gallery photos are loose objects in the store. News and sponsor media are
// objects plus a Record row; the row is written only after the upload succeeds,
// and is removed even when the object delete fails.
package media

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Kind is the media kind of a record. Values are persisted as integers.
type Kind int

const (
	KindPhoto Kind = 0
	KindVideo Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindPhoto:
		return "Photo"
	case KindVideo:
		return "Video"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts the form value of mediaKind.
func ParseKind(v int) (Kind, error) {
	switch Kind(v) {
	case KindPhoto, KindVideo:
		return Kind(v), nil
	}
	return 0, fmt.Errorf("mediaKind must be 0 (photo) or 1 (video)")
}

// OwnerType names the content entity table that owns a record.
type OwnerType string

const (
	OwnerNews    OwnerType = "news"
	OwnerSponsor OwnerType = "sponsor"
)

// Owner identifies the content entity a record belongs to.
type Owner struct {
	Type OwnerType
	ID   int64
}

// Record is the metadata row linking a content entity to one stored object.
type Record struct {
	ID          int64     `json:"id"`
	OwnerType   OwnerType `json:"-"`
	OwnerID     int64     `json:"-"`
	Kind        Kind      `json:"mediaType"`
	Key         string    `json:"-"`
	URL         string    `json:"url"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	ContentType string    `json:"contentType"`
	Order       int       `json:"order"`
	UploadedAt  time.Time `json:"uploadedAt"`
	UploadedBy  string    `json:"uploadedBy,omitempty"`
}

// MarshalJSON adds the kind name next to its numeric value.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		MediaTypeName string `json:"mediaTypeName"`
	}{plain(r), r.Kind.String()})
}

// StoredObject is one blob in the object store.
type StoredObject struct {
	Key         string    `json:"-"`
	Folder      string    `json:"folder"`
	Name        string    `json:"fileName"`
	URL         string    `json:"fileUrl"`
	Size        int64     `json:"fileSizeBytes"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// File is a candidate upload.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}
