// Package sponsor manages sponsor listings, their photos and logos.
package sponsor

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kadikoy/service/internal/apperr"
	"github.com/kadikoy/service/internal/media"
	"github.com/kadikoy/service/internal/sport"
)

// Placement is where a sponsor is shown on the site.
type Placement int

const (
	PlacementBanner Placement = iota
	PlacementSidebar
)

func (p Placement) String() string {
	switch p {
	case PlacementBanner:
		return "Banner"
	case PlacementSidebar:
		return "Sidebar"
	default:
		return fmt.Sprintf("Placement(%d)", int(p))
	}
}

// Valid reports whether p is a known placement.
func (p Placement) Valid() bool { return p == PlacementBanner || p == PlacementSidebar }

// Image selects one of a sponsor's two image slots.
type Image int

const (
	ImagePhoto Image = iota
	ImageLogo
)

// Category is the storage sub-folder of the image slot.
func (i Image) Category() string {
	if i == ImageLogo {
		return media.SponsorLogos
	}
	return media.SponsorPhotos
}

const (
	maxNameLen        = 200
	maxDescriptionLen = 1000
	maxURLLen         = 1000
)

// Sponsor is a sponsor listing. A nil SportType applies to every sport.
type Sponsor struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	SportType   *sport.Type    `json:"sportType"`
	Placement   Placement      `json:"placement"`
	PhotoURL    *string        `json:"photoUrl,omitempty"`
	LogoURL     *string        `json:"logoUrl,omitempty"`
	WebsiteURL  *string        `json:"websiteUrl,omitempty"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
	Media       []media.Record `json:"mediaFiles"`
}

// MarshalJSON adds the enum names next to their numeric values.
func (s Sponsor) MarshalJSON() ([]byte, error) {
	type plain Sponsor
	p := plain(s)
	if p.Media == nil {
		p.Media = []media.Record{}
	}
	sportName := ""
	if s.SportType != nil {
		sportName = s.SportType.String()
	}
	return json.Marshal(struct {
		plain
		SportTypeName string `json:"sportTypeName"`
		PlacementName string `json:"placementName"`
	}{p, sportName, s.Placement.String()})
}

// Filter narrows a list query. Nil fields match everything.
type Filter struct {
	SportType *sport.Type
	Placement *Placement
	IsActive  *bool
}

// CreateInput holds the fields of a new sponsor.
type CreateInput struct {
	Name        string      `json:"name"                  example:"Kadikoy Bakery"`
	Description *string     `json:"description,omitempty"`
	SportType   *sport.Type `json:"sportType,omitempty"   example:"3"`
	Placement   Placement   `json:"placement"             example:"0"`
	PhotoURL    *string     `json:"photoUrl,omitempty"`
	LogoURL     *string     `json:"logoUrl,omitempty"`
	WebsiteURL  *string     `json:"websiteUrl,omitempty"  example:"https://example.com"`
	IsActive    *bool       `json:"isActive,omitempty"`
}

// Validate checks required fields, lengths, enum ranges and URL formats.
func (in *CreateInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.Validation("name is required")
	}
	if len(in.Name) > maxNameLen {
		return apperr.Validationf("name must be at most %d characters", maxNameLen)
	}
	if !in.Placement.Valid() {
		return apperr.Validation("placement must be 0 (banner) or 1 (sidebar)")
	}
	return validateCommon(in.Description, in.SportType, in.PhotoURL, in.LogoURL, in.WebsiteURL)
}

// UpdateInput holds a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	SportType   *sport.Type `json:"sportType,omitempty"`
	Placement   *Placement  `json:"placement,omitempty"`
	PhotoURL    *string     `json:"photoUrl,omitempty"`
	LogoURL     *string     `json:"logoUrl,omitempty"`
	WebsiteURL  *string     `json:"websiteUrl,omitempty"`
	IsActive    *bool       `json:"isActive,omitempty"`
}

// Validate checks the fields that are present.
func (in *UpdateInput) Validate() error {
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if n == "" || len(n) > maxNameLen {
			return apperr.Validationf("name must be 1 to %d characters", maxNameLen)
		}
		in.Name = &n
	}
	if in.Placement != nil && !in.Placement.Valid() {
		return apperr.Validation("placement must be 0 (banner) or 1 (sidebar)")
	}
	return validateCommon(in.Description, in.SportType, in.PhotoURL, in.LogoURL, in.WebsiteURL)
}

// Apply copies the present fields onto s.
func (in UpdateInput) Apply(s *Sponsor) {
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Description != nil {
		s.Description = in.Description
	}
	if in.SportType != nil {
		s.SportType = in.SportType
	}
	if in.Placement != nil {
		s.Placement = *in.Placement
	}
	// blank image urls keep the current image
	if in.PhotoURL != nil && strings.TrimSpace(*in.PhotoURL) != "" {
		s.PhotoURL = in.PhotoURL
	}
	if in.LogoURL != nil && strings.TrimSpace(*in.LogoURL) != "" {
		s.LogoURL = in.LogoURL
	}
	if in.WebsiteURL != nil {
		s.WebsiteURL = in.WebsiteURL
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
}

func validateCommon(description *string, st *sport.Type, urls ...*string) error {
	if description != nil && len(*description) > maxDescriptionLen {
		return apperr.Validationf("description must be at most %d characters", maxDescriptionLen)
	}
	if st != nil && !st.Valid() {
		return apperr.Validation("sportType must be between 0 and 3")
	}
	for _, u := range urls {
		if u == nil || strings.TrimSpace(*u) == "" {
			continue
		}
		if len(*u) > maxURLLen {
			return apperr.Validationf("urls must be at most %d characters", maxURLLen)
		}
		parsed, err := url.ParseRequestURI(*u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return apperr.Validationf("invalid url %q", *u)
		}
	}
	return nil
}
