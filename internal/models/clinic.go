package models

import (
	"strings"
	"time"
)

// Clinic is a single vet clinic card. Records are replaced wholesale on
// edit; there is no partial-field update contract.
// JSON tags are the persisted schema — existing stored documents use them.
type Clinic struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Rating     float64   `json:"rating" yaml:"rating"` // 0.0..5.0
	IsOpen     bool      `json:"isOpen" yaml:"is_open"`
	Location   string    `json:"location" yaml:"location"`
	Reviews    int64     `json:"reviews" yaml:"reviews"`
	Phone      string    `json:"phone" yaml:"phone"`
	LogoURL    string    `json:"logoUrl,omitempty" yaml:"logo_url"`
	LicenseURL string    `json:"licenseUrl,omitempty" yaml:"license_url"`
	Services   []string  `json:"services,omitempty" yaml:"services"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// Offers reports whether the clinic carries the given service tag.
// Clinics migrated from the old schema have no tags at all; for those the
// legacy name-substring heuristic still applies so old records keep matching.
func (c *Clinic) Offers(tag string) bool {
	if tag == "" {
		return true
	}
	if len(c.Services) == 0 {
		return legacyNameMatch(c.Name, tag)
	}
	for _, s := range c.Services {
		if s == tag {
			return true
		}
	}
	return false
}

// legacyServiceHints maps a service tag to the name substrings the old data
// model relied on before clinics carried explicit service tags.
var legacyServiceHints = map[string][]string{
	ServiceMedical:  {"vet", "medical", "clinic"},
	ServiceGrooming: {"groom", "spa"},
	ServiceBoarding: {"board", "hotel"},
	ServiceTraining: {"train"},
	ServiceVaccines: {"vet", "vaccin"},
}

func legacyNameMatch(name, tag string) bool {
	hints, ok := legacyServiceHints[tag]
	if !ok {
		return false
	}
	lower := strings.ToLower(name)
	for _, h := range hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
