package model

import (
	"regexp"
	"strings"
)

type Tenant struct {
	BaseModel
	Name     string  `gorm:"type:varchar(150);not null" json:"name"`
	Slug     string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Domain   *string `gorm:"type:varchar(255)" json:"domain,omitempty"`
	IsActive bool    `gorm:"not null" json:"is_active"`
}

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugRun  = regexp.MustCompile(`[^a-z0-9]+`)
)

// ValidSlug reports whether s is lowercase words joined by single hyphens.
func ValidSlug(s string) bool {
	return len(s) <= 100 && slugPattern.MatchString(s)
}

// Slugify derives a URL-safe slug from a display name ("Ace Print & Co." -> "ace-print-co").
func Slugify(name string) string {
	s := nonSlugRun.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > 100 {
		s = strings.TrimRight(s[:100], "-")
	}
	return s
}
