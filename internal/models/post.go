// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostKind classifies a feed post.
type PostKind string

const (
	KindCheckin      PostKind = "checkin"
	KindResult       PostKind = "result"
	KindNutrition    PostKind = "nutrition"
	KindAnnouncement PostKind = "announcement"
	KindMoment       PostKind = "moment"
)

// PostKinds lists every accepted kind in display order.
var PostKinds = []PostKind{KindCheckin, KindResult, KindNutrition, KindAnnouncement, KindMoment}

// Valid reports whether k is one of the known kinds.
func (k PostKind) Valid() bool {
	for _, known := range PostKinds {
		if k == known {
			return true
		}
	}
	return false
}

// NutritionFacts is the optional macro triple attached to a nutrition post.
type NutritionFacts struct {
	Protein string `json:"protein"`
	Carbs   string `json:"carbs"`
	Kcal    string `json:"kcal"`
}

// Complete reports whether all three values are present.
func (n NutritionFacts) Complete() bool {
	return strings.TrimSpace(n.Protein) != "" &&
		strings.TrimSpace(n.Carbs) != "" &&
		strings.TrimSpace(n.Kcal) != ""
}

// Empty reports whether no value is present.
func (n NutritionFacts) Empty() bool {
	return strings.TrimSpace(n.Protein) == "" &&
		strings.TrimSpace(n.Carbs) == "" &&
		strings.TrimSpace(n.Kcal) == ""
}

// Post represents a post in the community feed.
type Post struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID         uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Kind             PostKind  `gorm:"type:varchar(20);not null" json:"kind"`
	Caption          string    `gorm:"type:text;not null" json:"caption"`
	PrimaryMedia     string    `gorm:"type:text" json:"primary_media,omitempty"`
	SecondaryMedia   string    `gorm:"type:text" json:"secondary_media,omitempty"`
	IsVideo          bool      `gorm:"not null;default:false" json:"is_video"`
	NutritionProtein *string   `json:"-"`
	NutritionCarbs   *string   `json:"-"`
	NutritionKcal    *string   `json:"-"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Computed per read, never persisted.
	LikeCount      int64           `gorm:"-" json:"like_count"`
	CommentCount   int64           `gorm:"-" json:"comment_count"`
	ViewerHasLiked bool            `gorm:"-" json:"viewer_has_liked"`
	Author         *Profile        `gorm:"-" json:"author,omitempty"`
	NutritionFacts *NutritionFacts `gorm:"-" json:"nutrition,omitempty"`
}

// BeforeCreate assigns the id when the caller left it empty.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AfterFind exposes the nutrition columns as a single value.
func (p *Post) AfterFind(_ *gorm.DB) error {
	p.NutritionFacts = p.Nutrition()
	return nil
}

// SetNutrition stores n in the three nullable columns, or clears them.
func (p *Post) SetNutrition(n *NutritionFacts) {
	if n == nil || n.Empty() {
		p.NutritionProtein, p.NutritionCarbs, p.NutritionKcal = nil, nil, nil
		p.NutritionFacts = nil
		return
	}
	protein, carbs, kcal := strings.TrimSpace(n.Protein), strings.TrimSpace(n.Carbs), strings.TrimSpace(n.Kcal)
	p.NutritionProtein, p.NutritionCarbs, p.NutritionKcal = &protein, &carbs, &kcal
	p.NutritionFacts = &NutritionFacts{Protein: protein, Carbs: carbs, Kcal: kcal}
}

// Nutrition returns the stored facts, or nil when the post carries none.
func (p *Post) Nutrition() *NutritionFacts {
	if p.NutritionProtein == nil || p.NutritionCarbs == nil || p.NutritionKcal == nil {
		return nil
	}
	return &NutritionFacts{
		Protein: *p.NutritionProtein,
		Carbs:   *p.NutritionCarbs,
		Kcal:    *p.NutritionKcal,
	}
}
