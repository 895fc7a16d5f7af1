package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`

	// OrganizationID is the owning tenant. Immutable after creation; every
	// permission check re-derives it from this record, never from a payload.
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_posts_org_slug"`

	// AuthorID is the creating user. Immutable; drives the WRITER
	// ownership override on edit/delete.
	AuthorID uuid.UUID `json:"author_id" gorm:"type:uuid;not null;index"`

	Title      string     `json:"title" gorm:"size:300;not null"`
	Slug       string     `json:"slug" gorm:"size:150;not null;uniqueIndex:idx_posts_org_slug"`
	Body       string     `json:"body" gorm:"type:text"`
	Excerpt    string     `json:"excerpt" gorm:"size:500"`
	Status     string     `json:"status" gorm:"default:'DRAFT'"` // DRAFT, PUBLISHED, ARCHIVED
	Featured   bool       `json:"featured" gorm:"default:false"`
	CoverImage string     `json:"cover_image" gorm:"size:500"`
	CategoryID *uuid.UUID `json:"category_id" gorm:"type:uuid"`

	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Organization Organization `json:"-" gorm:"foreignKey:OrganizationID"`
	Author       User         `json:"author" gorm:"foreignKey:AuthorID"`
	Category     *Category    `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

type Category struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_categories_org_slug"`
	Name           string    `json:"name" gorm:"size:150;not null"`
	Slug           string    `json:"slug" gorm:"size:100;not null;uniqueIndex:idx_categories_org_slug"`
	Description    string    `json:"description" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Organization Organization `json:"-" gorm:"foreignKey:OrganizationID"`
}

type Comment struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PostID         uuid.UUID `json:"post_id" gorm:"type:uuid;not null;index"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index"`
	AuthorName     string    `json:"author_name" gorm:"size:150;not null"`
	AuthorEmail    string    `json:"author_email" gorm:"size:200"`
	Body           string    `json:"body" gorm:"type:text;not null"`
	Status         string    `json:"status" gorm:"default:'VISIBLE'"` // VISIBLE, HIDDEN
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Post Post `json:"-" gorm:"foreignKey:PostID"`
}
