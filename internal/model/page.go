package model

import (
	"fmt"
	"time"
)

// Page is editable site copy addressed by slug.
type Page struct {
	Slug            string     `db:"slug" json:"slug"`
	Title           string     `db:"title" json:"title"`
	Content         string     `db:"content" json:"content"`
	MetaDescription string     `db:"meta_description" json:"meta_description"`
	LastModified    *time.Time `db:"last_modified" json:"last_modified,omitempty"`
}

type PageRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Content         string `json:"content" validate:"required"`
	MetaDescription string `json:"meta_description" validate:"max=320"`
}

// KnownPage is a page the site always renders, stored or not.
type KnownPage struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var KnownPages = []KnownPage{
	{Slug: "home", Title: "Home Page", Description: "Main landing page content"},
	{Slug: "about", Title: "About Us", Description: "Information about AyurCare"},
	{Slug: "services", Title: "Services", Description: "Overview of treatments offered"},
	{Slug: "contact", Title: "Contact", Description: "Contact details and directions"},
	{Slug: "blog", Title: "Blog", Description: "Blog landing page"},
}

func FindKnownPage(slug string) (KnownPage, bool) {
	for _, p := range KnownPages {
		if p.Slug == slug {
			return p, true
		}
	}
	return KnownPage{}, false
}

// DefaultPage is the scaffold shown for a known page that was never saved.
func DefaultPage(known KnownPage) *Page {
	return &Page{
		Slug:            known.Slug,
		Title:           known.Title,
		Content:         fmt.Sprintf("<h1>%s</h1>\n<p>Add your content here...</p>", known.Title),
		MetaDescription: known.Description,
	}
}
