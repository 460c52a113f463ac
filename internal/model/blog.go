package model

import (
	"encoding/json"
	"strings"

	"github.com/lib/pq"
)

const DefaultBlogAuthor = "Administrator"

type BlogPost struct {
	Base
	Title     string         `db:"title" json:"title"`
	Content   string         `db:"content" json:"content"`
	Excerpt   string         `db:"excerpt" json:"excerpt"`
	Slug      string         `db:"slug" json:"slug"`
	Author    string         `db:"author" json:"author"`
	Category  string         `db:"category" json:"category"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	Published bool           `db:"published" json:"published"`
}

type BlogPostRequest struct {
	Title     string  `json:"title" validate:"required,min=3,max=200"`
	Content   string  `json:"content" validate:"required"`
	Excerpt   string  `json:"excerpt" validate:"max=500"`
	Slug      string  `json:"slug" validate:"omitempty,max=200"`
	Author    string  `json:"author" validate:"max=120"`
	Category  string  `json:"category" validate:"required,max=60"`
	Tags      TagList `json:"tags"`
	Published bool    `json:"published"`
}

type BlogFilter struct {
	Category      string
	PublishedOnly bool
}

// TagList accepts either a JSON array or a comma separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = NormalizeTags(list)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = NormalizeTags(strings.Split(raw, ","))
	return nil
}

// NormalizeTags trims each tag and drops empties.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
