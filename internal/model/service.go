package model

// Service is a treatment offered by the clinic. Price and duration are
// display labels such as "₹1,500" or "7-21 days".
type Service struct {
	Base
	Name        string `db:"name" json:"name"`
	Slug        string `db:"slug" json:"slug"`
	Description string `db:"description" json:"description"`
	Price       string `db:"price" json:"price"`
	Duration    string `db:"duration" json:"duration"`
	Category    string `db:"category" json:"category"`
	Featured    bool   `db:"featured" json:"featured"`
}

type ServiceRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Slug        string `json:"slug" validate:"omitempty,max=120"`
	Description string `json:"description" validate:"required"`
	Price       string `json:"price" validate:"required,max=60"`
	Duration    string `json:"duration" validate:"required,max=60"`
	Category    string `json:"category" validate:"required,max=60"`
	Featured    bool   `json:"featured"`
}

type ServiceFilter struct {
	Category     string
	FeaturedOnly bool
}
