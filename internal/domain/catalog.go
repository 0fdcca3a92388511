package domain

import "time"

// SubcategoryAll asks for fields common to every subcategory of a category.
const SubcategoryAll = "All"

// Category maps a display name to the backend identifier.
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Subcategory is returned by GET /api/categories/{id}/subcategories.
type Subcategory struct {
	ID   FlexibleID `json:"id"`
	Name string     `json:"name"`
	Code string     `json:"code,omitempty"`
}

// Studio is a location tickets are filed against.
type Studio struct {
	ID   FlexibleID `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
}

// Template is an immutable preset of draft defaults.
type Template struct {
	ID              string         `json:"id" yaml:"id"`
	Name            string         `json:"name" yaml:"name"`
	Category        string         `json:"category" yaml:"category"`
	Priority        TicketPriority `json:"priority" yaml:"priority"`
	Title           string         `json:"title" yaml:"title"`
	Description     string         `json:"description" yaml:"description"`
	SubcategoryName string         `json:"subcategoryName,omitempty" yaml:"subcategory,omitempty"`
	CreatedAt       time.Time      `json:"createdAt,omitempty" yaml:"-"`
}
