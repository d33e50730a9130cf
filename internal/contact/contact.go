// Package contact holds the contact-form data model and the validator that
// turns raw visitor submissions into drafts ready to be stored.
package contact

import "time"

// Record is a stored contact submission. Records are only built by a store
// from a Draft returned by Validate and are never modified afterwards.
type Record struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Draft is a validated submission that has not been given an identity yet.
type Draft struct {
	Name    string `json:"name" validate:"min=2"`
	Email   string `json:"email" validate:"email"`
	Company string `json:"company,omitempty"`
	Message string `json:"message" validate:"min=10"`
}

// NewRecord stamps a draft with the identity chosen by a store.
func NewRecord(id int64, d Draft, at time.Time) Record {
	return Record{
		ID:        id,
		Name:      d.Name,
		Email:     d.Email,
		Company:   d.Company,
		Message:   d.Message,
		CreatedAt: at,
	}
}
