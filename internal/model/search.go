package model

import "time"

// QueryKind hints the gateway which registry to ask.
type QueryKind string

const (
	QueryKindCompany QueryKind = "company"
	QueryKindPhone   QueryKind = "phone"
)

// SearchRecord is one completed lookup attempt. Rows are append-only:
// a record is written exactly once per attempt and never mutated.
type SearchRecord struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Query        string    `json:"query"`
	ResultLabel  string    `json:"result_label,omitempty"`
	ContactValue string    `json:"contact_value,omitempty"`
	Found        bool      `json:"found"`
	CreatedAt    time.Time `json:"created_at"`
}

// CompanyProfile is the normalized registry record returned by the
// lookup gateway. All fields are optional; absent values stay empty.
type CompanyProfile struct {
	LegalName       string `json:"legal_name,omitempty"`
	ShortName       string `json:"short_name,omitempty"`
	TaxID           string `json:"tax_id,omitempty"`
	RegistrationID  string `json:"registration_id,omitempty"`
	TaxRegistryCode string `json:"tax_registry_code,omitempty"`
	Status          string `json:"status,omitempty"`
	RegisteredAt    string `json:"registered_at,omitempty"`
	Address         string `json:"address,omitempty"`
	DirectorName    string `json:"director_name,omitempty"`
	DirectorTitle   string `json:"director_title,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
}

// Label returns the best short description for history records.
func (p *CompanyProfile) Label() string {
	if p == nil {
		return ""
	}
	if p.ShortName != "" {
		return p.ShortName
	}
	return p.LegalName
}

// Outcome is the normalized result of one search transaction.
// Credits is the balance after settlement, for the presentation layer.
type Outcome struct {
	Found   bool            `json:"found"`
	Query   string          `json:"query"`
	Result  *CompanyProfile `json:"result,omitempty"`
	Credits int64           `json:"credits"`
}

type SearchRequest struct {
	UserID string    `json:"user_id"`
	Query  string    `json:"query"`
	Kind   QueryKind `json:"kind"`
}

type GrantRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Amount      int64  `json:"amount"`
}
