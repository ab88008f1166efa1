// internal/models/tour.go
package models

// ContactFallback is used when a place has neither a phone number nor a website.
const ContactFallback = "N/A"

// SearchTerm is one (city, keyword group) unit of a batch run.
type SearchTerm struct {
	City     string `json:"city"`
	Keywords string `json:"keywords"`
}

// TourRecord is the flattened, exported unit of the tours workflow.
type TourRecord struct {
	CompanyName     string `json:"companyName"`
	PlaceOfActivity string `json:"placeOfActivity"`
	Address         string `json:"address"`
	Contact         string `json:"contact"`
	City            string `json:"city"`
}

// ToRow returns the record keyed by its JSON field names.
func (r TourRecord) ToRow() map[string]any {
	return map[string]any{
		"companyName":     r.CompanyName,
		"placeOfActivity": r.PlaceOfActivity,
		"address":         r.Address,
		"contact":         r.Contact,
		"city":            r.City,
	}
}

// ResolveContact picks phone, then website, then ContactFallback.
func ResolveContact(phone, website string) string {
	if phone != "" {
		return phone
	}
	if website != "" {
		return website
	}
	return ContactFallback
}
