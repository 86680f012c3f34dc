package models

import "strings"

// Sitter is a service provider record. Location is nil until the sitter has been geocoded
// or created with explicit coordinates.
type Sitter struct {
	ID       int64     // ID is the unique identifier of the sitter.
	Title    string    // Title is the public headline of the sitter profile.
	Address  string    // Address is the free-text street address.
	City     string    // City is the free-text locality.
	Location *Location // Location is the known position, if any.
}

// AddressKey returns the text sent to a geocoder for this sitter.
func (s Sitter) AddressKey() string {
	return s.Address + ", " + s.City
}

// HasAddress reports whether the sitter carries an address worth geocoding.
func (s Sitter) HasAddress() bool {
	return strings.TrimSpace(s.Address) != ""
}
