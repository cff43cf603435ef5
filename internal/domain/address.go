package domain

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NativeAddress is a single address record as returned by a geocoding
// backend. Nil string fields mean the backend did not provide the attribute.
type NativeAddress struct {
	Lines    []string     `json:"lines"`
	Location *Coordinates `json:"location,omitempty"`

	FeatureName     *string `json:"feature_name,omitempty"`
	CountryName     *string `json:"country_name,omitempty"`
	CountryCode     *string `json:"country_code,omitempty"`
	Locality        *string `json:"locality,omitempty"`
	SubLocality     *string `json:"sub_locality,omitempty"`
	Thoroughfare    *string `json:"thoroughfare,omitempty"`
	SubThoroughfare *string `json:"sub_thoroughfare,omitempty"`
	AdminArea       *string `json:"admin_area,omitempty"`
	SubAdminArea    *string `json:"sub_admin_area,omitempty"`
	PostalCode      *string `json:"postal_code,omitempty"`
}

// ResolvedAddress is the flat record delivered to callers. Field names on
// the wire are fixed; missing values are encoded as null.
type ResolvedAddress struct {
	Coordinates     *Coordinates `json:"coordinates"`
	FeatureName     *string      `json:"featureName"`
	CountryName     *string      `json:"countryName"`
	CountryCode     *string      `json:"countryCode"`
	Locality        *string      `json:"locality"`
	SubLocality     *string      `json:"subLocality"`
	Thoroughfare    *string      `json:"thoroughfare"`
	SubThoroughfare *string      `json:"subThoroughfare"`
	AdminArea       *string      `json:"adminArea"`
	SubAdminArea    *string      `json:"subAdminArea"`
	AddressLine     string       `json:"addressLine"`
	PostalCode      *string      `json:"postalCode"`
	AddressLine1    string       `json:"addressLine1"`
}

// Optional returns a pointer to s, or nil when s is empty. Backends use it
// to map "attribute not provided" onto a nil field.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences an optional field, returning "" for nil.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
