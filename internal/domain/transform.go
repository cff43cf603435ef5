package domain

import "strings"

// Resolve converts a backend address record into the record returned to
// callers.
func Resolve(a NativeAddress) ResolvedAddress {
	var coords *Coordinates
	if a.Location != nil {
		c := *a.Location
		coords = &c
	}

	return ResolvedAddress{
		Coordinates:     coords,
		FeatureName:     a.FeatureName,
		CountryName:     a.CountryName,
		CountryCode:     a.CountryCode,
		Locality:        a.Locality,
		SubLocality:     a.SubLocality,
		Thoroughfare:    a.Thoroughfare,
		SubThoroughfare: a.SubThoroughfare,
		AdminArea:       a.AdminArea,
		SubAdminArea:    a.SubAdminArea,
		AddressLine:     joinAddressLines(a.Lines),
		PostalCode:      a.PostalCode,
		AddressLine1:    filterFirstLine(a),
	}
}

// ResolveAll converts records in order. The result is never nil.
func ResolveAll(addresses []NativeAddress) []ResolvedAddress {
	out := make([]ResolvedAddress, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, Resolve(a))
	}
	return out
}

// joinAddressLines keeps the non-blank lines, trimmed, in their original order.
func joinAddressLines(lines []string) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, ", ")
}

// filterFirstLine drops postal code, country name and country code tokens
// from address line 0. Matching is exact and case-sensitive.
func filterFirstLine(a NativeAddress) string {
	if len(a.Lines) == 0 {
		return ""
	}

	postalCode := strings.TrimSpace(Value(a.PostalCode))
	countryName := strings.TrimSpace(Value(a.CountryName))
	countryCode := strings.TrimSpace(Value(a.CountryCode))

	var kept []string
	for _, token := range strings.Split(a.Lines[0], ",") {
		token = strings.TrimSpace(token)
		if token == postalCode || token == countryName || token == countryCode {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, ",")
}
