// Package model defines the core data types shared across the analysis
// pipeline: location queries, resolved locations, category tags, and the
// opportunity report returned to callers.
package model

import (
	"regexp"
	"strings"
	"time"
)

// SearchType identifies which analysis branch produced a report.
type SearchType string

const (
	// SearchTypeZip is a zip-code-centered search.
	SearchTypeZip SearchType = "zipcode"
	// SearchTypeRadius is a radius search around a geocoded address.
	SearchTypeRadius SearchType = "radius"
)

// MaxRadiusMiles is the largest radius accepted for address searches.
const MaxRadiusMiles = 50.0

var zipPattern = regexp.MustCompile(`^[0-9]{5}$`)

// ValidZip reports whether s is a well-formed 5-digit US zip code.
func ValidZip(s string) bool {
	return zipPattern.MatchString(s)
}

// LocationQuery describes the user-supplied search location. Exactly one of
// Zip or Address is set; Kind records which.
type LocationQuery struct {
	Kind        SearchType `json:"kind"`
	Zip         string     `json:"zip,omitempty"`
	Address     string     `json:"address,omitempty"`
	RadiusMiles float64    `json:"radiusMiles,omitempty"`
}

// ZipQuery builds a zip-mode LocationQuery.
func ZipQuery(zip string) LocationQuery {
	return LocationQuery{Kind: SearchTypeZip, Zip: zip}
}

// AddressQuery builds an address-mode LocationQuery.
func AddressQuery(address string, radiusMiles float64) LocationQuery {
	return LocationQuery{Kind: SearchTypeRadius, Address: address, RadiusMiles: radiusMiles}
}

// ResolvedLocation is the output of geocoding: coordinates, a display label,
// and the zip code the demographic lookup will key on. Zip is empty when
// reverse geocoding could not produce a 5-digit postal code.
type ResolvedLocation struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
	Zip   string  `json:"zip,omitempty"`
}

// CategoryTag is an OSM-style tag pair identifying a point-of-interest type
// in the spatial backend (e.g. amenity=cafe, shop=supermarket).
type CategoryTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DemographicData holds the census figures for a zip code. Zero values mean
// the source had no usable data, not a literal zero.
type DemographicData struct {
	Population   int `json:"population"`
	MedianIncome int `json:"medianIncome"`
}

// Point is a single competitor coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CompetitorResult is the outcome of a spatial query. Locations is populated
// only when location detail was requested, in which case its length equals
// Count.
type CompetitorResult struct {
	Count     int     `json:"count"`
	Locations []Point `json:"locations,omitempty"`
}

// OpportunityReport is the aggregate analysis result returned to callers.
type OpportunityReport struct {
	Population          int        `json:"population"`
	MedianIncome        int        `json:"medianIncome"`
	CompetitorCount     int        `json:"competitorCount"`
	OpportunityScore    string     `json:"opportunityScore"`
	OpportunityValue    int        `json:"opportunityValue"`
	CompetitorLocations []Point    `json:"competitorLocations"`
	SearchLocation      string     `json:"searchLocation"`
	Coordinates         *Point     `json:"coordinates"`
	SearchType          SearchType `json:"searchType"`
}

// AnalyzeRequest is the validated input to the analysis pipeline.
type AnalyzeRequest struct {
	BusinessTerm     string  `json:"businessTerm"`
	ZipCode          string  `json:"zipCode,omitempty"`
	Address          string  `json:"address,omitempty"`
	RadiusMiles      float64 `json:"radiusMiles,omitempty"`
	IncludeLocations bool    `json:"includeLocations,omitempty"`
	// UseBoundary switches zip searches from the centered-radius query to the
	// postal-boundary polygon query.
	UseBoundary bool `json:"useBoundary,omitempty"`
}

// Normalize trims the free-text fields in place.
func (r *AnalyzeRequest) Normalize() {
	r.BusinessTerm = strings.TrimSpace(r.BusinessTerm)
	r.ZipCode = strings.TrimSpace(r.ZipCode)
	r.Address = strings.TrimSpace(r.Address)
}

// SavedReport wraps an OpportunityReport with persistence metadata.
type SavedReport struct {
	ID           string            `json:"id"`
	BusinessTerm string            `json:"businessTerm"`
	Report       OpportunityReport `json:"report"`
	CreatedAt    time.Time         `json:"createdAt"`
}
