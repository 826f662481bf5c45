// Package mic resolves ISO 10383 Market Identifier Codes to country and
// market names. The registry subset is loaded once into an immutable table;
// lookups are pure and safe across parallel market runs.
package mic

import (
	"strings"
)

// Venue is the country/market pair registered for a MIC code.
type Venue struct {
	Country string `json:"country"`
	Market  string `json:"market"`
}

// registry is the ISO 10383 subset covering the venues this pipeline
// ingests plus the segments seen in historical migration data.
var registry = map[string]Venue{
	"XMAD": {Country: "Spain", Market: "Bolsa de Madrid"},
	"XBAR": {Country: "Spain", Market: "Bolsa de Barcelona"},
	"XBIL": {Country: "Spain", Market: "Bolsa de Bilbao"},
	"XVAL": {Country: "Spain", Market: "Bolsa de Valencia"},
	"MABX": {Country: "Spain", Market: "BME Growth"},
	"SEND": {Country: "Spain", Market: "BME Fixed Income"},
	"PORT": {Country: "Spain", Market: "Portfolio Stock Exchange"},
	"XPAR": {Country: "France", Market: "Euronext Paris"},
	"XAMS": {Country: "Netherlands", Market: "Euronext Amsterdam"},
	"XBRU": {Country: "Belgium", Market: "Euronext Brussels"},
	"XLIS": {Country: "Portugal", Market: "Euronext Lisbon"},
	"XMSM": {Country: "Ireland", Market: "Euronext Dublin"},
	"XOSL": {Country: "Norway", Market: "Oslo Børs"},
	"ALXP": {Country: "France", Market: "Euronext Growth Paris"},
	"XMLI": {Country: "France", Market: "Euronext Access Paris"},
}

// Lookup resolves a MIC code to its registered venue. The second return is
// false for codes outside the registry.
func Lookup(code string) (Venue, bool) {
	venue, ok := registry[strings.ToUpper(strings.TrimSpace(code))]
	return venue, ok
}

// CountryName returns the country registered for a MIC code, or "" when
// the code is unknown.
func CountryName(code string) string {
	venue, ok := Lookup(code)
	if !ok {
		return ""
	}
	return venue.Country
}

// MarketName returns the market name registered for a MIC code, or "" when
// the code is unknown.
func MarketName(code string) string {
	venue, ok := Lookup(code)
	if !ok {
		return ""
	}
	return venue.Market
}
