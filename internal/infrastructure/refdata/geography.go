package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// geography CSV column layout (inherited from the DPD export).
const (
	geoColCityID = 0
	geoColCity   = 3
	geoColRegion = 4
	geoMinCols   = 5
)

// GeoEntry is one city row from the DPD geography export.
type GeoEntry struct {
	CityID string
	City   string
	// Region is the full lower-cased region/address text used for
	// substring-based region disambiguation.
	Region string
}

// GeographyIndex indexes DPD geography rows by lower-cased city name. A city
// may map to several entries when the same name exists in multiple regions.
type GeographyIndex struct {
	byCity map[string][]GeoEntry
}

// LoadGeographyIndex reads a windows-1251 encoded, semicolon-separated
// geography export into an index.
func LoadGeographyIndex(path string) (*GeographyIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: open geography: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(charmap.Windows1251.NewDecoder().Reader(f))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	byCity := make(map[string][]GeoEntry)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("refdata: parse geography: %w", err)
		}
		if len(row) < geoMinCols {
			continue
		}
		key := strings.ToLower(row[geoColCity])
		byCity[key] = append(byCity[key], GeoEntry{
			CityID: row[geoColCityID],
			City:   row[geoColCity],
			Region: strings.ToLower(row[geoColRegion]),
		})
	}
	return &GeographyIndex{byCity: byCity}, nil
}

// NewGeographyIndex builds an index from explicit entries. Intended for tests.
func NewGeographyIndex(entries []GeoEntry) *GeographyIndex {
	byCity := make(map[string][]GeoEntry)
	for _, e := range entries {
		e.Region = strings.ToLower(e.Region)
		key := strings.ToLower(e.City)
		byCity[key] = append(byCity[key], e)
	}
	return &GeographyIndex{byCity: byCity}
}

// Lookup returns all entries whose city name matches case-insensitively.
func (g *GeographyIndex) Lookup(city string) []GeoEntry {
	return g.byCity[strings.ToLower(city)]
}

// Len returns the number of distinct indexed city names.
func (g *GeographyIndex) Len() int { return len(g.byCity) }
