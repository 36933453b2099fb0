package refdata

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// TerminalCities is the set of DPD city ids that have a pickup terminal.
// Arrival cities outside the set get courier delivery instead of self-pickup.
type TerminalCities struct {
	ids map[string]struct{}
}

// LoadTerminalCities reads a dpd-terminals.xml export, collecting the text of
// every <cityId> element regardless of nesting depth.
func LoadTerminalCities(path string) (*TerminalCities, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: open dpd terminals: %w", err)
	}
	defer f.Close()

	ids := make(map[string]struct{})
	decoder := xml.NewDecoder(f)
	inCityID := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("refdata: parse dpd terminals: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inCityID = t.Name.Local == "cityId"
		case xml.CharData:
			if inCityID {
				ids[string(t)] = struct{}{}
			}
		case xml.EndElement:
			inCityID = false
		}
	}
	return &TerminalCities{ids: ids}, nil
}

// NewTerminalCities builds the set from explicit ids. Intended for tests.
func NewTerminalCities(cityIDs ...string) *TerminalCities {
	ids := make(map[string]struct{}, len(cityIDs))
	for _, id := range cityIDs {
		ids[id] = struct{}{}
	}
	return &TerminalCities{ids: ids}
}

// HasTerminal reports whether the city has a DPD terminal.
func (t *TerminalCities) HasTerminal(cityID string) bool {
	_, ok := t.ids[cityID]
	return ok
}
