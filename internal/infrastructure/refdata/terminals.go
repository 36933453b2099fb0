// Package refdata loads the static carrier reference datasets (terminal
// directories, city geography) into read-only in-memory indexes at startup.
// The indexes are safe for concurrent use without locking; refreshing the
// underlying files is an external batch concern.
package refdata

import (
	"encoding/json"
	"fmt"
	"os"
)

// TerminalIndex maps Dellin KLADR city codes to the id of the first terminal
// in that city.
type TerminalIndex struct {
	byCity map[string]string
}

// terminalsFile mirrors the structure of the terminals_v3.json export.
type terminalsFile struct {
	City []struct {
		Code      string `json:"code"`
		Terminals struct {
			Terminal []struct {
				ID json.Number `json:"id"`
			} `json:"terminal"`
		} `json:"terminals"`
	} `json:"city"`
}

// LoadTerminalIndex reads a terminals_v3.json export into an index.
func LoadTerminalIndex(path string) (*TerminalIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: read terminals: %w", err)
	}

	var file terminalsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("refdata: parse terminals: %w", err)
	}

	byCity := make(map[string]string, len(file.City))
	for _, city := range file.City {
		if len(city.Terminals.Terminal) == 0 {
			continue
		}
		byCity[city.Code] = city.Terminals.Terminal[0].ID.String()
	}
	return &TerminalIndex{byCity: byCity}, nil
}

// NewTerminalIndex builds an index from an explicit mapping. Intended for tests.
func NewTerminalIndex(byCity map[string]string) *TerminalIndex {
	return &TerminalIndex{byCity: byCity}
}

// TerminalID returns the terminal id for a city code.
func (i *TerminalIndex) TerminalID(cityCode string) (string, bool) {
	id, ok := i.byCity[cityCode]
	return id, ok
}

// Len returns the number of indexed cities.
func (i *TerminalIndex) Len() int { return len(i.byCity) }
