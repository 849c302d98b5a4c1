// Package recipients loads the optional allow-list of contact names. The
// file is a one-column CSV; an extra column, when present, is ignored.
//
// Entries must be the synthetic row fingerprints the contact reader emits
// (row-<hash>), not display names: the pixel-based list never learns what a
// contact is called. Fingerprints appear in run logs and as debug-crop file
// names, so a debug dry run is the way to collect them.
package recipients

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Load reads the allow-list at path. A missing or empty path yields a nil
// set, meaning every contact is allowed; callers treat that as a warning
// case, not an error.
func Load(path string) (map[string]bool, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open recipients file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse recipients file: %w", err)
	}

	set := make(map[string]bool)
	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" || strings.EqualFold(name, "name") {
			continue // header row or blank line
		}
		set[name] = true
	}
	if len(set) == 0 {
		return nil, nil
	}
	return set, nil
}

// Filter converts a set to the predicate form the cycler consumes. A nil
// set allows everything.
func Filter(set map[string]bool) func(string) bool {
	if set == nil {
		return nil
	}
	return func(name string) bool { return set[name] }
}
