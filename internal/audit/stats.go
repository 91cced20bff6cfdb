package audit

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/cybersaathi/cybersaathi/internal/model"
)

// Stats aggregates an audit log.
type Stats struct {
	Events     int                   `json:"events"`
	Redactions int                   `json:"redactions"`
	ByType     map[model.PIIKind]int `json:"by_type"`
}

// ReadStats parses a JSONL audit log and aggregates totals. A missing file
// yields zero stats; malformed lines are skipped.
func ReadStats(path string) (Stats, error) {
	stats := Stats{ByType: make(map[model.PIIKind]int)}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return stats, nil
	}
	if err != nil {
		return stats, eris.Wrapf(err, "audit: open %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		stats.Events++
		stats.Redactions += rec.Count
		for kind, n := range rec.Types {
			stats.ByType[kind] += n
		}
	}
	return stats, eris.Wrapf(scanner.Err(), "audit: read %s", path)
}
