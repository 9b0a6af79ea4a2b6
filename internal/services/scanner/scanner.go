package scanner

import (
	"strings"
	"time"

	"github.com/ternarybob/vigil/internal/models"
)

// Scanner runs one classification pass over a batch of raw log text for one
// entity. Scan is a pure function of its input apart from timestamping; it
// holds no state between passes and performs no I/O.
type Scanner struct {
	rules *Ruleset
	now   func() time.Time
}

// New creates a scanner over the given ruleset.
func New(rules *Ruleset) *Scanner {
	return &Scanner{rules: rules, now: time.Now}
}

// Scan splits raw text into lines, normalizes and classifies each one, and
// collects every error-worthy line in original log order.
func (s *Scanner) Scan(entityID, raw string) models.ScanResult {
	result := models.ScanResult{EntityID: entityID}

	for _, rawLine := range strings.Split(raw, "\n") {
		line, ok := Normalize(rawLine)
		if !ok {
			continue
		}

		tier, matched := s.rules.Classify(line)
		if !matched {
			continue
		}

		result.Events = append(result.Events, models.ClassifiedEvent{
			Level:     tier,
			Msg:       truncate(line, models.MaxMessageLength),
			Timestamp: s.now().UTC().Format(time.RFC3339),
		})
	}

	result.TotalMatches = len(result.Events)
	return result
}

// SynthesizeFailure builds the single ERROR event recorded when a log source
// cannot produce text for a scan window, so source outages surface on the
// bus instead of silently skipping the cycle.
func (s *Scanner) SynthesizeFailure(entityID string, err error) models.ScanResult {
	return models.ScanResult{
		EntityID: entityID,
		Events: []models.ClassifiedEvent{{
			Level:     models.SeverityError,
			Msg:       truncate(err.Error(), models.MaxMessageLength),
			Timestamp: s.now().UTC().Format(time.RFC3339),
		}},
		TotalMatches: 1,
	}
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
