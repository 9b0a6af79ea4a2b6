package scanner

import (
	"github.com/ternarybob/vigil/internal/models"
)

// Classify runs a normalized line through the rule table. The boolean is
// true when the line is an error-worthy event; the severity is empty for
// untiered (kernel) rulesets.
//
// Decision order for tiered rulesets: broad keyword gate, warning exclusion,
// critical patterns, error patterns, then default to ERROR. Warning-tier
// lines are excluded even when they also contain error keywords.
func (r *Ruleset) Classify(line string) (models.Severity, bool) {
	if !r.matchesKeyword(line) {
		return models.SeverityNone, false
	}

	if !r.tiered {
		return "", true
	}

	if warnPattern.MatchString(line) {
		return models.SeverityNone, false
	}
	if criticalPattern.MatchString(line) {
		return models.SeverityCritical, true
	}
	if errorPattern.MatchString(line) {
		return models.SeverityError, true
	}

	// Passed the broad gate without an explicit tier marker.
	return models.SeverityError, true
}
