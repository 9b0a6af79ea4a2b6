package scanner

import (
	"regexp"
	"strings"
)

// Tier patterns evaluated in fixed priority order: warning exclusion first,
// then critical, then error. A line that passes the broad keyword gate but
// matches no explicit tier defaults to ERROR.
var (
	warnPattern     = regexp.MustCompile(`(?i)\bWARN(ING)?\b|\bWRN\b|level[=:]warn|\[WARN`)
	criticalPattern = regexp.MustCompile(`(?i)\bCRITICAL\b|\bFATAL\b|level[=:]critical|"level"\s*:\s*"critical"`)
	errorPattern    = regexp.MustCompile(`(?i)\bERROR\b|level[=:]error|"level"\s*:\s*"error"|Exception|Traceback`)
)

// Ruleset is the classification rule table for one entity class. The
// container ruleset matches keywords case-insensitively and tiers matches
// into CRITICAL/ERROR with warning exclusion; the kernel ruleset matches its
// keywords case-sensitively and produces flat, untiered events.
type Ruleset struct {
	keywords []string
	fold     bool // case-insensitive keyword matching
	tiered   bool
}

// NewContainerRuleset builds the tiered ruleset used for container logs.
func NewContainerRuleset(keywords []string) *Ruleset {
	folded := make([]string, len(keywords))
	for i, kw := range keywords {
		folded[i] = strings.ToLower(kw)
	}
	return &Ruleset{keywords: folded, fold: true, tiered: true}
}

// NewKernelRuleset builds the flat ruleset used for the kernel ring buffer.
// No warning exclusion and no severity tiers: every matched line is an I/O
// error event.
func NewKernelRuleset(keywords []string) *Ruleset {
	return &Ruleset{keywords: append([]string(nil), keywords...)}
}

func (r *Ruleset) matchesKeyword(line string) bool {
	probe := line
	if r.fold {
		probe = strings.ToLower(line)
	}
	for _, kw := range r.keywords {
		if strings.Contains(probe, kw) {
			return true
		}
	}
	return false
}
