package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/vigil/internal/models"
)

func defaultContainerRuleset() *Ruleset {
	return NewContainerRuleset([]string{"ERROR", "CRITICAL", "WARN", "WARNING", "Exception", "FATAL"})
}

func TestContainerClassify(t *testing.T) {
	rules := defaultContainerRuleset()

	tests := []struct {
		name    string
		line    string
		tier    models.Severity
		matched bool
	}{
		{
			name:    "plain error line",
			line:    "2024-01-01 ERROR failed to connect to database",
			tier:    models.SeverityError,
			matched: true,
		},
		{
			name:    "critical line",
			line:    "CRITICAL: storage pool degraded",
			tier:    models.SeverityCritical,
			matched: true,
		},
		{
			name:    "fatal maps to critical",
			line:    "FATAL: cannot allocate memory",
			tier:    models.SeverityCritical,
			matched: true,
		},
		{
			name:    "critical outranks error on the same line",
			line:    "FATAL: unrecoverable ERROR in checkpoint",
			tier:    models.SeverityCritical,
			matched: true,
		},
		{
			name:    "dated error line",
			line:    "2024-01-01 ERROR: disk full",
			tier:    models.SeverityError,
			matched: true,
		},
		{
			name:    "lowercase error still matches",
			line:    "request error: connection refused",
			tier:    models.SeverityError,
			matched: true,
		},
		{
			name:    "structured level field",
			line:    `time=12:00 level=error msg="upstream gone"`,
			tier:    models.SeverityError,
			matched: true,
		},
		{
			name:    "json critical level",
			line:    `{"level": "critical", "msg": "disk full"}`,
			tier:    models.SeverityCritical,
			matched: true,
		},
		{
			name:    "exception defaults through error pattern",
			line:    "Unhandled Exception in request handler",
			tier:    models.SeverityError,
			matched: true,
		},
		{
			name:    "warning excluded",
			line:    "WARNING: certificate expires in 10 days",
			matched: false,
		},
		{
			name:    "structured warn level excluded",
			line:    "level=warn msg=retrying",
			matched: false,
		},
		{
			name:    "wrn token excluded",
			line:    "12:00:00 WRN ERROR rate above threshold",
			matched: false,
		},
		{
			name:    "warning wins over error keyword",
			line:    "WARN: previous ERROR count reset",
			matched: false,
		},
		{
			name:    "bracketed warn tag excluded",
			line:    "[WARN] ERROR budget exhausted",
			matched: false,
		},
		{
			name:    "no keyword at all",
			line:    "GET /healthz 200 OK",
			matched: false,
		},
		{
			name:    "benign status line",
			line:    "request completed successfully",
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, matched := rules.Classify(tt.line)
			assert.Equal(t, tt.matched, matched)
			if tt.matched {
				assert.Equal(t, tt.tier, tier)
			}
		})
	}
}

// A keyword gate hit without any explicit tier marker classifies as ERROR.
func TestContainerClassify_DefaultTier(t *testing.T) {
	rules := NewContainerRuleset([]string{"panic", "Traceback"})

	tier, matched := rules.Classify("panic: runtime index out of range")
	assert.True(t, matched)
	assert.Equal(t, models.SeverityError, tier)

	// Traceback matches the error pattern explicitly.
	tier, matched = rules.Classify("Traceback (most recent call last):")
	assert.True(t, matched)
	assert.Equal(t, models.SeverityError, tier)
}

func TestKernelClassify(t *testing.T) {
	rules := NewKernelRuleset([]string{"i/o error", "I/O error", "nvme", "blk_update_request"})

	t.Run("matched lines are flat events", func(t *testing.T) {
		tier, matched := rules.Classify("[Mon Jan  1 00:00:00 2024] blk_update_request: I/O error, dev sda, sector 120")
		assert.True(t, matched)
		assert.Equal(t, models.Severity(""), tier)
	})

	t.Run("matching is case sensitive", func(t *testing.T) {
		_, matched := rules.Classify("NVME controller resetting")
		assert.False(t, matched)

		_, matched = rules.Classify("nvme0: controller resetting")
		assert.True(t, matched)
	})

	t.Run("no warning exclusion", func(t *testing.T) {
		_, matched := rules.Classify("WARNING: nvme0 queue depth reduced")
		assert.True(t, matched)
	})
}
