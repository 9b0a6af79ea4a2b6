package publish

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/models"
)

func TestRender_ContainerWithErrors(t *testing.T) {
	st := models.EntityErrorState{
		EntityID:       "plex",
		Class:          models.EntityContainer,
		HasEverErrored: true,
		LastError:      models.ClassifiedEvent{Level: models.SeverityCritical, Msg: "disk full", Timestamp: "2024-06-01T12:00:00Z"},
		LastErrorLevel: models.SeverityCritical,
		RecentErrors: []models.ClassifiedEvent{
			{Level: models.SeverityCritical, Msg: "disk full", Timestamp: "2024-06-01T12:00:00Z"},
		},
		CurrentWindowCount: 1,
	}

	msgs := Render(st)
	require.Len(t, msgs, 4)

	assert.Equal(t, "containers/plex/error_count", msgs[0].TopicSuffix)
	assert.Equal(t, 1, msgs[0].Payload)

	assert.Equal(t, "containers/plex/last_error", msgs[1].TopicSuffix)
	assert.Equal(t, lastErrorPayload{Level: models.SeverityCritical, Msg: "disk full"}, msgs[1].Payload)

	assert.Equal(t, "containers/plex/last_error_level", msgs[2].TopicSuffix)
	assert.Equal(t, "CRITICAL", msgs[2].Payload)

	assert.Equal(t, "containers/plex/errors", msgs[3].TopicSuffix)
	assert.Equal(t, st.RecentErrors, msgs[3].Payload)
}

func TestRender_ContainerNeverErrored(t *testing.T) {
	st := models.EntityErrorState{
		EntityID:       "plex",
		Class:          models.EntityContainer,
		LastError:      models.NoErrorSentinel(models.EntityContainer),
		LastErrorLevel: models.SeverityNone,
	}

	msgs := Render(st)
	require.Len(t, msgs, 3)

	assert.Equal(t, 0, msgs[0].Payload)
	assert.Equal(t, lastErrorPayload{Level: models.SeverityNone, Msg: "none"}, msgs[1].Payload)
	assert.Equal(t, "NONE", msgs[2].Payload)

	for _, m := range msgs {
		assert.NotEqual(t, "containers/plex/errors", m.TopicSuffix)
	}
}

// last_error serializes as a two-field JSON document.
func TestRender_LastErrorPayloadShape(t *testing.T) {
	msgs := Render(models.EntityErrorState{
		EntityID:       "plex",
		Class:          models.EntityContainer,
		HasEverErrored: true,
		LastError:      models.ClassifiedEvent{Level: models.SeverityError, Msg: "boom", Timestamp: "2024-06-01T12:00:00Z"},
		LastErrorLevel: models.SeverityError,
	})

	data, err := json.Marshal(msgs[1].Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"ERROR","msg":"boom"}`, string(data))
}

func TestRender_KernelWithErrors(t *testing.T) {
	ev := models.ClassifiedEvent{Msg: "I/O error, dev sda", Timestamp: "2024-06-01T12:00:00Z"}
	st := models.EntityErrorState{
		EntityID:           "kernel",
		Class:              models.EntityKernel,
		HasEverErrored:     true,
		LastError:          ev,
		RecentErrors:       []models.ClassifiedEvent{ev},
		CurrentWindowCount: 1,
	}

	msgs := Render(st)
	require.Len(t, msgs, 3)

	assert.Equal(t, "system/io_error_count", msgs[0].TopicSuffix)
	assert.Equal(t, 1, msgs[0].Payload)
	assert.Equal(t, "system/last_io_error", msgs[1].TopicSuffix)
	assert.Equal(t, "system/kernel_errors", msgs[2].TopicSuffix)

	// Flat kernel events carry no level field on the wire.
	data, err := json.Marshal(msgs[1].Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"msg":"I/O error, dev sda","timestamp":"2024-06-01T12:00:00Z"}`, string(data))
}

func TestRender_KernelNeverErrored(t *testing.T) {
	st := models.EntityErrorState{
		EntityID:  "kernel",
		Class:     models.EntityKernel,
		LastError: models.NoErrorSentinel(models.EntityKernel),
	}

	msgs := Render(st)
	require.Len(t, msgs, 1)
	assert.Equal(t, "system/io_error_count", msgs[0].TopicSuffix)
	assert.Equal(t, 0, msgs[0].Payload)
}
