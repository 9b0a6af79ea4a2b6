package discovery

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
)

type fakePublisher struct {
	published []publishedMessage
}

type publishedMessage struct {
	topic   string
	payload interface{}
}

func (f *fakePublisher) Publish(suffix string, payload interface{}) error {
	f.published = append(f.published, publishedMessage{topic: "server/" + suffix, payload: payload})
	return nil
}

func (f *fakePublisher) PublishTopic(topic string, payload interface{}) error {
	f.published = append(f.published, publishedMessage{topic: topic, payload: payload})
	return nil
}

func (f *fakePublisher) Subscribe(string, interfaces.MessageHandler) error { return nil }

func (f *fakePublisher) Close() {}

func (f *fakePublisher) topics() []string {
	out := make([]string, len(f.published))
	for i, m := range f.published {
		out[i] = m.topic
	}
	return out
}

func newTestService(pub *fakePublisher) *Service {
	return NewService(pub, "server", arbor.NewLogger())
}

func TestPublishContainer(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub)

	require.NoError(t, svc.PublishContainer("plex"))
	assert.Len(t, pub.published, len(containerSensors))

	for _, topic := range pub.topics() {
		assert.True(t, strings.HasPrefix(topic, "homeassistant/sensor/container_plex_"), topic)
		assert.True(t, strings.HasSuffix(topic, "/config"), topic)
	}
}

func TestPublishContainer_OncePerName(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub)

	require.NoError(t, svc.PublishContainer("plex"))
	first := len(pub.published)

	require.NoError(t, svc.PublishContainer("plex"))
	assert.Len(t, pub.published, first)

	require.NoError(t, svc.PublishContainer("sonarr"))
	assert.Len(t, pub.published, first*2)
}

func TestPublishContainer_SanitizesObjectID(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub)

	require.NoError(t, svc.PublishContainer("home-assistant.db"))

	assert.Contains(t, pub.topics(), "homeassistant/sensor/container_home_assistant_db_status/config")

	// State topics keep the original container name.
	var cfg entityConfig
	data, err := json.Marshal(pub.published[0].payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, "server/containers/home-assistant.db/status", cfg.StateTopic)
}

func TestPublishSystem(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub)

	require.NoError(t, svc.PublishSystem())

	topics := pub.topics()
	assert.Contains(t, topics, "homeassistant/sensor/server_updates_count/config")
	assert.Contains(t, topics, "homeassistant/sensor/server_updates_status/config")
	assert.Contains(t, topics, "homeassistant/sensor/server_io_error_count/config")
	assert.Contains(t, topics, "homeassistant/sensor/server_last_io_error/config")
	assert.Contains(t, topics, "homeassistant/button/server_run_updates/config")

	// Initial values seed the server-wide topics.
	assert.Contains(t, topics, "server/updates/status")
	assert.Contains(t, topics, "server/system/last_io_error")
	assert.Contains(t, topics, "server/system/io_error_count")
}

func TestPublishSystem_Idempotent(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub)

	require.NoError(t, svc.PublishSystem())
	count := len(pub.published)

	require.NoError(t, svc.PublishSystem())
	assert.Len(t, pub.published, count)
}

func TestPublishSystem_ButtonCommandTopic(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub)

	require.NoError(t, svc.PublishSystem())

	for _, m := range pub.published {
		if m.topic != "homeassistant/button/server_run_updates/config" {
			continue
		}
		cfg, ok := m.payload.(entityConfig)
		require.True(t, ok)
		assert.Equal(t, "server/updates/trigger", cfg.CommandTopic)
		assert.Equal(t, "run", cfg.PayloadPress)
		return
	}
	t.Fatal("button discovery document not published")
}
