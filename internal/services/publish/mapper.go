package publish

import (
	"github.com/ternarybob/vigil/internal/models"
)

// Message is one outbound bus record: a topic suffix under the configured
// prefix and a payload (string, integer or JSON-serializable value).
type Message struct {
	TopicSuffix string
	Payload     interface{}
}

// lastErrorPayload is the JSON shape of the containers' last_error topic.
type lastErrorPayload struct {
	Level models.Severity `json:"level"`
	Msg   string          `json:"msg"`
}

// Render projects tracker state into the ordered set of bus messages for an
// entity. Deterministic and I/O free; whether error fields still hold prior
// state is decided by the tracker, never here.
func Render(st models.EntityErrorState) []Message {
	if st.Class == models.EntityKernel {
		return renderKernel(st)
	}
	return renderContainer(st)
}

func renderContainer(st models.EntityErrorState) []Message {
	base := "containers/" + st.EntityID

	msgs := []Message{
		{TopicSuffix: base + "/error_count", Payload: st.CurrentWindowCount},
		{TopicSuffix: base + "/last_error", Payload: lastErrorPayload{Level: st.LastErrorLevel, Msg: st.LastError.Msg}},
		{TopicSuffix: base + "/last_error_level", Payload: string(st.LastErrorLevel)},
	}

	if len(st.RecentErrors) > 0 {
		msgs = append(msgs, Message{TopicSuffix: base + "/errors", Payload: st.RecentErrors})
	}

	return msgs
}

func renderKernel(st models.EntityErrorState) []Message {
	msgs := []Message{
		{TopicSuffix: "system/io_error_count", Payload: st.CurrentWindowCount},
	}

	// Kernel events are flat: last_io_error carries msg and timestamp only.
	if st.HasEverErrored {
		msgs = append(msgs,
			Message{TopicSuffix: "system/last_io_error", Payload: st.LastError},
			Message{TopicSuffix: "system/kernel_errors", Payload: st.RecentErrors},
		)
	}

	return msgs
}
