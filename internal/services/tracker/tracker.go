package tracker

import (
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/models"
)

// entityRecord pairs an entity's state with its own lock so scans for
// different entities can merge in parallel.
type entityRecord struct {
	mu    sync.Mutex
	state models.EntityErrorState
}

// Registry owns all per-entity error state. Entities are created lazily on
// first observation and live for the process lifetime, which covers
// containers that later disappear from the runtime inventory. Only Merge
// mutates state; callers receive snapshot copies.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*entityRecord
	logger   arbor.ILogger
}

// NewRegistry creates an empty tracker registry.
func NewRegistry(logger arbor.ILogger) *Registry {
	return &Registry{
		entities: make(map[string]*entityRecord),
		logger:   logger,
	}
}

// Merge folds one scan result into the entity's persistent state and returns
// a snapshot of the result.
//
// Rules, in order:
//   - CurrentWindowCount always reflects this window's match count.
//   - A non-empty window sets the sticky HasEverErrored flag, takes the last
//     event of the window as the most recent error (most recent occurrence
//     wins, not highest severity) and appends all events to the bounded
//     recent-errors buffer, evicting the oldest entries.
//   - An empty window on an entity that has errored before leaves the error
//     fields untouched; prior state is never cleared.
//   - An empty window on an entity that has never errored publishes as the
//     explicit "no error" sentinel.
func (r *Registry) Merge(entityID string, class models.EntityClass, result models.ScanResult) models.EntityErrorState {
	rec := r.record(entityID, class)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	st := &rec.state
	st.CurrentWindowCount = result.TotalMatches

	if len(result.Events) > 0 {
		st.HasEverErrored = true

		last := result.Events[len(result.Events)-1]
		st.LastError = last
		st.LastErrorLevel = last.Level

		st.RecentErrors = append(st.RecentErrors, result.Events...)
		if bound := class.RetentionBound(); len(st.RecentErrors) > bound {
			trimmed := make([]models.ClassifiedEvent, bound)
			copy(trimmed, st.RecentErrors[len(st.RecentErrors)-bound:])
			st.RecentErrors = trimmed
		}
	} else if !st.HasEverErrored {
		st.LastError = models.NoErrorSentinel(class)
		st.LastErrorLevel = models.SeverityNone
	}

	return snapshot(st)
}

// Get returns a snapshot of an entity's state, if it has been observed.
func (r *Registry) Get(entityID string) (models.EntityErrorState, bool) {
	r.mu.RLock()
	rec, ok := r.entities[entityID]
	r.mu.RUnlock()

	if !ok {
		return models.EntityErrorState{}, false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return snapshot(&rec.state), true
}

// record returns the entity's record, creating it on first observation.
func (r *Registry) record(entityID string, class models.EntityClass) *entityRecord {
	r.mu.RLock()
	rec, ok := r.entities[entityID]
	r.mu.RUnlock()
	if ok {
		return rec
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok = r.entities[entityID]; ok {
		return rec
	}

	rec = &entityRecord{
		state: models.EntityErrorState{
			EntityID:       entityID,
			Class:          class,
			LastError:      models.NoErrorSentinel(class),
			LastErrorLevel: models.SeverityNone,
		},
	}
	r.entities[entityID] = rec

	r.logger.Debug().
		Str("entity_id", entityID).
		Str("class", string(class)).
		Msg("Tracking new entity")

	return rec
}

func snapshot(st *models.EntityErrorState) models.EntityErrorState {
	out := *st
	out.RecentErrors = append([]models.ClassifiedEvent(nil), st.RecentErrors...)
	return out
}
