package nestmap

import (
	"context"

	"github.com/goliatone/go-nestmap/pkg/activity"
)

// WithActivityHooks reports successful Set, Delete and Update calls to
// hooks. An optional activity.Config overrides the channel or actor; hook
// failures are logged and never returned to the caller.
func WithActivityHooks(hooks activity.Hooks, settings ...activity.Config) Option {
	emitterCfg := activity.Config{Enabled: true}
	if len(settings) > 0 {
		emitterCfg = settings[0]
	}
	emitter := activity.NewEmitter(hooks, emitterCfg)
	return func(cfg *config) {
		cfg.activity = emitter
	}
}

// ActivityHooks returns a copy of the hooks configured on the tree.
func (m *TreeMap) ActivityHooks() activity.Hooks {
	return m.cfg.activity.Hooks()
}

func (m *TreeMap) emit(event activity.Event) {
	if !m.cfg.activity.Enabled() {
		return
	}
	if err := m.cfg.activity.Emit(context.Background(), event); err != nil {
		logger := m.cfg.log()
		logger.Error().Err(err).Str("verb", event.Verb).Str("object_id", event.ObjectID).
			Msg("Activity hook failed")
	}
}

func (m *TreeMap) emitSet(key string, old, value any) {
	if !m.cfg.activity.Enabled() {
		return
	}
	m.emit(activity.BuildSetEvent(activity.TreeEventInput{
		Tree:     m.Title(),
		Key:      key,
		OldValue: old,
		NewValue: toEntry(value).plain(),
	}))
}

func (m *TreeMap) emitDeleted(key string, old any) {
	if !m.cfg.activity.Enabled() {
		return
	}
	m.emit(activity.BuildDeletedEvent(activity.TreeEventInput{
		Tree:     m.Title(),
		Key:      key,
		OldValue: old,
	}))
}

func (m *TreeMap) emitMerged(incoming Pairs, warnings []MergeWarning) {
	if !m.cfg.activity.Enabled() {
		return
	}
	keys := make([]string, len(incoming))
	for i, pair := range incoming {
		keys[i] = pair.Key
	}
	m.emit(activity.BuildMergedEvent(activity.TreeEventInput{
		Tree:     m.Title(),
		Keys:     keys,
		Warnings: len(warnings),
	}))
}
