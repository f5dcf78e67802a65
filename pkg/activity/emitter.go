package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events that name no channel.
const DefaultChannel = "nestmap"

// Config controls emission defaults.
type Config struct {
	Enabled bool
	Channel string
	// ActorID is stamped on events that carry none.
	ActorID string
}

// Emitter fans events out to hooks while applying defaults.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
	actorID string
}

// NewEmitter builds an emitter. It stays disabled without hooks.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	kept := cloneHooks(hooks)
	return &Emitter{
		hooks:   kept,
		enabled: cfg.Enabled && len(kept) > 0,
		channel: channel,
		actorID: strings.TrimSpace(cfg.ActorID),
	}
}

// Enabled reports whether emissions will reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled && len(e.hooks) > 0
}

// Hooks returns a copy of the configured hooks.
func (e *Emitter) Hooks() Hooks {
	if e == nil {
		return nil
	}
	return cloneHooks(e.hooks)
}

// Emit forwards event to all hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.ActorID) == "" {
		event.ActorID = e.actorID
	}
	return e.hooks.Notify(ctx, event)
}

func cloneHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	kept := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			kept = append(kept, hook)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
