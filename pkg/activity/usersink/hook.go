// Package usersink forwards tree activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-nestmap/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink. When Verbs is set
// only those verbs are forwarded.
type Hook struct {
	Sink  usertypes.ActivitySink
	Verbs []string
}

// Notify maps the event into an ActivityRecord and logs it. The actor is
// recorded as the user; non-UUID identifiers map to uuid.Nil and are kept in
// the record data.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if len(h.Verbs) > 0 && !slices.Contains(h.Verbs, normalized.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := cloneMap(normalized.Metadata)
	actorID, ok := parseUUID(normalized.ActorID)
	if !ok && normalized.ActorID != "" {
		data = withEntry(data, "actor", normalized.ActorID)
	}
	tenantID, ok := parseUUID(normalized.TenantID)
	if !ok && normalized.TenantID != "" {
		data = withEntry(data, "tenant", normalized.TenantID)
	}

	record := usertypes.ActivityRecord{
		ActorID:    actorID,
		UserID:     actorID,
		TenantID:   tenantID,
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       data,
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	return h.Sink.Log(ctx, record)
}

func parseUUID(input string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func withEntry(data map[string]any, key string, value any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	data[key] = value
	return data
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
