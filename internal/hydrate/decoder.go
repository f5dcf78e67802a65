// Package hydrate decodes plain nested maps, such as a tree snapshot, into
// typed structs.
package hydrate

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Context identifies the tree and key a payload was taken from.
type Context struct {
	Title string
	Key   string
}

func (c Context) String() string {
	if c.Key == "" {
		return c.Title
	}
	return c.Title + " " + c.Key
}

// PreHook lets callers mutate or normalise the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded struct.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts nested maps into T using mapstructure.
type Decoder[T any] struct {
	preHooks    []PreHook
	postHooks   []PostHook[T]
	decodeHooks []mapstructure.DecodeHookFunc
	weakly      bool
	errorUnused bool
	tagName     string
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithWeaklyTypedInput lets "42" decode into an int and similar conversions.
func WithWeaklyTypedInput[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.weakly = true
	}
}

// WithErrorUnused fails decoding when the payload has keys T does not use.
func WithErrorUnused[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.errorUnused = true
	}
}

// WithTagName reads field names from tag instead of "mapstructure".
func WithTagName[T any](tag string) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.tagName = tag
	}
}

// WithDecodeHook adds a mapstructure decode hook.
func WithDecodeHook[T any](hook mapstructure.DecodeHookFunc) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.decodeHooks = append(d.decodeHooks, hook)
		}
	}
}

// NewDecoder returns a decoder that always understands duration strings and
// comma-separated lists.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{
		decodeHooks: []mapstructure.DecodeHookFunc{
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T applying configured hooks. The payload is
// never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T

	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for %q", ctx)
	}

	current := clonePayload(payload)
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %q failed: %w", ctx, err)
		}
		if next != nil {
			current = next
		}
	}

	var result T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &result,
		WeaklyTypedInput: d.weakly,
		ErrorUnused:      d.errorUnused,
		TagName:          d.tagName,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(d.decodeHooks...),
	})
	if err != nil {
		return zero, fmt.Errorf("hydrate: configure decoder for %q: %w", ctx, err)
	}
	if err := decoder.Decode(current); err != nil {
		return zero, fmt.Errorf("hydrate: decode %q: %w", ctx, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx, err)
		}
	}

	return result, nil
}

func clonePayload(payload map[string]any) map[string]any {
	return cloneValue(payload).(map[string]any)
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return typed
	}
}
