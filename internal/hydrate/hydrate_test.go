package hydrate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type sensorSettings struct {
	Name     string        `mapstructure:"name"`
	Interval time.Duration `mapstructure:"interval"`
	Tags     []string      `mapstructure:"tags"`
	OBS      struct {
		Temperature float64 `mapstructure:"temperature"`
		Unit        string  `mapstructure:"unit"`
	} `mapstructure:"OBS"`
}

func TestDecodeNestedPayload(t *testing.T) {
	decoder := NewDecoder[sensorSettings]()
	got, err := decoder.Decode(Context{Title: "sensors"}, map[string]any{
		"name":     "station",
		"interval": "90s",
		"tags":     "roof,north",
		"OBS":      map[string]any{"temperature": 21.5, "unit": "C"},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	var want sensorSettings
	want.Name = "station"
	want.Interval = 90 * time.Second
	want.Tags = []string{"roof", "north"}
	want.OBS.Temperature = 21.5
	want.OBS.Unit = "C"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeWeaklyTypedInput(t *testing.T) {
	type limits struct {
		Retries int `mapstructure:"retries"`
	}
	payload := map[string]any{"retries": "3"}

	if _, err := NewDecoder[limits]().Decode(Context{Title: "limits"}, payload); err == nil {
		t.Fatalf("expected strict decoding to reject a string")
	}
	got, err := NewDecoder[limits](WithWeaklyTypedInput[limits]()).Decode(Context{Title: "limits"}, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Retries != 3 {
		t.Fatalf("expected 3, got %d", got.Retries)
	}
}

func TestDecodeErrorUnused(t *testing.T) {
	type named struct {
		Name string `mapstructure:"name"`
	}
	decoder := NewDecoder[named](WithErrorUnused[named]())
	_, err := decoder.Decode(Context{Title: "tree", Key: "!a"}, map[string]any{"name": "x", "extra": 1})
	if err == nil || !strings.Contains(err.Error(), "extra") {
		t.Fatalf("expected unused key error, got %v", err)
	}
}

func TestDecodeHooksRunInOrder(t *testing.T) {
	type named struct {
		Name string `mapstructure:"name"`
	}
	payload := map[string]any{"name": "station"}
	decoder := NewDecoder[named](
		WithPreHook[named](func(_ Context, in map[string]any) (map[string]any, error) {
			in["name"] = strings.ToUpper(in["name"].(string))
			return in, nil
		}),
		WithPostHook[named](func(ctx Context, out *named) error {
			out.Name += "@" + ctx.Title
			return nil
		}),
	)

	got, err := decoder.Decode(Context{Title: "sensors"}, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "STATION@sensors" {
		t.Fatalf("unexpected name %q", got.Name)
	}
	if payload["name"] != "station" {
		t.Fatalf("pre-hook must not modify the caller's payload, got %v", payload["name"])
	}
}

func TestDecodeHookErrors(t *testing.T) {
	type named struct{ Name string }
	boom := errors.New("boom")

	_, err := NewDecoder[named](WithPostHook[named](func(Context, *named) error { return boom })).
		Decode(Context{Title: "t"}, map[string]any{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected post-hook error, got %v", err)
	}

	_, err = NewDecoder[named](WithPreHook[named](func(Context, map[string]any) (map[string]any, error) { return nil, boom })).
		Decode(Context{Title: "t"}, map[string]any{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected pre-hook error, got %v", err)
	}
}

func TestDecodeNilPayload(t *testing.T) {
	if _, err := NewDecoder[struct{}]().Decode(Context{Title: "t"}, nil); err == nil {
		t.Fatalf("expected nil payload error")
	}
}

func TestDecodeCustomTag(t *testing.T) {
	type tagged struct {
		Name string `yaml:"display_name"`
	}
	got, err := NewDecoder[tagged](WithTagName[tagged]("yaml")).
		Decode(Context{Title: "t"}, map[string]any{"display_name": "x"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "x" {
		t.Fatalf("expected x, got %q", got.Name)
	}
}
