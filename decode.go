package nestmap

import (
	"fmt"

	"github.com/goliatone/go-nestmap/internal/hydrate"
)

// Decode copies the sub-mapping under key (the whole view when key is
// empty) into a T. Field names follow mapstructure tags, and string values
// are converted to numbers, booleans and durations where T asks for them.
// Bang-string values inside the sub-mapping are decoded as stored.
func Decode[T any](view Lookup, key string) (T, error) {
	var zero T
	payload := Snapshot(view)
	if key != "" {
		value, err := view.Get(key)
		if err != nil {
			return zero, err
		}
		if !value.IsMap() {
			return zero, fmt.Errorf("%w: %q holds a single value, not a sub-mapping", ErrInvalidInput, key)
		}
		payload = Snapshot(value.View())
	}
	decoder := hydrate.NewDecoder[T](hydrate.WithWeaklyTypedInput[T]())
	return decoder.Decode(hydrate.Context{Title: view.Title(), Key: key}, payload)
}
