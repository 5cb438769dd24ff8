package errors

import (
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	// Assert that wrapping sentinel errors work as expected.
	sentinel := NewSentinel("test error")
	require.NotErrorIs(t, err, NewSentinel("test error"))
	wrapped := Wrap(sentinel, "more context", slog.String("key", "value"))
	require.ErrorIs(t, wrapped, sentinel)
	require.Equal(t, "more context: test error", wrapped.Error())

	// Ensure log values are coming through.
	group := err.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source.
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	source := group[sourceIdx]
	require.Contains(t, source.Value.String(), "annotatederror_test.go")
}

func TestSlogError(t *testing.T) {
	attr := SlogError(Wrap(NewSentinel("boom"), "load roster"))
	require.Equal(t, "error", attr.Key)

	plain := SlogError(NewSentinel("boom"))
	require.Equal(t, "error", plain.Key)
}
