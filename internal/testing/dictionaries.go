// Package testing holds fixtures shared by the codec generation tests.
package testing

import (
	"embed"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Alia5/sharedcodecs/internal/dictionary"
	"github.com/Alia5/sharedcodecs/internal/dictionary/merge"
	"github.com/Alia5/sharedcodecs/internal/source"
)

//go:embed testdata/*.xml
var testdata embed.FS

// Declared names of the three related dictionaries, as a user would pass
// them, and their normalised forms.
const (
	Dict1 = "shared.dictionary.1"
	Dict2 = "shared_dictionary_2"
	Dict3 = "shared_dictionary.3"

	Dict1Norm = "shared_dictionary_1"
	Dict2Norm = "shared_dictionary_2"
	Dict3Norm = "shared_dictionary_3"
)

// SharedNames returns the declared dictionary names in input order.
func SharedNames() []string { return []string{Dict1, Dict2, Dict3} }

// Schema returns the raw XML of a fixture dictionary by declared name.
func Schema(t *testing.T, name string) string {
	t.Helper()
	data, err := testdata.ReadFile("testdata/" + name + ".xml")
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

// Sources opens every fixture as a schema source, in input order.
func Sources(t *testing.T) []source.Source {
	t.Helper()
	var srcs []source.Source
	for _, name := range SharedNames() {
		srcs = append(srcs, source.FromString(name+".xml", Schema(t, name)))
	}
	return srcs
}

// Dictionary builds a dictionary named name from one or more XML fragments.
func Dictionary(t *testing.T, name string, fragments ...string) *dictionary.Dictionary {
	t.Helper()
	srcs := make([]source.Source, 0, len(fragments))
	for i, f := range fragments {
		srcs = append(srcs, source.FromString(name+"#"+string(rune('0'+i)), f))
	}
	d, err := merge.Fragments(name, srcs, merge.Options{}, Logger(t))
	if err != nil {
		t.Fatalf("merge %s: %v", name, err)
	}
	return d
}

// SharedDictionaries parses the three fixtures under their normalised names.
func SharedDictionaries(t *testing.T) []*dictionary.Dictionary {
	t.Helper()
	return []*dictionary.Dictionary{
		Dictionary(t, Dict1Norm, Schema(t, Dict1)),
		Dictionary(t, Dict2Norm, Schema(t, Dict2)),
		Dictionary(t, Dict3Norm, Schema(t, Dict3)),
	}
}

// Logger returns a logger that writes through t.Log at debug level.
func Logger(t *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// DiscardLogger drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
