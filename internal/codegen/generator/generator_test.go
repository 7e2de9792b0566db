package generator

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/sharedcodecs/internal/codegen/generator/golang"
	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
	"github.com/Alia5/sharedcodecs/internal/diag"
	"github.com/Alia5/sharedcodecs/internal/source"
	th "github.com/Alia5/sharedcodecs/internal/testing"
)

const module = "example.com/venues"

type trackedCloser struct {
	io.Reader
	closed bool
}

func (c *trackedCloser) Close() error {
	c.closed = true
	return nil
}

// tracked wraps srcs so a test can check they were all closed.
func tracked(srcs []source.Source) ([]source.Source, []*trackedCloser) {
	out := make([]source.Source, len(srcs))
	closers := make([]*trackedCloser, len(srcs))
	for i, s := range srcs {
		closers[i] = &trackedCloser{Reader: s.ReadCloser}
		out[i] = source.Source{Name: s.Name, ReadCloser: closers[i]}
	}
	return out, closers
}

func assertClosed(t *testing.T, closers []*trackedCloser) {
	t.Helper()
	for i, c := range closers {
		assert.True(t, c.closed, "source %d left open", i)
	}
}

func sharedConfig(mem *output.Memory) Config {
	return Config{
		OutputDir:       "out",
		Module:          module,
		Shared:          true,
		DictionaryNames: th.SharedNames(),
		Output:          mem.Factory,
	}
}

func generateShared(t *testing.T) *output.Memory {
	t.Helper()
	mem := output.NewMemory()
	srcs, closers := tracked(th.Sources(t))
	require.NoError(t, New(sharedConfig(mem), th.Logger(t)).Generate(srcs))
	assertClosed(t, closers)
	return mem
}

func file(t *testing.T, mem *output.Memory, ns, name string) string {
	t.Helper()
	data, ok := mem.File(ns, name)
	require.True(t, ok, "%s/%s not generated", ns, name)
	return string(data)
}

var specializedNamespaces = []string{th.Dict1Norm, th.Dict2Norm, th.Dict3Norm}

func TestGenerateSharedNamespaces(t *testing.T) {
	mem := generateShared(t)

	want := []string{"", "encoder", "decoder"}
	for _, ns := range specializedNamespaces {
		want = append(want, ns, ns+"/encoder", ns+"/decoder")
	}
	assert.Equal(t, want, mem.Namespaces())
}

// Scenario: a field with the same type everywhere has exactly one accessor,
// in the shared namespace.
func TestGenerateSharedField(t *testing.T) {
	mem := generateShared(t)

	assert.Contains(t, file(t, mem, "decoder", "decoder.go"), "func (s *ExecutionReportDecoderState) OrderID() string")
	for _, ns := range specializedNamespaces {
		dec := file(t, mem, ns+"/decoder", "decoder.go")
		assert.NotContains(t, dec, "func (d *ExecutionReportDecoder) OrderID()", ns)
		assert.NotContains(t, dec, "func (d *ExecutionReportDecoder) ResetOrderID()", ns)
	}
}

// Scenario: incompatible base types keep the field out of the contract and
// every dictionary declares its own accessor.
func TestGenerateTypeClash(t *testing.T) {
	mem := generateShared(t)

	assert.NotContains(t, file(t, mem, "decoder", "decoder.go"), "ClashingType")
	assert.NotContains(t, file(t, mem, "encoder", "encoder.go"), "ClashingType")
	for _, ns := range specializedNamespaces {
		assert.Contains(t, file(t, mem, ns+"/decoder", "decoder.go"), "func (d *ExecutionReportDecoder) ClashingType() ", ns)
		assert.Contains(t, file(t, mem, ns+"/encoder", "encoder.go"), "func (e *ExecutionReportEncoder) SetClashingType(", ns)
	}
}

// Scenario: a colliding enum name becomes an alternate name of the majority
// constant instead of a constant of its own.
func TestGenerateEnumAltName(t *testing.T) {
	mem := generateShared(t)

	enums := file(t, mem, "", "enums.go")
	assert.Contains(t, enums, "Altnames: VALUE_CLASH")
	assert.Contains(t, enums, `{"0", "NEW"}`)
	assert.NotContains(t, enums, "CollisionEnumValueClash")
}

// Scenario: a message defined by one dictionary only exists in its namespace.
func TestGenerateLocalMessage(t *testing.T) {
	mem := generateShared(t)

	for _, ns := range []string{"", "encoder", "decoder"} {
		for _, name := range mem.Files(ns) {
			assert.NotContains(t, file(t, mem, ns, name), "NewOrderSingle", "%s/%s", ns, name)
		}
	}
	assert.Contains(t, file(t, mem, th.Dict1Norm+"/decoder", "decoder.go"), "type NewOrderSingleDecoder struct")
	for _, ns := range specializedNamespaces[1:] {
		for _, sub := range []string{"", "/encoder", "/decoder"} {
			for _, name := range mem.Files(ns + sub) {
				assert.NotContains(t, file(t, mem, ns+sub, name), "NewOrderSingle", "%s%s/%s", ns, sub, name)
			}
		}
	}
}

// Scenario: optional in one dictionary makes the shared presence optional,
// while the others still validate it as required.
func TestGeneratePresence(t *testing.T) {
	mem := generateShared(t)

	assert.NotContains(t, file(t, mem, "decoder", "decoder.go"), "HasOrdStatus")
	assert.Contains(t, file(t, mem, th.Dict2Norm+"/decoder", "decoder.go"), "HasOrdStatus() bool")
	for _, ns := range []string{th.Dict1Norm, th.Dict3Norm} {
		dec := file(t, mem, ns+"/decoder", "decoder.go")
		assert.NotContains(t, dec, "HasOrdStatus", ns)
		assert.Contains(t, dec, "if !(d.IsSet(39))", ns)
	}
}

// Scenario: a component present everywhere has one shared contract and a
// usable variant per dictionary.
func TestGenerateSharedComponent(t *testing.T) {
	mem := generateShared(t)

	assert.Contains(t, file(t, mem, "decoder", "decoder.go"), "type InstrumentDecoder interface")
	for _, ns := range specializedNamespaces {
		dec := file(t, mem, ns+"/decoder", "decoder.go")
		assert.Contains(t, dec, "type InstrumentDecoder struct", ns)
		assert.Contains(t, dec, "var _ shareddecoder.InstrumentDecoder = (*InstrumentDecoder)(nil)", ns)
	}
}

func TestGenerateFlyweight(t *testing.T) {
	mem := output.NewMemory()
	cfg := sharedConfig(mem)
	cfg.Flyweight = true
	require.NoError(t, New(cfg, th.Logger(t)).Generate(th.Sources(t)))

	assert.Contains(t, mem.Namespaces(), "decoder_flyweight")
	for _, ns := range specializedNamespaces {
		assert.Contains(t, file(t, mem, ns+"/decoder_flyweight", "decoder.go"), "Wrap(buf []byte) error", ns)
	}
}

func TestGenerateStandalone(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		srcs func(t *testing.T) []source.Source
		dict string
	}{
		{
			name: "sharing disabled folds every source",
			cfg:  Config{Module: module, DictionaryNames: []string{"venue"}},
			srcs: th.Sources,
			dict: "venue",
		},
		{
			name: "sharing a single source",
			cfg:  Config{Module: module, Shared: true, DictionaryNames: []string{th.Dict1}},
			srcs: func(t *testing.T) []source.Source { return th.Sources(t)[:1] },
			dict: th.Dict1,
		},
		{
			name: "unnamed dictionary takes the module name",
			cfg:  Config{Module: module},
			srcs: func(t *testing.T) []source.Source { return th.Sources(t)[:1] },
			dict: "venues",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := output.NewMemory()
			tt.cfg.Output = mem.Factory
			srcs, closers := tracked(tt.srcs(t))
			require.NoError(t, New(tt.cfg, th.Logger(t)).Generate(srcs))
			assertClosed(t, closers)

			assert.Equal(t, []string{"", "encoder", "decoder"}, mem.Namespaces())
			assert.Regexp(t, `Name:\s+"`+regexp.QuoteMeta(tt.dict)+`"`, file(t, mem, "", "dictionary.go"))
			assert.Contains(t, file(t, mem, "decoder", "decoder.go"), "type NewOrderSingleDecoder struct")
			assert.NotContains(t, file(t, mem, "decoder", "decoder.go"), "shareddecoder")
		})
	}
}

func TestGenerateConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		srcs int
	}{
		{name: "names do not match sources", cfg: Config{Module: module, Shared: true, DictionaryNames: []string{th.Dict1}}, srcs: 3},
		{name: "no module", cfg: Config{Shared: true, DictionaryNames: th.SharedNames()}, srcs: 3},
		{name: "no sources", cfg: Config{Module: module}, srcs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := output.NewMemory()
			tt.cfg.Output = mem.Factory
			srcs, closers := tracked(th.Sources(t)[:tt.srcs])

			err := New(tt.cfg, th.DiscardLogger()).Generate(srcs)
			require.Error(t, err)
			assert.ErrorIs(t, err, diag.ErrConfiguration)
			assertClosed(t, closers)
			assert.Empty(t, mem.Namespaces())
		})
	}
}

func TestGenerateMalformedSourceClosesAll(t *testing.T) {
	srcs := th.Sources(t)
	srcs[1] = source.FromString("broken.xml", "<fix><messages><message")
	srcs, closers := tracked(srcs)

	mem := output.NewMemory()
	err := New(sharedConfig(mem), th.DiscardLogger()).Generate(srcs)
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrMalformedSchema)
	assert.Contains(t, err.Error(), "broken.xml")
	assertClosed(t, closers)
	assert.Empty(t, mem.Namespaces())
}

func TestGenerateEmissionFailure(t *testing.T) {
	mem := output.NewMemory()
	g := New(sharedConfig(mem), th.DiscardLogger())
	boom := errors.New("boom")
	g.backends = append(golang.Backends(), golang.Backend{
		Name:      "broken",
		Namespace: func(n meta.Namespaces) string { return n.Parent },
		Enabled:   func(u *meta.Unit) bool { return u.Role == meta.RoleSpecialized },
		Generate: func(*slog.Logger, *meta.Unit, output.Destination) error {
			return boom
		},
	})

	err := g.Generate(th.Sources(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrEmissionFailure)
	assert.ErrorIs(t, err, boom)

	var ee *diag.EmissionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "broken", ee.Backend)
	assert.Equal(t, th.Dict1Norm, ee.Dictionary)
	assert.Empty(t, mem.Namespaces(), "a failed run must not reach the output factory")
}

func TestGenerateWritesFilesystem(t *testing.T) {
	root := t.TempDir()
	cfg := Config{OutputDir: root, Module: module, Shared: true, DictionaryNames: th.SharedNames()}
	require.NoError(t, New(cfg, th.DiscardLogger()).Generate(th.Sources(t)))

	for _, rel := range []string{
		"enums.go",
		"wire.go",
		filepath.Join("decoder", "decoder.go"),
		filepath.Join(th.Dict1Norm, "decoder", "printer.go"),
		filepath.Join(th.Dict3Norm, "encoder", "encoder.go"),
	} {
		data, err := os.ReadFile(filepath.Join(root, rel))
		require.NoError(t, err, rel)
		assert.True(t, strings.HasPrefix(string(data), "// Code generated by sharedcodecs"), rel)
	}
}
