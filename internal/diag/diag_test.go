package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"malformed", Malformed("a.xml", errors.New("eof")), ErrMalformedSchema},
		{"duplicate", Duplicate("field Account", "defined twice"), ErrDuplicateDefinition},
		{"structural", Structural("group NoParties", "missing counting field"), ErrStructuralDefect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("generate: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.kind)
			for _, other := range []error{ErrMalformedSchema, ErrDuplicateDefinition, ErrStructuralDefect, ErrEmissionFailure} {
				if other != tt.kind {
					assert.NotErrorIs(t, wrapped, other)
				}
			}
		})
	}
}

func TestSchemaErrorContext(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := WithDictionary(WithSource(Malformed("", cause), "fix44.xml"), "venue_a")

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "fix44.xml", se.Source)
	assert.Equal(t, "venue_a", se.Dictionary)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fix44.xml")
	assert.Contains(t, err.Error(), `"venue_a"`)
}

func TestWithSourceKeepsFirst(t *testing.T) {
	err := WithSource(Malformed("first.xml", nil), "second.xml")
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "first.xml", se.Source)
}

func TestEmissionError(t *testing.T) {
	cause := errors.New("template: bad field")
	err := WithDictionary(Emission("ExecutionReport", cause), "")
	var ee *EmissionError
	require.ErrorAs(t, err, &ee)
	ee.Backend = "encoder"

	assert.ErrorIs(t, err, ErrEmissionFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "<shared>")
	assert.Contains(t, err.Error(), "encoder")
	assert.Contains(t, err.Error(), "ExecutionReport")
}

func TestConfiguration(t *testing.T) {
	err := Configuration("expected %d names, got %d", 3, 2)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "expected 3 names, got 2")
}
