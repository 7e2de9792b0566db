package golang

import (
	"go/parser"
	"go/token"
	"path"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
	"github.com/Alia5/sharedcodecs/internal/codegen/share"
	"github.com/Alia5/sharedcodecs/internal/diag"
	th "github.com/Alia5/sharedcodecs/internal/testing"
)

const module = "example.com/venues"

func emit(t *testing.T, mem *output.Memory, u *meta.Unit) {
	t.Helper()
	for _, b := range Backends() {
		if b.Enabled != nil && !b.Enabled(u) {
			continue
		}
		dst, err := mem.Factory("", b.Namespace(u.Namespaces))
		require.NoError(t, err)
		require.NoError(t, b.Generate(th.Logger(t), u, dst), "backend %s", b.Name)
	}
}

func emitShared(t *testing.T, opts meta.Options) *output.Memory {
	t.Helper()
	res, err := share.Share(th.SharedDictionaries(t))
	require.NoError(t, err)

	mem := output.NewMemory()
	emit(t, mem, meta.Shared(res, module, opts))
	for i := range res.Names {
		emit(t, mem, meta.Specialized(res, i, module, opts))
	}
	return mem
}

func file(t *testing.T, mem *output.Memory, ns, name string) string {
	t.Helper()
	data, ok := mem.File(ns, name)
	require.True(t, ok, "%s/%s not generated", ns, name)
	return string(data)
}

// Every emitted file parses, starts with the generated header and imports
// only what it uses.
func assertWellFormed(t *testing.T, mem *output.Memory) {
	t.Helper()
	for _, ns := range mem.Namespaces() {
		for _, name := range mem.Files(ns) {
			src := file(t, mem, ns, name)
			assert.True(t, strings.HasPrefix(src, "// Code generated by sharedcodecs "), "%s/%s header", ns, name)

			f, err := parser.ParseFile(token.NewFileSet(), name, src, parser.ParseComments)
			require.NoError(t, err, "%s/%s", ns, name)
			for _, imp := range f.Imports {
				p, err := strconv.Unquote(imp.Path.Value)
				require.NoError(t, err)
				ref := path.Base(p)
				if imp.Name != nil {
					ref = imp.Name.Name
				}
				assert.Contains(t, src, ref+".", "%s/%s imports %s without using it", ns, name, p)
			}
		}
	}
}

func TestGenerateSharedLayout(t *testing.T) {
	mem := emitShared(t, meta.Options{})
	assertWellFormed(t, mem)

	ns := mem.Namespaces()
	for _, want := range []string{"", "encoder", "decoder"} {
		assert.Contains(t, ns, want)
	}
	for _, name := range []string{th.Dict1Norm, th.Dict2Norm, th.Dict3Norm} {
		assert.Contains(t, ns, name)
		assert.Contains(t, ns, name+"/encoder")
		assert.Contains(t, ns, name+"/decoder")
		assert.NotContains(t, ns, name+"/decoder_flyweight")
	}

	assert.Equal(t, []string{"enums.go", "constants.go", "dictionary.go", "wire.go"}, mem.Files(""))
	assert.Equal(t, []string{"decoder.go", "acceptor.go"}, mem.Files("decoder"))
	assert.Equal(t, []string{"decoder.go", "printer.go", "acceptor.go"}, mem.Files(th.Dict1Norm+"/decoder"))
}

func TestGenerateSharedContract(t *testing.T) {
	mem := emitShared(t, meta.Options{})

	enums := file(t, mem, "", "enums.go")
	assert.Contains(t, enums, "Altnames: VALUE_CLASH")
	assert.Contains(t, enums, "type CollisionEnum int")
	assert.Contains(t, enums, "CollisionEnumNewN")
	assert.Contains(t, enums, "type MissingEnum int")
	assert.NotContains(t, enums, "type Side int")

	constants := file(t, mem, "", "constants.go")
	assert.Contains(t, constants, "TagOrderID")
	assert.Contains(t, constants, "MsgTypeExecutionReport")
	assert.NotContains(t, constants, "TagClashingType")
	assert.NotContains(t, constants, "MsgTypeNewOrderSingle")

	dec := file(t, mem, "decoder", "decoder.go")
	assert.Contains(t, dec, "type ExecutionReportDecoder interface")
	assert.Contains(t, dec, "type ExecutionReportDecoderState struct")
	assert.Contains(t, dec, "ExecTypeAsEnum() codec.ExecType")
	assert.Contains(t, dec, "Instrument() InstrumentDecoder")
	assert.Contains(t, dec, "NoContraBrokers(i int) NoContraBrokersDecoder")
	assert.NotContains(t, dec, "HasOrdStatus")
	assert.NotContains(t, dec, "MissingEnumAsEnum")
	for _, local := range []string{"ClashingType", "SecondaryOrderID", "NewOrderSingle", "NonSharedComponent", "Validate"} {
		assert.NotContains(t, dec, local)
	}

	enc := file(t, mem, "encoder", "encoder.go")
	assert.Contains(t, enc, "type ExecutionReportEncoder interface")
	assert.Contains(t, enc, "AddNoContraBrokers() NoContraBrokersEncoder")
	assert.NotContains(t, enc, "ClashingType")

	acceptor := file(t, mem, "decoder", "acceptor.go")
	assert.Contains(t, acceptor, "OnExecutionReport(m ExecutionReportDecoder) error")
	assert.NotContains(t, acceptor, "Dispatcher")
	assert.NotContains(t, acceptor, "OnHeader")
}

func TestGenerateSpecialized(t *testing.T) {
	mem := emitShared(t, meta.Options{})
	ns := th.Dict1Norm

	dec := file(t, mem, ns+"/decoder", "decoder.go")
	assert.Contains(t, dec, `shareddecoder "example.com/venues/decoder"`)
	assert.Contains(t, dec, `sharedcodec "example.com/venues"`)
	assert.Contains(t, dec, "var _ shareddecoder.ExecutionReportDecoder = (*ExecutionReportDecoder)(nil)")
	assert.Contains(t, dec, "shareddecoder.ExecutionReportDecoderState")
	assert.Contains(t, dec, "func (d *ExecutionReportDecoder) ClashingType() int64")
	assert.Contains(t, dec, "func (d *ExecutionReportDecoder) MissingEnumAsEnum() sharedcodec.MissingEnum")
	assert.Contains(t, dec, "func (d *ExecutionReportDecoder) InstrumentVariant() *InstrumentDecoder")
	assert.Contains(t, dec, "func (d *NewOrderSingleDecoder) SideAsEnum() codec.Side")
	assert.Contains(t, dec, "func (d *NewOrderSingleDecoder) Decode(buf []byte) error")
	assert.Contains(t, dec, "func (d *ExecutionReportDecoder) Validate() error")

	constants := file(t, mem, ns, "constants.go")
	assert.Regexp(t, `TagClashingType\s+= 5001`, constants)
	assert.Contains(t, constants, `MsgTypeNewOrderSingle = "D"`)
	assert.NotContains(t, constants, "MsgTypeExecutionReport")
	assert.NotContains(t, constants, "TagOrderID")

	enums := file(t, mem, ns, "enums.go")
	assert.Contains(t, enums, "type Side int")
	assert.NotContains(t, enums, "type ExecType int")

	enc := file(t, mem, ns+"/encoder", "encoder.go")
	assert.Contains(t, enc, "sharedencoder.ExecutionReportEncoderState")
	assert.Contains(t, enc, "var _ sharedencoder.ExecutionReportEncoder = (*ExecutionReportEncoder)(nil)")
	assert.Contains(t, enc, "func (e *ExecutionReportEncoder) AddNoContraBrokersVariant() *NoContraBrokersEncoder")
	assert.Contains(t, enc, "e.ExecutionReportEncoderState.AppendField(buf, 37)")
	assert.Contains(t, enc, "codec.AppendInt(buf, 382, int64(len(e.noContraBrokers)))")

	printer := file(t, mem, ns+"/decoder", "printer.go")
	assert.Contains(t, printer, "func (d *ExecutionReportDecoder) AppendTo(buf []byte) []byte")
	assert.Contains(t, printer, `"NoContraBrokers=["`)

	acceptor := file(t, mem, ns+"/decoder", "acceptor.go")
	assert.Contains(t, acceptor, "func Shared(a shareddecoder.Acceptor) Acceptor")
	assert.Contains(t, acceptor, "case sharedcodec.MsgTypeExecutionReport:")
	assert.Contains(t, acceptor, "case codec.MsgTypeNewOrderSingle:")
	assert.Contains(t, acceptor, "return a.shared.OnExecutionReport(m)")
}

// A field optional in one dictionary only gets its probe declared by that
// specialization.
func TestGenerateProbes(t *testing.T) {
	mem := emitShared(t, meta.Options{})

	dec2 := file(t, mem, th.Dict2Norm+"/decoder", "decoder.go")
	assert.Contains(t, dec2, "func (d *ExecutionReportDecoder) HasOrdStatus() bool")
	assert.Contains(t, dec2, "d.IsSet(39)")

	dec1 := file(t, mem, th.Dict1Norm+"/decoder", "decoder.go")
	assert.NotContains(t, dec1, "HasOrdStatus")
	assert.Contains(t, file(t, mem, "decoder", "decoder.go"), "HasTestReqID() bool")
}

func TestGeneratePolicies(t *testing.T) {
	mem := emitShared(t, meta.Options{
		RejectUnknownField:     "VENUE_REJECT_UNKNOWN_FIELD",
		RejectUnknownEnumValue: "VENUE_REJECT_UNKNOWN_ENUM",
	})

	for _, ns := range []string{"decoder", "encoder", th.Dict3Norm + "/decoder"} {
		src := file(t, mem, ns, path.Base(ns)+".go")
		assert.Contains(t, src, `const RejectUnknownField = "VENUE_REJECT_UNKNOWN_FIELD"`, ns)
		assert.Contains(t, src, `const RejectUnknownEnumValue = "VENUE_REJECT_UNKNOWN_ENUM"`, ns)
	}
}

func TestGenerateFlyweight(t *testing.T) {
	mem := emitShared(t, meta.Options{Flyweight: true})
	assertWellFormed(t, mem)

	shared := file(t, mem, "decoder_flyweight", "decoder.go")
	assert.Contains(t, shared, "type ExecutionReportDecoderState struct")
	assert.Regexp(t, `orderID\s+\[\]byte`, shared)

	dec := file(t, mem, th.Dict1Norm+"/decoder_flyweight", "decoder.go")
	assert.Contains(t, dec, `sharedflyweight "example.com/venues/decoder_flyweight"`)
	assert.Contains(t, dec, "func (d *ExecutionReportDecoder) Wrap(buf []byte) error")
	assert.NotContains(t, dec, "Decode(buf []byte) error")

	_, ok := mem.File(th.Dict1Norm+"/decoder_flyweight", "printer.go")
	assert.False(t, ok)
}

func TestGenerateStandalone(t *testing.T) {
	d := th.Dictionary(t, th.Dict1Norm, th.Schema(t, th.Dict1))
	mem := output.NewMemory()
	emit(t, mem, meta.Standalone(d, module, meta.Options{}))
	assertWellFormed(t, mem)

	assert.Equal(t, []string{"", "encoder", "decoder"}, mem.Namespaces())

	dec := file(t, mem, "decoder", "decoder.go")
	assert.NotContains(t, dec, "sharedcodec.")
	assert.NotContains(t, dec, "shareddecoder.")
	assert.NotContains(t, dec, "DecoderState")
	assert.NotContains(t, dec, "var _ ")
	assert.Contains(t, dec, "func (d *ExecutionReportDecoder) Decode(buf []byte) error")
	assert.Contains(t, dec, "func (d *ExecutionReportDecoder) ExecTypeAsEnum() codec.ExecType")
	assert.Contains(t, dec, "func (d *ExecutionReportDecoder) ResetMessage()")

	constants := file(t, mem, "", "constants.go")
	assert.Regexp(t, `TagOrderID\s+= 37`, constants)
	assert.Regexp(t, `MsgTypeExecutionReport\s+= "8"`, constants)

	acceptor := file(t, mem, "decoder", "acceptor.go")
	assert.Contains(t, acceptor, "func NewDispatcher(a Acceptor) *Dispatcher")
	assert.NotContains(t, acceptor, "func Shared(")
}

func TestGenerateEnumDescriptions(t *testing.T) {
	const fragment = `<fix type="FIX" major="4" minor="4" servicepack="0">
  <messages>
    <message name="NewOrderSingle" msgtype="D" msgcat="app">
      <field name="Side" required="Y"/>
    </message>
  </messages>
  <fields>
    <field number="54" name="Side" type="CHAR">
      <value enum="1" description="BUY" doc="Buy side
        of the book"/>
      <value enum="2" description="SELL"/>
    </field>
  </fields>
</fix>`
	d := th.Dictionary(t, "venue", fragment)
	mem := output.NewMemory()
	emit(t, mem, meta.Standalone(d, module, meta.Options{}))
	assertWellFormed(t, mem)

	enums := file(t, mem, "", "enums.go")
	assert.Regexp(t, `// SideBuy is "1"\.\n\s*//\n\s*// Buy side of the book\n\s*SideBuy Side = 0`, enums)
	assert.Regexp(t, `// SideSell is "2"\.\n\s*SideSell Side = 1`, enums)
}

func TestWriteGoImports(t *testing.T) {
	candidates := []goImport{
		{Path: "fmt"},
		{Path: "strconv"},
		{Alias: codecAlias, Path: module},
	}
	tests := []struct {
		name    string
		body    string
		want    []string
		notWant []string
	}{
		{
			name: "selector on a member named like an alias",
			body: "// fmt.Sprint is not called.\ntype T struct{ codec struct{ x int } }\n\nfunc (t T) X() int { return t.codec.x }\n",
			notWant: []string{`"fmt"`, `"strconv"`, `codec "example.com/venues"`},
		},
		{
			name:    "used imports kept",
			body:    "func Itoa(codecTag codec.Tag) string { return strconv.Itoa(int(codecTag)) }\n",
			want:    []string{`"strconv"`, `codec "example.com/venues"`},
			notWant: []string{`"fmt"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := output.NewMemory()
			dst, err := mem.Factory("", "decoder")
			require.NoError(t, err)
			require.NoError(t, writeGo(dst, "x.go", "decoder", candidates, []byte(tt.body)))

			src := file(t, mem, "decoder", "x.go")
			_, err = parser.ParseFile(token.NewFileSet(), "x.go", src, parser.ParseComments)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, src, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, src, w)
			}
		})
	}
}

func TestWriteGoInvalidSource(t *testing.T) {
	mem := output.NewMemory()
	dst, err := mem.Factory("", "decoder")
	require.NoError(t, err)

	err = writeGo(dst, "x.go", "decoder", nil, []byte("func {"))
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrEmissionFailure)
	assert.Contains(t, err.Error(), "decoder/x.go")
	assert.Empty(t, mem.Files("decoder"))
}
