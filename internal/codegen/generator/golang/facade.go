package golang

import (
	"log/slog"

	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
)

// generateFacade writes the dictionary descriptor and the wire helpers every
// encoder and decoder of the unit calls into.
func generateFacade(logger *slog.Logger, u *meta.Unit, dst output.Destination) error {
	data := struct {
		unitView
		BeginString string
		Messages    []meta.MessageType
	}{
		unitView:    newView(u, u.Namespaces.Parent),
		BeginString: u.Dictionary.BeginString(),
		Messages:    u.AllMessageTypes(),
	}
	fm := funcs(u, false)

	body, err := execute("dictionary", dictionaryTemplate, fm, data)
	if err != nil {
		return err
	}
	if err := writeGo(dst, "dictionary.go", data.Package, nil, body); err != nil {
		return err
	}

	body, err = execute("wire", wireTemplate, fm, data)
	if err != nil {
		return err
	}
	stdlib := []goImport{{Path: "bytes"}, {Path: "errors"}, {Path: "fmt"}, {Path: "os"}, {Path: "strconv"}}
	if err := writeGo(dst, "wire.go", data.Package, stdlib, body); err != nil {
		return err
	}

	logger.Debug("Generated dictionary facade", "dictionary", u.Name, "role", u.Role, "messages", len(data.Messages))
	return nil
}

const dictionaryTemplate = `// Dictionary describes {{if .IsShared}}the contract shared by every dictionary{{else}}the {{.Name}} dictionary{{end}}.
var Dictionary = Descriptor{
	Name:        {{quote .Name}},
	BeginString: {{quote .BeginString}},
	Messages: map[string]string{
{{- range .Messages}}
		{{quote .Value}}: {{quote .Name}},
{{- end}}
	},
}

// Descriptor identifies a dictionary and the messages it defines.
type Descriptor struct {
	Name        string
	BeginString string
	// Messages maps a MsgType to the message name.
	Messages map[string]string
}

// MessageName returns the name of the message with msgType.
func (d Descriptor) MessageName(msgType string) (string, bool) {
	name, ok := d.Messages[msgType]
	return name, ok
}
`

const wireTemplate = `// SOH terminates every field on the wire.
const SOH = 0x01

var (
	ErrMalformedField     = errors.New("malformed field")
	ErrUnknownField       = errors.New("unknown field")
	ErrUnknownEnumValue   = errors.New("unknown enum value")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMissingField       = errors.New("missing required field")
)

// FieldError ties a decoding failure to the tag it happened on.
type FieldError struct {
	Tag int
	Err error
}

func (e *FieldError) Error() string {
	return "tag " + strconv.Itoa(e.Tag) + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }

// MissingFieldsError lists required tags a container did not carry.
type MissingFieldsError struct {
	Container string
	Tags      []int
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s %v", e.Container, ErrMissingField, e.Tags)
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingField }

// PolicyEnabled reports whether the environment variable named policy holds
// a true value. An empty policy name is never enabled.
func PolicyEnabled(policy string) bool {
	if policy == "" {
		return false
	}
	v, err := strconv.ParseBool(os.Getenv(policy))
	return err == nil && v
}

// Scanner walks tag=value fields.
type Scanner struct {
	buf   []byte
	pos   int
	prev  int
	tag   int
	value []byte
	err   error
}

func NewScanner(buf []byte) *Scanner {
	return &Scanner{buf: buf}
}

// Next advances to the next field. It returns false at the end of the
// buffer or on a malformed field; Err tells the two apart.
func (s *Scanner) Next() bool {
	if s.err != nil || s.pos >= len(s.buf) {
		return false
	}
	rest := s.buf[s.pos:]
	eq := bytes.IndexByte(rest, '=')
	if eq <= 0 {
		s.err = fmt.Errorf("%w at offset %d", ErrMalformedField, s.pos)
		return false
	}
	tag, err := strconv.Atoi(string(rest[:eq]))
	if err != nil || tag <= 0 {
		s.err = fmt.Errorf("%w: bad tag at offset %d", ErrMalformedField, s.pos)
		return false
	}
	value := rest[eq+1:]
	next := len(s.buf)
	if end := bytes.IndexByte(value, SOH); end >= 0 {
		value = value[:end]
		next = s.pos + eq + 1 + end + 1
	}
	s.prev = s.pos
	s.pos = next
	s.tag = tag
	s.value = value
	return true
}

// Unread steps back so the current field is returned by the next call to
// Next.
func (s *Scanner) Unread() { s.pos = s.prev }

func (s *Scanner) Tag() int      { return s.tag }
func (s *Scanner) Value() []byte { return s.value }
func (s *Scanner) Err() error    { return s.err }

func appendTag(buf []byte, tag int) []byte {
	buf = strconv.AppendInt(buf, int64(tag), 10)
	return append(buf, '=')
}

func AppendString(buf []byte, tag int, v string) []byte {
	return append(append(appendTag(buf, tag), v...), SOH)
}

func AppendInt(buf []byte, tag int, v int64) []byte {
	return append(strconv.AppendInt(appendTag(buf, tag), v, 10), SOH)
}

func AppendFloat(buf []byte, tag int, v float64) []byte {
	return append(strconv.AppendFloat(appendTag(buf, tag), v, 'f', -1, 64), SOH)
}

func AppendChar(buf []byte, tag int, v byte) []byte {
	return append(appendTag(buf, tag), v, SOH)
}

func AppendBool(buf []byte, tag int, v bool) []byte {
	return append(appendTag(buf, tag), FormatBool(v)[0], SOH)
}

func AppendData(buf []byte, tag int, v []byte) []byte {
	return append(append(appendTag(buf, tag), v...), SOH)
}

func ParseString(v []byte) (string, error) { return string(v), nil }

func ParseInt(v []byte) (int64, error) {
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedField, v)
	}
	return n, nil
}

func ParseFloat(v []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedField, v)
	}
	return f, nil
}

func ParseChar(v []byte) (byte, error) {
	if len(v) != 1 {
		return 0, fmt.Errorf("%w: %q is not a single character", ErrMalformedField, v)
	}
	return v[0], nil
}

func ParseBool(v []byte) (bool, error) {
	switch string(v) {
	case "Y":
		return true, nil
	case "N":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not Y or N", ErrMalformedField, v)
}

// ParseData copies v; the scanned buffer may be reused by the caller.
func ParseData(v []byte) ([]byte, error) {
	return bytes.Clone(v), nil
}

func FormatString(v string) string  { return v }
func FormatInt(v int64) string      { return strconv.FormatInt(v, 10) }
func FormatFloat(v float64) string  { return strconv.FormatFloat(v, 'f', -1, 64) }
func FormatChar(v byte) string      { return string([]byte{v}) }
func FormatData(v []byte) string    { return string(v) }

func FormatBool(v bool) string {
	if v {
		return "Y"
	}
	return "N"
}

// PrintSep writes the separator before the n-th printed member.
func PrintSep(buf []byte, n *int) []byte {
	if *n > 0 {
		buf = append(buf, ", "...)
	}
	*n++
	return buf
}

func PrintField(buf []byte, n *int, name, value string) []byte {
	buf = PrintSep(buf, n)
	buf = append(buf, name...)
	buf = append(buf, '=')
	return append(buf, value...)
}
`
