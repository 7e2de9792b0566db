package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	yaml "gopkg.in/yaml.v3"
)

// document is the decoded form of one fragment. The same tags serve the
// QuickFIX XML layout and its JSON/YAML equivalents.
type document struct {
	XMLName     xml.Name    `json:"-" yaml:"-"`
	Type        string      `xml:"type,attr" json:"type" yaml:"type"`
	Major       int         `xml:"major,attr" json:"major" yaml:"major"`
	Minor       int         `xml:"minor,attr" json:"minor" yaml:"minor"`
	ServicePack int         `xml:"servicepack,attr" json:"servicepack" yaml:"servicepack"`
	Header      *container  `xml:"header" json:"header,omitempty" yaml:"header,omitempty"`
	Trailer     *container  `xml:"trailer" json:"trailer,omitempty" yaml:"trailer,omitempty"`
	Messages    []container `xml:"messages>message" json:"messages" yaml:"messages"`
	Components  []container `xml:"components>component" json:"components" yaml:"components"`
	Fields      []fieldDef  `xml:"fields>field" json:"fields" yaml:"fields"`
}

type container struct {
	Name     string  `xml:"name,attr" json:"name" yaml:"name"`
	MsgType  string  `xml:"msgtype,attr" json:"msgtype" yaml:"msgtype"`
	Category string  `xml:"msgcat,attr" json:"msgcat" yaml:"msgcat"`
	Entries  []entry `xml:",any" json:"entries" yaml:"entries"`
}

// entry is a field, component or group reference. XML carries the kind in
// the element name; JSON and YAML use an explicit kind key.
type entry struct {
	XMLName  xml.Name `json:"-" yaml:"-"`
	Kind     string   `xml:"-" json:"kind" yaml:"kind"`
	Name     string   `xml:"name,attr" json:"name" yaml:"name"`
	Required flag     `xml:"required,attr" json:"required" yaml:"required"`
	Entries  []entry  `xml:",any" json:"entries,omitempty" yaml:"entries,omitempty"`
}

func (e *entry) kind() string {
	if e.Kind != "" {
		return strings.ToLower(e.Kind)
	}
	return e.XMLName.Local
}

type fieldDef struct {
	Number int        `xml:"number,attr" json:"number" yaml:"number"`
	Name   string     `xml:"name,attr" json:"name" yaml:"name"`
	Type   string     `xml:"type,attr" json:"type" yaml:"type"`
	Values []valueDef `xml:"value" json:"values,omitempty" yaml:"values,omitempty"`
}

type valueDef struct {
	Enum        string `xml:"enum,attr" json:"enum" yaml:"enum"`
	Description string `xml:"description,attr" json:"description" yaml:"description"`
	Doc         string `xml:"doc,attr" json:"doc,omitempty" yaml:"doc,omitempty"`
}

// flag accepts Y/N as well as booleans.
type flag bool

func (f *flag) parse(s string) error {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y", "YES", "TRUE":
		*f = true
	case "N", "NO", "FALSE", "":
		*f = false
	default:
		return fmt.Errorf("invalid required flag %q", s)
	}
	return nil
}

func (f *flag) UnmarshalXMLAttr(attr xml.Attr) error { return f.parse(attr.Value) }

func (f *flag) UnmarshalJSON(b []byte) error {
	return f.parse(strings.Trim(string(b), `"`))
}

func (f *flag) UnmarshalYAML(n *yaml.Node) error { return f.parse(n.Value) }

type format int

const (
	formatXML format = iota
	formatJSON
	formatYAML
)

func (f format) String() string {
	switch f {
	case formatJSON:
		return "json"
	case formatYAML:
		return "yaml"
	default:
		return "xml"
	}
}

func sniff(data []byte) format {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	switch {
	case len(trimmed) > 0 && trimmed[0] == '<':
		return formatXML
	case len(trimmed) > 0 && trimmed[0] == '{':
		return formatJSON
	default:
		return formatYAML
	}
}

func decode(data []byte) (*document, format, error) {
	var doc document
	f := sniff(data)
	var err error
	switch f {
	case formatXML:
		err = xml.Unmarshal(data, &doc)
		if err == nil && doc.XMLName.Local != "fix" {
			err = fmt.Errorf("unexpected root element <%s>, want <fix>", doc.XMLName.Local)
		}
	case formatJSON:
		err = json.Unmarshal(data, &doc)
	case formatYAML:
		err = yaml.Unmarshal(data, &doc)
		if err == nil && doc.Type == "" && len(doc.Fields) == 0 && len(doc.Messages) == 0 && len(doc.Components) == 0 {
			err = fmt.Errorf("document has no dictionary content")
		}
	}
	if err != nil {
		return nil, f, fmt.Errorf("decode %s: %w", f, err)
	}
	return &doc, f, nil
}
