package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"erlfix/internal/source"
)

var ErrBadOutput = errors.New("malformed checker output")

// Diagnostic is one finding of the checker. Start and End are byte offsets
// into the checked file.
type Diagnostic struct {
	Start       uint32
	End         uint32
	Message     string
	URI         string
	Code        string
	Expression  string
	Explanation string
	// Expected is set for type mismatches the checker could describe structurally.
	Expected *ExpectedSubtype
}

// ExpectedSubtype says the expression at the range has type Got where a
// subtype of Expected was required.
type ExpectedSubtype struct {
	Expected Type
	Got      Type
}

// Span places the range in file.
func (d Diagnostic) Span(file source.FileID) source.Span {
	return source.Span{File: file, Start: d.Start, End: d.End}
}

// Detail is the human explanation shown under the headline.
func (d Diagnostic) Detail() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{d.Message, d.Expression, d.Explanation} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// wireType is the serialised form of Type, shared by the checker's JSON
// output and the msgpack result cache.
type wireType struct {
	Kind   string     `json:"kind" msgpack:"k"`
	Name   string     `json:"name,omitempty" msgpack:"n,omitempty"`
	Module string     `json:"module,omitempty" msgpack:"m,omitempty"`
	Args   []wireType `json:"args,omitempty" msgpack:"a,omitempty"`
	Result *wireType  `json:"result,omitempty" msgpack:"r,omitempty"`
	Text   string     `json:"text,omitempty" msgpack:"t,omitempty"`
}

type wireRange struct {
	Start uint32 `json:"start" msgpack:"s"`
	End   uint32 `json:"end" msgpack:"e"`
}

type wireStructured struct {
	Kind     string    `json:"kind" msgpack:"k"`
	Expected *wireType `json:"expected,omitempty" msgpack:"x,omitempty"`
	Got      *wireType `json:"got,omitempty" msgpack:"g,omitempty"`
}

type wireDiagnostic struct {
	Range       wireRange       `json:"range" msgpack:"range"`
	Message     string          `json:"message" msgpack:"message"`
	URI         string          `json:"uri,omitempty" msgpack:"uri,omitempty"`
	Code        string          `json:"code" msgpack:"code"`
	Expression  string          `json:"expression,omitempty" msgpack:"expression,omitempty"`
	Explanation string          `json:"explanation,omitempty" msgpack:"explanation,omitempty"`
	Diagnostic  *wireStructured `json:"diagnostic,omitempty" msgpack:"diagnostic,omitempty"`
}

const kindExpectedSubtype = "expected_subtype"

// DecodeDiagnostics parses the checker's JSON output: an array of findings.
func DecodeDiagnostics(data []byte) ([]Diagnostic, error) {
	var wire []wireDiagnostic
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadOutput, err)
	}
	return fromWire(wire)
}

// EncodeDiagnostics is the inverse of DecodeDiagnostics.
func EncodeDiagnostics(ds []Diagnostic) ([]byte, error) {
	return json.Marshal(toWire(ds))
}

func fromWire(wire []wireDiagnostic) ([]Diagnostic, error) {
	out := make([]Diagnostic, 0, len(wire))
	for i, w := range wire {
		if w.Range.End < w.Range.Start {
			return nil, fmt.Errorf("%w: diagnostic %d: range %d..%d", ErrBadOutput, i, w.Range.Start, w.Range.End)
		}
		d := Diagnostic{
			Start:       w.Range.Start,
			End:         w.Range.End,
			Message:     w.Message,
			URI:         w.URI,
			Code:        w.Code,
			Expression:  w.Expression,
			Explanation: w.Explanation,
		}
		if s := w.Diagnostic; s != nil && s.Kind == kindExpectedSubtype && s.Expected != nil && s.Got != nil {
			d.Expected = &ExpectedSubtype{Expected: typeFromWire(*s.Expected), Got: typeFromWire(*s.Got)}
		}
		out = append(out, d)
	}
	return out, nil
}

func toWire(ds []Diagnostic) []wireDiagnostic {
	out := make([]wireDiagnostic, 0, len(ds))
	for _, d := range ds {
		w := wireDiagnostic{
			Range:       wireRange{Start: d.Start, End: d.End},
			Message:     d.Message,
			URI:         d.URI,
			Code:        d.Code,
			Expression:  d.Expression,
			Explanation: d.Explanation,
		}
		if d.Expected != nil {
			exp, got := typeToWire(d.Expected.Expected), typeToWire(d.Expected.Got)
			w.Diagnostic = &wireStructured{Kind: kindExpectedSubtype, Expected: &exp, Got: &got}
		}
		out = append(out, w)
	}
	return out
}

func typeFromWire(w wireType) Type {
	args := func() []Type {
		ts := make([]Type, len(w.Args))
		for i, a := range w.Args {
			ts[i] = typeFromWire(a)
		}
		return ts
	}
	switch w.Kind {
	case "atom":
		return AtomLit{Name: w.Name}
	case "tuple":
		return Tuple{Elems: args()}
	case "list":
		if len(w.Args) != 1 {
			break
		}
		return List{Elem: typeFromWire(w.Args[0])}
	case "union":
		return Union{Alts: args()}
	case "remote":
		return Remote{Module: w.Module, Name: w.Name, Args: args()}
	case "var":
		return Var{Name: w.Name}
	case "any":
		return Any{}
	case "dynamic":
		return Dynamic{}
	case "number":
		return Number{}
	case "nil":
		return Nil{}
	case "binary":
		return Binary{}
	case "fun":
		if w.Result == nil {
			break
		}
		return Fun{Args: args(), Result: typeFromWire(*w.Result)}
	}
	text := w.Text
	if text == "" {
		text = w.Kind
	}
	return Unknown{Text: text}
}

func typeToWire(t Type) wireType {
	args := func(ts []Type) []wireType {
		out := make([]wireType, len(ts))
		for i, a := range ts {
			out[i] = typeToWire(a)
		}
		return out
	}
	switch t := t.(type) {
	case AtomLit:
		return wireType{Kind: "atom", Name: t.Name}
	case Tuple:
		return wireType{Kind: "tuple", Args: args(t.Elems)}
	case List:
		return wireType{Kind: "list", Args: []wireType{typeToWire(t.Elem)}}
	case Union:
		return wireType{Kind: "union", Args: args(t.Alts)}
	case Remote:
		return wireType{Kind: "remote", Module: t.Module, Name: t.Name, Args: args(t.Args)}
	case Var:
		return wireType{Kind: "var", Name: t.Name}
	case Any:
		return wireType{Kind: "any"}
	case Dynamic:
		return wireType{Kind: "dynamic"}
	case Number:
		return wireType{Kind: "number"}
	case Nil:
		return wireType{Kind: "nil"}
	case Binary:
		return wireType{Kind: "binary"}
	case Fun:
		res := typeToWire(t.Result)
		return wireType{Kind: "fun", Args: args(t.Args), Result: &res}
	case Unknown:
		return wireType{Kind: "unknown", Text: t.Text}
	}
	return wireType{Kind: "unknown"}
}
