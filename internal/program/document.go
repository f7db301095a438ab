package program

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"monogen/internal/project"
)

// Pos is a 1-based line/column inside a program file.
type Pos struct {
	Line   int
	Column int
}

func posOf(n *yaml.Node) Pos {
	return Pos{Line: n.Line, Column: n.Column}
}

// Document is the decoded form of one program file.
type Document struct {
	Module         string         `yaml:"module"`
	Types          []TypeDecl     `yaml:"types"`
	Functions      []FunctionDecl `yaml:"functions"`
	Instantiations []Expr         `yaml:"instantiations"`
	Calls          []CallDecl     `yaml:"calls"`
}

// Expr is a type expression as written, with its position.
type Expr struct {
	Text string
	Pos  Pos
	// quoted scalars start one column after the node position
	quoted bool
}

// IsZero reports whether the expression was omitted.
func (e Expr) IsZero() bool { return strings.TrimSpace(e.Text) == "" }

func (e *Expr) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode {
		return e.UnmarshalYAML(value.Alias)
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: type expression must be a string", value.Line)
	}
	e.Text = value.Value
	e.Pos = posOf(value)
	e.quoted = value.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0
	return nil
}

// TypeParamDecl is a type parameter, optionally constrained:
// `T` or `{name: T, constrain: Number}`.
type TypeParamDecl struct {
	Name      string
	Constrain Expr
	Pos       Pos
}

func (p *TypeParamDecl) UnmarshalYAML(value *yaml.Node) error {
	p.Pos = posOf(value)
	switch value.Kind {
	case yaml.ScalarNode:
		p.Name = strings.TrimSpace(value.Value)
		return nil
	case yaml.MappingNode:
		var raw struct {
			Name      string `yaml:"name"`
			Constrain Expr   `yaml:"constrain"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		p.Name = strings.TrimSpace(raw.Name)
		p.Constrain = raw.Constrain
		return nil
	default:
		return fmt.Errorf("line %d: type parameter must be a name or a mapping", value.Line)
	}
}

// TypeDecl declares a class, record, trait or component.
type TypeDecl struct {
	Name      string          `yaml:"name"`
	Genus     string          `yaml:"genus"`
	Params    []TypeParamDecl `yaml:"params"`
	Super     Expr            `yaml:"super"`
	Traits    []Expr          `yaml:"traits"`
	Open      bool            `yaml:"open"`
	Abstract  bool            `yaml:"abstract"`
	Fields    []FieldDecl     `yaml:"fields"`
	Methods   []MethodDecl    `yaml:"methods"`
	Operators []MethodDecl    `yaml:"operators"`
	Defaults  []DefaultDecl   `yaml:"defaults"`
	Uses      []Expr          `yaml:"uses"`
	Pos       Pos             `yaml:"-"`
}

func (d *TypeDecl) UnmarshalYAML(value *yaml.Node) error {
	type raw TypeDecl
	if err := value.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = posOf(value)
	return nil
}

// FieldDecl declares a field of an aggregate.
type FieldDecl struct {
	Name   string `yaml:"name"`
	Type   Expr   `yaml:"type"`
	Access string `yaml:"access"`
	Pos    Pos    `yaml:"-"`
}

func (d *FieldDecl) UnmarshalYAML(value *yaml.Node) error {
	type raw FieldDecl
	if err := value.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = posOf(value)
	return nil
}

// ParamDecl is one parameter of a method, operator or function.
type ParamDecl struct {
	Name string `yaml:"name"`
	Type Expr   `yaml:"type"`
	Pos  Pos    `yaml:"-"`
}

func (d *ParamDecl) UnmarshalYAML(value *yaml.Node) error {
	type raw ParamDecl
	if err := value.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = posOf(value)
	return nil
}

// MethodDecl declares a method, constructor or operator.
type MethodDecl struct {
	Name        string      `yaml:"name"`
	Params      []ParamDecl `yaml:"params"`
	Returns     Expr        `yaml:"returns"`
	Access      string      `yaml:"access"`
	Constructor bool        `yaml:"constructor"`
	Override    bool        `yaml:"override"`
	Pure        bool        `yaml:"pure"`
	Abstract    bool        `yaml:"abstract"`
	Pos         Pos         `yaml:"-"`
}

func (d *MethodDecl) UnmarshalYAML(value *yaml.Node) error {
	type raw MethodDecl
	if err := value.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = posOf(value)
	return nil
}

// DefaultDecl is a `default operator` clause: an operator name, `all`, or a
// mapping that (incorrectly) also carries a signature.
type DefaultDecl struct {
	Name         string
	HasSignature bool
	Pos          Pos
}

func (d *DefaultDecl) UnmarshalYAML(value *yaml.Node) error {
	d.Pos = posOf(value)
	switch value.Kind {
	case yaml.ScalarNode:
		d.Name = strings.TrimSpace(value.Value)
	case yaml.MappingNode:
		var raw struct {
			Name    string      `yaml:"name"`
			Params  []ParamDecl `yaml:"params"`
			Returns Expr        `yaml:"returns"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		d.Name = strings.TrimSpace(raw.Name)
		d.HasSignature = len(raw.Params) > 0 || !raw.Returns.IsZero()
	default:
		return fmt.Errorf("line %d: default operator must be a name or a mapping", value.Line)
	}
	if d.Name == "all" || d.Name == "*" {
		d.Name = ""
	}
	return nil
}

// FunctionDecl declares a free function, generic when TypeParams is set.
type FunctionDecl struct {
	Name       string          `yaml:"name"`
	TypeParams []TypeParamDecl `yaml:"type_params"`
	Params     []ParamDecl     `yaml:"params"`
	Returns    Expr            `yaml:"returns"`
	Uses       []Expr          `yaml:"uses"`
	Pos        Pos             `yaml:"-"`
}

func (d *FunctionDecl) UnmarshalYAML(value *yaml.Node) error {
	type raw FunctionDecl
	if err := value.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = posOf(value)
	return nil
}

// CallDecl asks the overload resolver to pick the target of a call: either
// `receiver.method(args)` or `function[type_args](args)`.
type CallDecl struct {
	Receiver Expr   `yaml:"receiver"`
	Method   string `yaml:"method"`
	Function string `yaml:"function"`
	TypeArgs []Expr `yaml:"type_args"`
	Args     []Expr `yaml:"args"`
	Pos      Pos    `yaml:"-"`
}

func (d *CallDecl) UnmarshalYAML(value *yaml.Node) error {
	type raw CallDecl
	if err := value.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = posOf(value)
	return nil
}

// Parse decodes a program document. Unknown top-level keys are rejected.
func Parse(r io.Reader) (*Document, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("program: empty document")
		}
		return nil, fmt.Errorf("program: %w", err)
	}
	doc.Module = strings.TrimSpace(doc.Module)
	if doc.Module == "" {
		return nil, fmt.Errorf("program: missing module name")
	}
	if err := project.CheckModuleName(doc.Module); err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	return &doc, nil
}
