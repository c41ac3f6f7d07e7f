// Package scenariofile reads and writes the portable scenario document used to
// import and export whole dialogue graphs. Keys are Spanish on the wire.
package scenariofile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/courtroom-studio/engine/internal/dialogue"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Node types accepted in "tipo".
const (
	TypeStart    = "inicio"
	TypeBody     = "desarrollo"
	TypeDecision = "decision"
	TypeFinal    = "final"
)

type Document struct {
	Scenario    ScenarioInfo `json:"dialogo" yaml:"dialogo"`
	Nodes       []Node       `json:"nodos" yaml:"nodos"`
	Connections []Connection `json:"conexiones" yaml:"conexiones"`
}

type ScenarioInfo struct {
	Name        string `json:"nombre" yaml:"nombre"`
	Description string `json:"descripcion" yaml:"descripcion"`
	Public      bool   `json:"publico" yaml:"publico"`
}

// Node is one dialogue step. ID is local to the document.
type Node struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"titulo" yaml:"titulo"`
	Content   string    `json:"contenido" yaml:"contenido"`
	RoleName  string    `json:"rol_nombre" yaml:"rol_nombre"`
	Type      string    `json:"tipo" yaml:"tipo"`
	IsInitial bool      `json:"es_inicial" yaml:"es_inicial"`
	IsFinal   bool      `json:"es_final" yaml:"es_final"`
	Position  *Position `json:"posicion" yaml:"posicion"`
}

// MaxColorLen is the widest option color the store accepts.
const MaxColorLen = 16

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Connection links two document nodes. Leaving a decision node it becomes one option.
type Connection struct {
	From  string   `json:"desde" yaml:"desde"`
	To    string   `json:"hacia" yaml:"hacia"`
	Text  string   `json:"texto" yaml:"texto"`
	Color *string  `json:"color,omitempty" yaml:"color,omitempty"`
	Score *float64 `json:"puntuacion,omitempty" yaml:"puntuacion,omitempty"`
}

// KindOf maps a document type to the node kind it is stored as.
func KindOf(typ string) (dialogue.Kind, bool) {
	switch typ {
	case TypeStart, TypeBody:
		return dialogue.KindAuto, true
	case TypeDecision:
		return dialogue.KindDecision, true
	case TypeFinal:
		return dialogue.KindFinal, true
	}
	return "", false
}

// TypeOf is the inverse of KindOf. Initial auto nodes are written as inicio.
func TypeOf(kind dialogue.Kind, initial bool) string {
	switch kind {
	case dialogue.KindDecision:
		return TypeDecision
	case dialogue.KindFinal:
		return TypeFinal
	}
	if initial {
		return TypeStart
	}
	return TypeBody
}

// Decode parses a JSON document. Malformed input yields an import_syntax_error.
func Decode(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, appErr.WithItems(appErr.CodeImportSyntax, "malformed scenario document", []string{"document is empty"})
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, syntaxError(err)
	}
	return &doc, nil
}

// DecodeYAML parses the YAML rendition used by fixture files.
func DecodeYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeImportSyntax, "malformed scenario document").
			WithMeta(appErr.MetaErrors, []string{err.Error()})
	}
	return &doc, nil
}

func syntaxError(err error) error {
	item := err.Error()
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	switch {
	case errors.As(err, &se):
		item = fmt.Sprintf("offset %d: %s", se.Offset, se.Error())
	case errors.As(err, &te):
		item = fmt.Sprintf("field %s: expected %s, got %s", te.Field, te.Type, te.Value)
	}
	return appErr.Wrap(err, appErr.CodeImportSyntax, "malformed scenario document").
		WithMeta(appErr.MetaErrors, []string{item})
}

// RoleNames lists the distinct role names in order of first appearance.
func (d *Document) RoleNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range d.Nodes {
		if n.RoleName == "" || seen[n.RoleName] {
			continue
		}
		seen[n.RoleName] = true
		out = append(out, n.RoleName)
	}
	return out
}

// Exits groups connection indexes by source node id, keeping document order.
func (d *Document) Exits() map[string][]int {
	out := make(map[string][]int)
	for i, c := range d.Connections {
		out[c.From] = append(out[c.From], i)
	}
	return out
}
