// Package script replays operation scripts against an observable array and
// reports every notification the array produced.
package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/listsync/internal/config"
)

var (
	ErrUnknownOp       = errors.New("unknown op")
	ErrMissingIndex    = errors.New("op requires an index")
	ErrMissingMatcher  = errors.New("op requires match or prefix")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Op kinds understood by Apply.
const (
	OpAppend         = "append"
	OpInsert         = "insert"
	OpReplace        = "replace"
	OpRemove         = "remove"
	OpRemoveAll      = "remove_all"
	OpSort           = "sort"
	OpResort         = "resort"
	OpSync           = "sync"
	OpRemoveWhere    = "remove_where"
	OpRemoveAllWhere = "remove_all_where"
	OpReplaceWhere   = "replace_where"
	OpInsertAfter    = "insert_after"
)

// Script is a named list of operations applied to a fresh array.
type Script struct {
	Name    string       `yaml:"name" json:"name"`
	Order   config.Order `yaml:"order" json:"order"`
	Initial []string     `yaml:"initial" json:"initial"`
	// KeySep makes sync compare elements by the text before the first KeySep,
	// so "alice:3" and "alice:4" are the same element at different revisions.
	KeySep string `yaml:"key_sep" json:"key_sep"`
	Ops    []Op   `yaml:"ops" json:"ops"`
}

type Op struct {
	Op     string       `yaml:"op" json:"op"`
	Value  string       `yaml:"value,omitempty" json:"value,omitempty"`
	Index  *int         `yaml:"index,omitempty" json:"index,omitempty"`
	Match  string       `yaml:"match,omitempty" json:"match,omitempty"`
	Prefix string       `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Order  config.Order `yaml:"order,omitempty" json:"order,omitempty"`
	Values []string     `yaml:"values,omitempty" json:"values,omitempty"`
}

func (o Op) String() string {
	var b strings.Builder
	b.WriteString(o.Op)
	if o.Value != "" {
		fmt.Fprintf(&b, " value=%q", o.Value)
	}
	if o.Index != nil {
		fmt.Fprintf(&b, " index=%d", *o.Index)
	}
	if o.Match != "" {
		fmt.Fprintf(&b, " match=%q", o.Match)
	}
	if o.Prefix != "" {
		fmt.Fprintf(&b, " prefix=%q", o.Prefix)
	}
	return b.String()
}

// OpError reports which operation of a script failed.
type OpError struct {
	Step int
	Op   Op
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Decode reads one YAML script. Unknown fields are rejected.
func Decode(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	return &s, nil
}

func LoadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}
