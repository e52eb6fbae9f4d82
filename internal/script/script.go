// Package script decodes and runs rangeagg scripts: a tree definition plus a
// sequence of query, update and get steps.
package script

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidScript is returned when a script fails schema validation.
var ErrInvalidScript = errors.New("script: invalid script")

// Step kinds.
const (
	KindQuery  = "query"
	KindUpdate = "update"
	KindGet    = "get"
)

// Script is a decoded rangeagg script.
type Script struct {
	Operator string  `yaml:"operator" json:"operator"`
	Size     *int    `yaml:"size,omitempty" json:"size,omitempty"`
	Values   []int64 `yaml:"values" json:"values"`
	Steps    []Step  `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// Step holds exactly one operation.
type Step struct {
	Query  *QueryArgs  `yaml:"query,omitempty" json:"query,omitempty"`
	Update *UpdateArgs `yaml:"update,omitempty" json:"update,omitempty"`
	Get    *GetArgs    `yaml:"get,omitempty" json:"get,omitempty"`
}

// QueryArgs is the half-open range of a query step.
type QueryArgs struct {
	Left  int `yaml:"left" json:"left"`
	Right int `yaml:"right" json:"right"`
}

// UpdateArgs is the slot and new value of an update step.
type UpdateArgs struct {
	Index int   `yaml:"index" json:"index"`
	Value int64 `yaml:"value" json:"value"`
}

// GetArgs is the slot of a get step.
type GetArgs struct {
	Index int `yaml:"index" json:"index"`
}

// Kind names the operation the step carries.
func (s Step) Kind() string {
	switch {
	case s.Query != nil:
		return KindQuery
	case s.Update != nil:
		return KindUpdate
	case s.Get != nil:
		return KindGet
	default:
		return ""
	}
}

// Describe renders the step arguments for humans.
func (s Step) Describe() string {
	switch {
	case s.Query != nil:
		return fmt.Sprintf("[%d, %d)", s.Query.Left, s.Query.Right)
	case s.Update != nil:
		return fmt.Sprintf("%d = %d", s.Update.Index, s.Update.Value)
	case s.Get != nil:
		return fmt.Sprintf("%d", s.Get.Index)
	default:
		return ""
	}
}

// TreeSize is the explicit size, or the number of values when none is set.
func (s *Script) TreeSize() int {
	if s.Size != nil {
		return *s.Size
	}

	return len(s.Values)
}

// Kinds lists the step kinds in order.
func (s *Script) Kinds() []string {
	return lo.Map(s.Steps, func(step Step, _ int) string {
		return step.Kind()
	})
}

// Decode reads a YAML (or JSON) script, validates it against the embedded
// schema and decodes it.
func Decode(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var doc any

	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	err = validate(doc)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script

	err = dec.Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	return &s, nil
}

func validate(doc any) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidScript)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	if result.Valid() {
		return nil
	}

	problems := lo.Map(result.Errors(), func(re gojsonschema.ResultError, _ int) string {
		return fmt.Sprintf("%s: %s", re.Field(), re.Description())
	})

	return fmt.Errorf("%w: %s", ErrInvalidScript, strings.Join(problems, "; "))
}
