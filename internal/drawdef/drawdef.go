// Package drawdef loads drawable definitions from YAML into condition
// state tables.
//
// A file holds a list of drawables:
//
//	drawables:
//	  - name: Tank
//	    ignore_conditions: [MOVING]
//	    default:
//	      model: tank
//	    states:
//	      - conditions: [DAMAGED]
//	        aliases: [[REALLYDAMAGED]]
//	        model: tank_d
//	    transitions:
//	      - from: Up
//	        to: Down
//	        model: tank_fold
//	        animation_mode: ONCE
package drawdef

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/drawstate/internal/drawstate"
	"github.com/Faultbox/drawstate/pkg/namekey"
)

// Definition errors.
var (
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidField      = errors.New("invalid field")
	ErrMissingName       = errors.New("drawable without a name")
	ErrDuplicateTemplate = errors.New("duplicate drawable name")
)

// Options controls loading.
type Options struct {
	// Strict aborts on the first bad drawable. Otherwise bad drawables are
	// skipped and reported together.
	Strict bool
	Logger *zap.Logger
}

// Loader accumulates drawables from one or more files.
type Loader struct {
	names  *namekey.Interner
	opts   Options
	log    *zap.Logger
	tables map[string]*drawstate.Table // keyed by lowercase name
	order  []*drawstate.Table
}

// NewLoader creates a loader interning names in names.
func NewLoader(names *namekey.Interner, opts Options) *Loader {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		names:  names,
		opts:   opts,
		log:    log,
		tables: make(map[string]*drawstate.Table),
	}
}

// LoadFile loads the drawables in path.
func (l *Loader) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening definitions: %w", err)
	}
	defer f.Close()
	return l.Load(f, path)
}

// Load loads drawables from r; source names r in errors.
//
// Syntax errors always fail the whole load. A drawable that breaks a
// table invariant or has a bad field fails the load in strict mode;
// otherwise it is skipped, and the returned error lists every skipped
// drawable while the rest stay loaded.
func (l *Loader) Load(r io.Reader, source string) error {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: %w", source, err)
	}

	root := doc.Content[0]
	if err := checkKeys(root, "drawables"); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	if len(root.Content) == 0 {
		return nil
	}
	list := root.Content[1]
	if list.Tag == "!!null" {
		return nil
	}
	if list.Kind != yaml.SequenceNode {
		return fmt.Errorf("%s: %w", source, fieldError(list, "drawables must be a list"))
	}

	var skipped error
	for _, item := range list.Content {
		table, err := l.parseDrawable(item)
		if err == nil {
			err = l.add(table)
		}
		if err == nil {
			continue
		}
		err = fmt.Errorf("%s: %w", source, err)
		if l.opts.Strict {
			return err
		}
		l.log.Warn("skipping drawable", zap.Error(err))
		skipped = multierr.Append(skipped, err)
	}
	return skipped
}

func (l *Loader) add(t *drawstate.Table) error {
	key := strings.ToLower(t.Name())
	if _, dup := l.tables[key]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.Name())
	}
	l.tables[key] = t
	l.order = append(l.order, t)
	l.log.Debug("drawable loaded",
		zap.String("template", t.Name()),
		zap.Int("states", len(t.States())),
		zap.Int("transitions", len(t.Transitions())),
	)
	return nil
}

// Table returns a loaded drawable by name, ignoring case.
func (l *Loader) Table(name string) (*drawstate.Table, bool) {
	t, ok := l.tables[strings.ToLower(name)]
	return t, ok
}

// Tables returns the loaded drawables in load order.
func (l *Loader) Tables() []*drawstate.Table { return l.order }

// TemplateNames returns the loaded drawable names, sorted.
func (l *Loader) TemplateNames() []string {
	out := make([]string, 0, len(l.order))
	for _, t := range l.order {
		out = append(out, t.Name())
	}
	sort.Strings(out)
	return out
}

// drawableKeys are the keys of one drawable, in the order they apply.
var drawableKeys = []string{"name", "scale", "ignore_conditions", "public_bones", "default", "states", "transitions"}

func (l *Loader) parseDrawable(n *yaml.Node) (*drawstate.Table, error) {
	if err := checkKeys(n, drawableKeys...); err != nil {
		return nil, err
	}
	fields := mappingFields(n)

	var name string
	if v, ok := fields["name"]; ok {
		if err := decodeScalar(v, &name); err != nil {
			return nil, err
		}
	}
	if name == "" {
		return nil, fmt.Errorf("line %d: %w", n.Line, ErrMissingName)
	}
	t := drawstate.NewTable(name, l.names, l.log)

	// Table errors already name the template.
	wrap := func(err error) error {
		var ce *drawstate.ConfigError
		if errors.As(err, &ce) {
			return err
		}
		return fmt.Errorf("%s: %w", name, err)
	}

	if v, ok := fields["scale"]; ok {
		var scale float32
		if err := decodeScalar(v, &scale); err != nil {
			return nil, wrap(err)
		}
		if scale <= 0 {
			return nil, wrap(fieldError(v, "scale must be positive"))
		}
		t.SetScale(scale)
	}
	if v, ok := fields["ignore_conditions"]; ok {
		mask, err := parseConditions(v)
		if err != nil {
			return nil, wrap(err)
		}
		if err := t.SetIgnoreConditions(mask); err != nil {
			return nil, wrap(err)
		}
	}
	if v, ok := fields["public_bones"]; ok {
		names, err := stringList(v)
		if err != nil {
			return nil, wrap(err)
		}
		for _, b := range names {
			t.AddPublicBone(b)
		}
	}
	if v, ok := fields["default"]; ok {
		s := t.NewState()
		if _, err := applyState(s, v); err != nil {
			return nil, wrap(err)
		}
		if err := t.SetDefaultState(s); err != nil {
			return nil, wrap(err)
		}
	}
	if v, ok := fields["states"]; ok {
		if err := parseStates(t, v); err != nil {
			return nil, wrap(err)
		}
	}
	if v, ok := fields["transitions"]; ok {
		if err := parseTransitions(t, v); err != nil {
			return nil, wrap(err)
		}
	}
	return t, nil
}

func parseStates(t *drawstate.Table, n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return fieldError(n, "states must be a list")
	}
	for _, item := range n.Content {
		s := t.NewState()
		extra, err := applyState(s, item, "conditions", "aliases")
		if err != nil {
			return err
		}
		cond, ok := extra["conditions"]
		if !ok {
			return fmt.Errorf("line %d: %w", item.Line, drawstate.ErrNoConditions)
		}
		pattern, err := parseConditions(cond)
		if err != nil {
			return err
		}
		if err := t.AddConditionState(pattern, s); err != nil {
			return err
		}
		if aliases, ok := extra["aliases"]; ok {
			if aliases.Kind != yaml.SequenceNode {
				return fieldError(aliases, "aliases must be a list")
			}
			for _, a := range aliases.Content {
				alias, err := parseConditions(a)
				if err != nil {
					return err
				}
				if err := t.AddAliasFlags(alias); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func parseTransitions(t *drawstate.Table, n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return fieldError(n, "transitions must be a list")
	}
	for _, item := range n.Content {
		s := t.NewState()
		// Transitions default to playing once.
		s.AnimationMode = drawstate.AnimOnce
		extra, err := applyState(s, item, "from", "to")
		if err != nil {
			return err
		}
		var ends [2]string
		for i, key := range [2]string{"from", "to"} {
			v, ok := extra[key]
			if !ok {
				return fieldError(item, "transition without %q", key)
			}
			if err := decodeScalar(v, &ends[i]); err != nil {
				return err
			}
		}
		from, to := ends[0], ends[1]
		if err := t.AddTransition(from, to, s); err != nil {
			return err
		}
	}
	return nil
}

// applyState applies the schema fields of n to s. Keys listed in reserved
// are returned for the caller instead; any other key is an error.
func applyState(s *drawstate.State, n *yaml.Node, reserved ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fieldError(n, "expected a mapping")
	}
	extra := make(map[string]*yaml.Node)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if contains(reserved, key.Value) {
			extra[key.Value] = val
			continue
		}
		parse, ok := stateFields[key.Value]
		if !ok {
			return nil, fmt.Errorf("line %d: %w %q", key.Line, ErrUnknownField, key.Value)
		}
		if err := parse(s, val); err != nil {
			return nil, fmt.Errorf("%s: %w", key.Value, err)
		}
	}
	return extra, nil
}

func mappingFields(n *yaml.Node) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = n.Content[i+1]
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
