// Package model loads RSM models and answers bone queries against posed
// instances of them.
package model

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/drawstate/internal/drawstate"
	"github.com/Faultbox/drawstate/pkg/formats"
)

// Loader reads raw files, e.g. an assets.Manager.
type Loader interface {
	Load(path string) ([]byte, error)
}

// LibraryConfig controls how model names map to files.
type LibraryConfig struct {
	Prefix string // e.g. "data/model/"
	Ext    string // e.g. ".rsm"
	Logger *zap.Logger
}

// Library caches parsed models and creates instances of them. It
// implements drawstate.BoneQuery.
type Library struct {
	loader Loader
	prefix string
	ext    string
	log    *zap.Logger
	models map[string]*formats.RSM
	live   int
}

var _ drawstate.BoneQuery = (*Library)(nil)

// NewLibrary creates a library reading models through loader.
func NewLibrary(loader Loader, cfg LibraryConfig) *Library {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Library{
		loader: loader,
		prefix: cfg.Prefix,
		ext:    cfg.Ext,
		log:    cfg.Logger,
		models: make(map[string]*formats.RSM),
	}
}

// Path returns the file path for a model name. Model names ignore case,
// so the name part is lowercased, as archive paths are. Names that
// already carry the extension are used without adding it again.
func (l *Library) Path(name string) string {
	name = strings.ToLower(name)
	if l.ext != "" && strings.HasSuffix(name, strings.ToLower(l.ext)) {
		return l.prefix + name
	}
	return l.prefix + name + l.ext
}

// Model returns the parsed model, loading it on first use.
func (l *Library) Model(name string) (*formats.RSM, error) {
	key := strings.ToLower(name)
	if m, ok := l.models[key]; ok {
		return m, nil
	}

	path := l.Path(name)
	data, err := l.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", drawstate.ErrModelNotFound, name, err)
	}
	m, err := formats.ParseRSM(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	l.models[key] = m
	l.log.Debug("model loaded",
		zap.String("model", name),
		zap.String("path", path),
		zap.Int("nodes", len(m.Nodes)),
		zap.Stringer("version", m.Version),
	)
	return m, nil
}

// CreateTemporaryModelInstance creates an instance of the named model with
// a uniform scale applied.
func (l *Library) CreateTemporaryModelInstance(name string, scale float32) (drawstate.ModelInstance, error) {
	m, err := l.Model(name)
	if err != nil {
		return nil, err
	}
	inst := NewInstance(m)
	inst.SetScale(scale)
	l.live++
	return inst, nil
}

// ReleaseTemporaryModelInstance releases an instance created by
// CreateTemporaryModelInstance.
func (l *Library) ReleaseTemporaryModelInstance(inst drawstate.ModelInstance) {
	if _, ok := inst.(*Instance); ok && l.live > 0 {
		l.live--
	}
}

// Outstanding returns the number of unreleased temporary instances.
func (l *Library) Outstanding() int { return l.live }

// evicter is implemented by loaders that cache file contents, such as
// assets.Manager.
type evicter interface {
	Evict(path string)
}

// Reload drops cached models so they are read and parsed again on next
// use. Loader caches are evicted too.
func (l *Library) Reload() {
	if ev, ok := l.loader.(evicter); ok {
		for name := range l.models {
			ev.Evict(l.Path(name))
		}
	}
	clear(l.models)
}
