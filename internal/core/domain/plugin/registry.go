package plugin

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"wabot/internal/core/domain"
	"wabot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// HandlerFunc is the execute capability of a Descriptor.
type HandlerFunc func(ctx context.Context, inv *port.Invocation) error

// Descriptor adapts a plain function to port.Plugin.
type Descriptor struct {
	Command string
	Help    string
	Handler HandlerFunc
}

func (d Descriptor) Name() string {
	return d.Command
}

func (d Descriptor) Description() string {
	return d.Help
}

func (d Descriptor) Execute(ctx context.Context, inv *port.Invocation) error {
	return d.Handler(ctx, inv)
}

// Unit is a declared source of one plugin. Load may fail, in which case the unit is skipped.
type Unit struct {
	Source string
	Load   func() (port.Plugin, error)
}

// Static wraps an already constructed plugin in a Unit.
func Static(p port.Plugin) Unit {
	return Unit{
		Source: fmt.Sprintf("%T", p),
		Load: func() (port.Plugin, error) {
			return p, nil
		},
	}
}

// LoadError records a unit that did not make it into the registry.
type LoadError struct {
	Source string
	Err    error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("failed to load plugin %s: %v", e.Source, e.Err)
}

func (e LoadError) Unwrap() error {
	return e.Err
}

type loadOptions struct {
	rejectDuplicates bool
}

type Option func(*loadOptions)

// WithRejectDuplicates keeps the first plugin registered under a name and rejects later ones. Without it the
// last loaded plugin wins.
func WithRejectDuplicates() Option {
	return func(o *loadOptions) {
		o.rejectDuplicates = true
	}
}

// Registry maps lowercase command names to plugins. It is not modified after Load returns.
type Registry struct {
	plugins map[string]port.Plugin
	// names holds the name each plugin reported at load time.
	names map[string]string
}

// Load builds a registry from units. Units that fail to load or produce an invalid plugin are skipped and
// reported; they never abort loading of the remaining units.
func Load(units []Unit, opts ...Option) (*Registry, []LoadError) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	r := &Registry{
		plugins: make(map[string]port.Plugin, len(units)),
		names:   make(map[string]string, len(units)),
	}

	var failures []LoadError

	for _, unit := range units {
		p, name, err := loadUnit(unit)
		if err != nil {
			log.Warn().Err(err).Str("source", unit.Source).Msg("skipped invalid plugin")
			failures = append(failures, LoadError{Source: unit.Source, Err: err})
			continue
		}

		key := strings.ToLower(name)

		if existing, ok := r.names[key]; ok {
			if o.rejectDuplicates {
				err = fmt.Errorf("%w: name %q already registered", domain.ErrInvalidPlugin, existing)
				log.Warn().Err(err).Str("source", unit.Source).Msg("rejected duplicate plugin")
				failures = append(failures, LoadError{Source: unit.Source, Err: err})
				continue
			}

			log.Warn().
				Str("plugin", key).
				Str("source", unit.Source).
				Msg("plugin name already registered, replacing previous plugin")
		}

		r.plugins[key] = p
		r.names[key] = name
		log.Info().Str("plugin", name).Str("source", unit.Source).Msg("loaded plugin")
	}

	return r, failures
}

// loadUnit runs the loader and validates its result. A panic in the loader or in the plugin's own methods is
// reported as an error for this unit only.
func loadUnit(unit Unit) (p port.Plugin, name string, err error) {
	if unit.Load == nil {
		return nil, "", fmt.Errorf("%w: no loader", domain.ErrInvalidPlugin)
	}

	defer func() {
		if rec := recover(); rec != nil {
			p, name, err = nil, "", fmt.Errorf("panic while loading: %v", rec)
		}
	}()

	p, err = unit.Load()
	if err != nil {
		return nil, "", err
	}

	name, err = validate(p)
	if err != nil {
		return nil, "", err
	}

	return p, name, nil
}

// validate returns the plugin's name once it is known to be usable.
func validate(p port.Plugin) (string, error) {
	switch d := p.(type) {
	case nil:
		return "", fmt.Errorf("%w: no plugin returned", domain.ErrInvalidPlugin)
	case Descriptor:
		if d.Handler == nil {
			return "", fmt.Errorf("%w: missing handler", domain.ErrInvalidPlugin)
		}
	case *Descriptor:
		if d != nil && d.Handler == nil {
			return "", fmt.Errorf("%w: missing handler", domain.ErrInvalidPlugin)
		}
	}

	if v := reflect.ValueOf(p); v.Kind() == reflect.Pointer && v.IsNil() {
		return "", fmt.Errorf("%w: no plugin returned", domain.ErrInvalidPlugin)
	}

	name := p.Name()

	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: missing name", domain.ErrInvalidPlugin)
	}

	if strings.ContainsFunc(name, unicode.IsSpace) {
		return "", fmt.Errorf("%w: name %q contains whitespace", domain.ErrInvalidPlugin, name)
	}

	return name, nil
}

func (r *Registry) Resolve(command string) (port.Plugin, error) {
	log.Debug().Str("command", command).Msg("fetching plugin from registry")

	if r == nil || r.plugins == nil {
		return nil, fmt.Errorf("registry not initialized: %w", domain.ErrPluginNotFound)
	}

	p, ok := r.plugins[strings.ToLower(command)]
	if !ok {
		return nil, domain.ErrPluginNotFound
	}

	return p, nil
}

func (r *Registry) List() []port.Plugin {
	if r == nil {
		return nil
	}

	keys := make([]string, 0, len(r.plugins))
	for k := range r.plugins {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	list := make([]port.Plugin, len(keys))
	for i, k := range keys {
		list[i] = r.plugins[k]
	}

	return list
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.plugins)
}
