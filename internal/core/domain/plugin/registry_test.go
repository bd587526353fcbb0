package plugin

import (
	"context"
	"errors"
	"testing"
	"wabot/internal/core/domain"
	"wabot/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockPlugin struct {
	name        string
	description string
}

func (m *MockPlugin) Name() string {
	return m.name
}

func (m *MockPlugin) Description() string {
	return m.description
}

func (m *MockPlugin) Execute(_ context.Context, _ *port.Invocation) error {
	return nil
}

type panickingPlugin struct{}

func (panickingPlugin) Name() string {
	panic("name unavailable")
}

func (panickingPlugin) Description() string {
	return ""
}

func (panickingPlugin) Execute(_ context.Context, _ *port.Invocation) error {
	return nil
}

func noop(_ context.Context, _ *port.Invocation) error {
	return nil
}

func TestLoad(t *testing.T) {
	units := []Unit{
		Static(&MockPlugin{name: "foo"}),
		Static(&MockPlugin{name: "bar"}),
	}

	r, failures := Load(units)

	assert.Empty(t, failures)
	assert.Equal(t, 2, r.Len())
}

func TestLoadSkipsInvalidUnits(t *testing.T) {
	units := []Unit{
		Static(&MockPlugin{name: "good"}),
		{Source: "missing-handler", Load: func() (port.Plugin, error) {
			return Descriptor{Command: "broken"}, nil
		}},
		{Source: "missing-handler-ptr", Load: func() (port.Plugin, error) {
			return &Descriptor{Command: "brokenptr"}, nil
		}},
		{Source: "nil-descriptor-ptr", Load: func() (port.Plugin, error) {
			var d *Descriptor
			return d, nil
		}},
		{Source: "empty-name", Load: func() (port.Plugin, error) {
			return Descriptor{Command: "  ", Handler: noop}, nil
		}},
		{Source: "spaced-name", Load: func() (port.Plugin, error) {
			return Descriptor{Command: "two words", Handler: noop}, nil
		}},
		{Source: "nil-plugin", Load: func() (port.Plugin, error) {
			return nil, nil
		}},
		{Source: "load-error", Load: func() (port.Plugin, error) {
			return nil, errors.New("api key missing")
		}},
		{Source: "load-panic", Load: func() (port.Plugin, error) {
			panic("boom")
		}},
		{Source: "no-loader"},
		{Source: "typed-nil", Load: func() (port.Plugin, error) {
			var p *MockPlugin
			return p, nil
		}},
		{Source: "name-panic", Load: func() (port.Plugin, error) {
			return panickingPlugin{}, nil
		}},
		{Source: "descriptor", Load: func() (port.Plugin, error) {
			return Descriptor{Command: "late", Help: "loaded after failures", Handler: noop}, nil
		}},
	}

	var (
		r        *Registry
		failures []LoadError
	)
	require.NotPanics(t, func() {
		r, failures = Load(units)
	})

	require.Len(t, failures, 11)
	assert.Equal(t, 2, r.Len())

	sources := make([]string, len(failures))
	for i, f := range failures {
		sources[i] = f.Source
	}
	assert.Equal(t, []string{
		"missing-handler", "missing-handler-ptr", "nil-descriptor-ptr", "empty-name", "spaced-name",
		"nil-plugin", "load-error", "load-panic", "no-loader", "typed-nil", "name-panic",
	}, sources)

	require.ErrorIs(t, failures[0], domain.ErrInvalidPlugin)
	assert.ErrorContains(t, failures[7], "boom")
	require.ErrorIs(t, failures[9], domain.ErrInvalidPlugin)
	assert.ErrorContains(t, failures[10], "name unavailable")

	_, err := r.Resolve("broken")
	require.ErrorIs(t, err, domain.ErrPluginNotFound)

	p, err := r.Resolve("late")
	require.NoError(t, err)
	assert.Equal(t, "loaded after failures", p.Description())
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	r, _ := Load([]Unit{Static(&MockPlugin{name: "Ping"})})

	for _, cmd := range []string{"ping", "PING", "Ping", "pInG"} {
		t.Run(cmd, func(t *testing.T) {
			p, err := r.Resolve(cmd)
			require.NoError(t, err)
			assert.Equal(t, "Ping", p.Name())
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	r, _ := Load([]Unit{Static(&MockPlugin{name: "ping"})})

	testCases := []struct {
		description string
		command     string
	}{
		{description: "unknown command", command: "pong"},
		{description: "empty command", command: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			_, err := r.Resolve(testCase.command)
			require.ErrorIs(t, err, domain.ErrPluginNotFound)
		})
	}
}

func TestResolveNotInitialized(t *testing.T) {
	r := &Registry{}

	_, err := r.Resolve("test")
	require.ErrorIs(t, err, domain.ErrPluginNotFound)
}

func TestLoadCollisionLastWins(t *testing.T) {
	first := &MockPlugin{name: "Echo", description: "first"}
	second := &MockPlugin{name: "ECHO", description: "second"}

	r, failures := Load([]Unit{Static(first), Static(second)})

	assert.Empty(t, failures)
	assert.Equal(t, 1, r.Len())

	p, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.Same(t, second, p)
}

func TestLoadCollisionRejectDuplicates(t *testing.T) {
	first := &MockPlugin{name: "Echo", description: "first"}
	second := &MockPlugin{name: "ECHO", description: "second"}

	r, failures := Load([]Unit{Static(first), Static(second)}, WithRejectDuplicates())

	require.Len(t, failures, 1)
	require.ErrorIs(t, failures[0], domain.ErrInvalidPlugin)
	assert.Equal(t, 1, r.Len())

	p, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.Same(t, first, p)
}

func TestList(t *testing.T) {
	r, _ := Load([]Unit{
		Static(&MockPlugin{name: "foo"}),
		Static(&MockPlugin{name: "Bar"}),
		Static(&MockPlugin{name: "baz"}),
	})

	list := r.List()

	require.Len(t, list, 3)
	assert.Equal(t, "Bar", list[0].Name())
	assert.Equal(t, "baz", list[1].Name())
	assert.Equal(t, "foo", list[2].Name())
}

func TestStaticSource(t *testing.T) {
	u := Static(NewPing())

	assert.Equal(t, "*plugin.Ping", u.Source)
}
