package session

import (
	"context"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facetlabs/facet/internal/domain/data"
	"github.com/facetlabs/facet/internal/domain/filter"
	"github.com/facetlabs/facet/internal/domain/lifecycle"
	"github.com/facetlabs/facet/internal/domain/module"
)

type nopPresenter struct{}

func (nopPresenter) Swap(c lifecycle.Composition) error { return nil }

func testTree() module.Tree {
	return module.Tree{Title: "demo", Nodes: []module.Node{
		{Leaf: &module.Leaf{
			ID:       "overview",
			Title:    "Overview",
			Datasets: []string{"iris"},
			Module:   module.Func(func(ctx context.Context, act module.Activation) error { return nil }),
		}},
	}}
}

func testBundle(t *testing.T) *data.Bundle {
	t.Helper()
	iris, err := data.NewTable("iris", []string{"species"}, [][]any{{"setosa"}})
	require.NoError(t, err)
	bundle, err := data.NewBundle(iris)
	require.NoError(t, err)
	return bundle
}

func newSession(t *testing.T, resolver data.Resolver) *Session {
	t.Helper()
	sess, err := New(Options{
		Title:         "Iris Explorer",
		Tree:          testTree(),
		DefaultFilter: filter.NewState("demo"),
		Resolver:      resolver,
		Presenter:     nopPresenter{},
	})
	require.NoError(t, err)
	return sess
}

func TestNewRequiresResolver(t *testing.T) {
	_, err := New(Options{
		Title:         "demo",
		Tree:          testTree(),
		DefaultFilter: filter.NewState("demo"),
		Presenter:     nopPresenter{},
	})
	assert.Error(t, err)
}

func TestSessionIdentity(t *testing.T) {
	sess := newSession(t, data.PendingResolver{})

	assert.Contains(t, sess.ID.String(), "sess_")
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "Iris Explorer", sess.Title())
	assert.Equal(t, lifecycle.StateAwaitingData, sess.State())
}

func TestTimezoneOneShot(t *testing.T) {
	sess := newSession(t, data.PendingResolver{})

	if _, set := sess.Timezone(); set {
		t.Fatal("Fresh session should have no timezone")
	}

	assert.False(t, sess.SetTimezone(""), "empty timezone is ignored")
	assert.True(t, sess.SetTimezone("America/New_York"), "first receipt stores")
	assert.False(t, sess.SetTimezone("Europe/Berlin"), "redundant receipt is ignored")

	tz, set := sess.Timezone()
	assert.True(t, set)
	assert.Equal(t, "America/New_York", tz)
}

func TestRunActivatesSession(t *testing.T) {
	sess := newSession(t, data.NewStaticResolver(testBundle(t)))

	require.NoError(t, sess.Run(context.Background()))

	assert.Equal(t, lifecycle.StateActive, sess.State())
	assert.NotNil(t, sess.Registry())
	assert.NotNil(t, sess.Filters())
}

func TestDiagnostics(t *testing.T) {
	sess := newSession(t, data.NewStaticResolver(testBundle(t)))
	sess.SetTimezone("UTC")
	require.NoError(t, sess.Run(context.Background()))

	d := sess.Diagnostics()
	assert.Equal(t, sess.ID.String(), d.SessionID)
	assert.NotZero(t, d.PID)
	assert.Equal(t, sess.Token[:8], d.TokenFragment, "only a fragment of the token is exposed")
	assert.Equal(t, string(lifecycle.StateActive), d.State)
	assert.Equal(t, "UTC", d.Timezone)
	assert.NotEmpty(t, d.Fingerprint)
}

func TestLockfileRequiresActive(t *testing.T) {
	sess := newSession(t, data.PendingResolver{})

	_, err := sess.Lockfile()
	assert.Error(t, err)
}

func TestLockfileContent(t *testing.T) {
	sess := newSession(t, data.NewStaticResolver(testBundle(t)))
	require.NoError(t, sess.Run(context.Background()))

	raw, err := sess.Lockfile()
	require.NoError(t, err)

	var doc struct {
		App struct {
			Title     string `toml:"title"`
			SessionID string `toml:"session_id"`
		} `toml:"app"`
		Bundle struct {
			Fingerprint string `toml:"fingerprint"`
		} `toml:"bundle"`
		Modules []struct {
			ID       string   `toml:"id"`
			Datasets []string `toml:"datasets"`
		} `toml:"modules"`
	}
	require.NoError(t, toml.Unmarshal(raw, &doc))

	assert.Equal(t, "Iris Explorer", doc.App.Title)
	assert.Equal(t, sess.ID.String(), doc.App.SessionID)
	assert.Equal(t, sess.Registry().Fingerprint(), doc.Bundle.Fingerprint)
	require.Len(t, doc.Modules, 1)
	assert.Equal(t, "overview", doc.Modules[0].ID)
	assert.Equal(t, []string{"iris"}, doc.Modules[0].Datasets)
}

func TestManager(t *testing.T) {
	m := NewManager()
	sess := newSession(t, data.PendingResolver{})

	m.Add(sess)
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	m.Remove(sess.ID)
	assert.Equal(t, 0, m.Count())
	_, ok = m.Get(sess.ID)
	assert.False(t, ok)

	// Removing twice is safe.
	m.Remove(sess.ID)
}
