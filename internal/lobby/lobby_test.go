// internal/lobby/lobby_test.go
package lobby

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlayerRejectsDuplicates(t *testing.T) {
	l := New()
	require.NoError(t, l.AddPlayer("alice", uuid.New()))
	assert.ErrorIs(t, l.AddPlayer("alice", uuid.New()), ErrNameTaken)
	assert.Equal(t, []string{"alice"}, l.Roster())
}

func TestRemovePlayerClearsEverything(t *testing.T) {
	l := New()
	connA := uuid.New()
	require.NoError(t, l.AddPlayer("alice", connA))
	require.NoError(t, l.AddPlayer("bob", uuid.New()))
	require.NoError(t, l.MarkReady("alice"))

	require.NoError(t, l.RemovePlayer("alice"))
	assert.Equal(t, []string{"bob"}, l.Roster())
	assert.Empty(t, l.ReadyNames())
	_, bound := l.NameFor(connA)
	assert.False(t, bound, "connection binding must go with the player")
	_, bound = l.ConnFor("alice")
	assert.False(t, bound)

	assert.ErrorIs(t, l.RemovePlayer("alice"), ErrUnknownPlayer)
}

func TestReadyToggles(t *testing.T) {
	l := New()
	require.NoError(t, l.AddPlayer("alice", uuid.New()))

	assert.ErrorIs(t, l.UnmarkReady("alice"), ErrNotReady)
	require.NoError(t, l.MarkReady("alice"))
	assert.ErrorIs(t, l.MarkReady("alice"), ErrAlreadyReady)
	require.NoError(t, l.UnmarkReady("alice"))
	assert.Empty(t, l.ReadyNames())

	assert.ErrorIs(t, l.MarkReady("ghost"), ErrUnknownPlayer)
}

func TestCanStart(t *testing.T) {
	l := New()
	require.NoError(t, l.AddPlayer("alice", uuid.New()))
	require.NoError(t, l.AddPlayer("bob", uuid.New()))
	require.NoError(t, l.AddPlayer("carol", uuid.New()))

	assert.False(t, l.CanStart())
	require.NoError(t, l.MarkReady("alice"))
	assert.False(t, l.CanStart())
	require.NoError(t, l.MarkReady("bob"))
	assert.True(t, l.CanStart(), "two ready players seat a table")
	assert.False(t, l.AllReady())
	require.NoError(t, l.MarkReady("carol"))
	assert.True(t, l.AllReady())

	l.ResetReady()
	assert.False(t, l.CanStart())
	assert.Equal(t, 3, l.Size())
}

// TestReadyAlwaysSubsetOfRoster drives an arbitrary operation sequence and
// checks the invariant after every step.
func TestReadyAlwaysSubsetOfRoster(t *testing.T) {
	l := New()
	names := []string{"alice", "bob", "carol", "dave"}

	checkInvariant := func() {
		t.Helper()
		roster := map[string]bool{}
		for _, n := range l.Roster() {
			assert.False(t, roster[n], "roster must not contain duplicates")
			roster[n] = true
		}
		for _, n := range l.ReadyNames() {
			assert.True(t, roster[n], "ready name %q must be rostered", n)
		}
	}

	ops := []func(){
		func() { _ = l.AddPlayer(names[0], uuid.New()) },
		func() { _ = l.AddPlayer(names[1], uuid.New()) },
		func() { _ = l.MarkReady(names[0]) },
		func() { _ = l.MarkReady(names[1]) },
		func() { _ = l.AddPlayer(names[2], uuid.New()) },
		func() { _ = l.RemovePlayer(names[0]) },
		func() { _ = l.UnmarkReady(names[1]) },
		func() { _ = l.AddPlayer(names[3], uuid.New()) },
		func() { _ = l.MarkReady(names[3]) },
		func() { _ = l.RemovePlayer(names[3]) },
		func() { _ = l.MarkReady(names[2]) },
		func() { _ = l.RemovePlayer(names[1]) },
	}
	for _, op := range ops {
		op()
		checkInvariant()
	}
}
