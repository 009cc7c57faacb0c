// internal/lobby/lobby.go
package lobby

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNameTaken     = errors.New("player name is already taken")
	ErrUnknownPlayer = errors.New("player is not in the lobby")
	ErrAlreadyReady  = errors.New("player is already ready")
	ErrNotReady      = errors.New("player is not marked ready")
)

// MinTableSize is the minimum number of ready players needed to start.
const MinTableSize = 2

// Lobby tracks the roster of connected player names, their ready flags, and
// the 1:1 binding between transport connection identities and names. Every
// ready name is always a member of the roster; removal clears both sides
// atomically.
//
// Lobby is not safe for concurrent use; the engine serializes access.
type Lobby struct {
	roster     []string
	ready      map[string]bool
	nameByConn map[uuid.UUID]string
	connByName map[string]uuid.UUID
}

// New returns an empty lobby.
func New() *Lobby {
	return &Lobby{
		ready:      make(map[string]bool),
		nameByConn: make(map[uuid.UUID]string),
		connByName: make(map[string]uuid.UUID),
	}
}

// AddPlayer appends a uniquely named player to the roster and binds it to
// the given connection identity.
func (l *Lobby) AddPlayer(name string, conn uuid.UUID) error {
	if _, taken := l.connByName[name]; taken {
		return ErrNameTaken
	}
	l.roster = append(l.roster, name)
	l.nameByConn[conn] = name
	l.connByName[name] = conn
	return nil
}

// RemovePlayer removes a player from the roster, the ready set, and both
// binding directions in one step.
func (l *Lobby) RemovePlayer(name string) error {
	conn, ok := l.connByName[name]
	if !ok {
		return ErrUnknownPlayer
	}
	for i, n := range l.roster {
		if n == name {
			l.roster = append(l.roster[:i], l.roster[i+1:]...)
			break
		}
	}
	delete(l.ready, name)
	delete(l.connByName, name)
	delete(l.nameByConn, conn)
	return nil
}

// MarkReady flags a rostered player as ready.
func (l *Lobby) MarkReady(name string) error {
	if _, ok := l.connByName[name]; !ok {
		return ErrUnknownPlayer
	}
	if l.ready[name] {
		return ErrAlreadyReady
	}
	l.ready[name] = true
	return nil
}

// UnmarkReady clears a rostered player's ready flag.
func (l *Lobby) UnmarkReady(name string) error {
	if _, ok := l.connByName[name]; !ok {
		return ErrUnknownPlayer
	}
	if !l.ready[name] {
		return ErrNotReady
	}
	delete(l.ready, name)
	return nil
}

// CanStart reports whether enough players are ready to seat a table. Pure
// query; the engine decides when to act on it.
func (l *Lobby) CanStart() bool {
	return len(l.ready) >= MinTableSize
}

// AllReady reports whether every rostered player is marked ready.
func (l *Lobby) AllReady() bool {
	if len(l.roster) == 0 {
		return false
	}
	for _, name := range l.roster {
		if !l.ready[name] {
			return false
		}
	}
	return true
}

// ResetReady clears every ready flag, e.g. when a game ends.
func (l *Lobby) ResetReady() {
	l.ready = make(map[string]bool)
}

// NameFor resolves a connection identity to its bound player name.
func (l *Lobby) NameFor(conn uuid.UUID) (string, bool) {
	name, ok := l.nameByConn[conn]
	return name, ok
}

// ConnFor resolves a player name to its bound connection identity.
func (l *Lobby) ConnFor(name string) (uuid.UUID, bool) {
	conn, ok := l.connByName[name]
	return conn, ok
}

// Roster returns the connected player names in join order.
func (l *Lobby) Roster() []string {
	return append([]string(nil), l.roster...)
}

// ReadyNames returns the names currently marked ready, in roster order.
func (l *Lobby) ReadyNames() []string {
	names := make([]string, 0, len(l.ready))
	for _, name := range l.roster {
		if l.ready[name] {
			names = append(names, name)
		}
	}
	return names
}

// Size returns the number of rostered players.
func (l *Lobby) Size() int {
	return len(l.roster)
}
