// Package session persists roots chat conversations in a kv.Store so the CLI
// can resume them across runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/roots/pkg/kv"
	"github.com/haivivi/roots/pkg/roots"
)

// ErrNotFound is returned when no session has the requested id.
var ErrNotFound = errors.New("session: not found")

// DefaultPrefix is the key prefix used when Store.Prefix is empty.
var DefaultPrefix = kv.Key{"roots", "session"}

// Meta describes a stored session.
type Meta struct {
	ID        string    `json:"id" yaml:"id" msgpack:"id"`
	Title     string    `json:"title,omitempty" yaml:"title,omitempty" msgpack:"title,omitempty"`
	Turns     int       `json:"turns" yaml:"turns" msgpack:"turns"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at" msgpack:"updated_at"`
}

// Session is a conversation and its metadata.
type Session struct {
	Meta
	History roots.ChatHistory
}

// Store reads and writes sessions.
type Store struct {
	KV     kv.Store
	Prefix kv.Key

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *Store) prefix() kv.Key {
	if len(s.Prefix) == 0 {
		return DefaultPrefix
	}
	return s.Prefix
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create stores a new empty session.
func (s *Store) Create(ctx context.Context, title string) (*Session, error) {
	now := s.now()
	sess := &Session{Meta: Meta{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	data, err := msgpack.Marshal(&sess.Meta)
	if err != nil {
		return nil, err
	}
	if err := s.KV.Set(ctx, metaKey(s.prefix(), sess.ID), data); err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}
	return sess, nil
}

// Load returns the session with the given id. A unique id prefix is accepted
// as well.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	meta, err := s.meta(ctx, id)
	if err != nil {
		return nil, err
	}
	turns := make([]roots.ChatTurn, 0, meta.Turns)
	for e, err := range s.KV.List(ctx, turnPrefix(s.prefix(), meta.ID)) {
		if err != nil {
			return nil, err
		}
		var turn roots.ChatTurn
		if err := msgpack.Unmarshal(e.Value, &turn); err != nil {
			return nil, fmt.Errorf("session: decode turn %s: %w", e.Key, err)
		}
		turns = append(turns, turn)
	}
	return &Session{Meta: *meta, History: roots.NewChatHistory(turns...)}, nil
}

func (s *Store) meta(ctx context.Context, id string) (*Meta, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	data, err := s.KV.Get(ctx, metaKey(s.prefix(), id))
	if errors.Is(err, kv.ErrNotFound) {
		data, err = s.byPrefix(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	var m Meta
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}
	return &m, nil
}

func (s *Store) byPrefix(ctx context.Context, id string) ([]byte, error) {
	var found []kv.Entry
	for e, err := range s.KV.List(ctx, metaPrefix(s.prefix())) {
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(e.Key[len(e.Key)-1], id) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0].Value, nil
	default:
		return nil, fmt.Errorf("session: id prefix %q is ambiguous", id)
	}
}

// Save writes the session's history and updates its metadata. Turns stored
// beyond the current history length are removed.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	old, err := s.meta(ctx, sess.ID)
	if err != nil {
		return err
	}
	if old.ID != sess.ID {
		return fmt.Errorf("%w: %s", ErrNotFound, sess.ID)
	}

	sess.Turns = sess.History.Len()
	sess.UpdatedAt = s.now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = old.CreatedAt
	}

	entries := make([]kv.Entry, 0, sess.Turns+1)
	for i, turn := range sess.History.All() {
		data, err := msgpack.Marshal(&turn)
		if err != nil {
			return err
		}
		entries = append(entries, kv.Entry{Key: turnKey(s.prefix(), sess.ID, i), Value: data})
	}
	data, err := msgpack.Marshal(&sess.Meta)
	if err != nil {
		return err
	}
	entries = append(entries, kv.Entry{Key: metaKey(s.prefix(), sess.ID), Value: data})
	if err := s.KV.BatchSet(ctx, entries); err != nil {
		return fmt.Errorf("session: save %s: %w", sess.ID, err)
	}

	if old.Turns > sess.Turns {
		var stale []kv.Key
		for i := sess.Turns; i < old.Turns; i++ {
			stale = append(stale, turnKey(s.prefix(), sess.ID, i))
		}
		if err := s.KV.BatchDelete(ctx, stale); err != nil {
			return fmt.Errorf("session: trim %s: %w", sess.ID, err)
		}
	}
	return nil
}

// List returns the metadata of every session, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	var metas []Meta
	for e, err := range s.KV.List(ctx, metaPrefix(s.prefix())) {
		if err != nil {
			return nil, err
		}
		var m Meta
		if err := msgpack.Unmarshal(e.Value, &m); err != nil {
			continue
		}
		metas = append(metas, m)
	}
	slices.SortStableFunc(metas, func(a, b Meta) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return metas, nil
}

// Delete removes a session and all of its turns.
func (s *Store) Delete(ctx context.Context, id string) error {
	meta, err := s.meta(ctx, id)
	if err != nil {
		return err
	}
	keys := []kv.Key{metaKey(s.prefix(), meta.ID)}
	for e, err := range s.KV.List(ctx, turnPrefix(s.prefix(), meta.ID)) {
		if err != nil {
			return err
		}
		keys = append(keys, e.Key)
	}
	return s.KV.BatchDelete(ctx, keys)
}
