// Package kv is a small key-value store with hierarchical keys. It backs the
// persistent state of the roots CLI (chat sessions) with BadgerDB on disk and
// with an in-memory map in tests.
package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("kv: not found")

	// ErrInvalidKey is returned for empty keys and for segments that are
	// empty or contain the separator.
	ErrInvalidKey = errors.New("kv: invalid key")
)

// Separator joins key segments in the encoded form.
const Separator = ':'

// Key is a hierarchical path such as Key{"session", "3f0c", "turn", "0001"}.
type Key []string

// String returns the encoded form of the key.
func (k Key) String() string {
	return strings.Join(k, string(Separator))
}

// Append returns a new key with segs added after k. The receiver is never
// modified.
func (k Key) Append(segs ...string) Key {
	out := make(Key, 0, len(k)+len(segs))
	out = append(out, k...)
	return append(out, segs...)
}

// Entry is a key-value pair returned by List and accepted by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys. Implementations are safe
// for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	// List yields every entry strictly below prefix in lexicographic order
	// of the encoded key. An empty prefix lists the whole store.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet stores all entries in one transaction.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete removes all keys in one transaction.
	BatchDelete(ctx context.Context, keys []Key) error

	Close() error
}

func encode(k Key) ([]byte, error) {
	if len(k) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if err := validate(k); err != nil {
		return nil, err
	}
	return []byte(k.String()), nil
}

// encodePrefix returns the byte prefix shared by all keys below k, including
// the trailing separator so "a:b" does not match "a:bc".
func encodePrefix(k Key) ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}
	if err := validate(k); err != nil {
		return nil, err
	}
	return append([]byte(k.String()), Separator), nil
}

func validate(k Key) error {
	for _, seg := range k {
		if seg == "" || strings.IndexByte(seg, Separator) >= 0 {
			return fmt.Errorf("%w: segment %q in %q", ErrInvalidKey, seg, k.String())
		}
	}
	return nil
}

func decode(b []byte) Key {
	return strings.Split(string(b), string(Separator))
}
