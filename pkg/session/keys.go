package session

import (
	"fmt"

	"github.com/haivivi/roots/pkg/kv"
)

// Key layout (relative to the Store prefix):
//
//	{prefix}:meta:{id}         → msgpack-encoded Meta
//	{prefix}:turn:{id}:{%06d}  → msgpack-encoded roots.ChatTurn
//
// Zero-padded turn indexes keep lexicographic order equal to
// conversation order.

func metaPrefix(prefix kv.Key) kv.Key {
	return prefix.Append("meta")
}

func metaKey(prefix kv.Key, id string) kv.Key {
	return prefix.Append("meta", id)
}

func turnPrefix(prefix kv.Key, id string) kv.Key {
	return prefix.Append("turn", id)
}

func turnKey(prefix kv.Key, id string, i int) kv.Key {
	return prefix.Append("turn", id, fmt.Sprintf("%06d", i))
}
