// Package cache provides a Badger DB-backed offline cache of the
// authoritative node list, read when the remote store is unreachable.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/arbor-sh/arbor/pkg/outline/node"
)

// Key prefixes for different data types
const (
	prefixNode = "n:" // Node records, keyed by list position to keep order
	prefixMeta = "m:" // Metadata
)

var keyLastSync = []byte(prefixMeta + "last_sync")

// Store is the node cache backed by Badger DB.
type Store struct {
	db *badger.DB
}

// Open opens or creates a store at the given path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceAll replaces the cached list with a fresh sync result. Keys
// encode the list position so iteration preserves arrival order.
func (s *Store) ReplaceAll(nodes []node.Node) error {
	if err := s.db.DropPrefix([]byte(prefixNode)); err != nil {
		return fmt.Errorf("clearing node cache: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i, n := range nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshaling node %s: %w", n.ID, err)
		}
		key := []byte(fmt.Sprintf("%s%010d", prefixNode, i))
		if err := wb.Set(key, data); err != nil {
			return err
		}
	}

	stamp, err := time.Now().UTC().MarshalBinary()
	if err != nil {
		return err
	}
	if err := wb.Set(keyLastSync, stamp); err != nil {
		return err
	}

	return wb.Flush()
}

// GetAll returns the cached node list in original arrival order.
func (s *Store) GetAll() ([]node.Node, error) {
	var nodes []node.Node

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixNode)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var n node.Node
				if err := unmarshalNode(val, &n); err != nil {
					return err
				}
				nodes = append(nodes, n)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// LastSync returns when the cache was last replaced, or the zero time
// if it never was.
func (s *Store) LastSync() (time.Time, error) {
	var stamp time.Time

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyLastSync)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return stamp.UnmarshalBinary(val)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return stamp, nil
}

// nodeRecord mirrors node.Node with a typed payload envelope, since
// Payload is an interface and cannot round-trip through JSON alone.
type nodeRecord struct {
	node.Node
	Payload json.RawMessage `json:"payload,omitempty"`
}

func unmarshalNode(data []byte, out *node.Node) error {
	var rec nodeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	n := rec.Node
	n.Payload = nil

	if len(rec.Payload) > 0 {
		payload, err := decodePayload(n.Type, rec.Payload)
		if err != nil {
			return err
		}
		n.Payload = payload
	}

	*out = n
	return nil
}

func decodePayload(typ node.Type, raw json.RawMessage) (node.Payload, error) {
	switch typ {
	case node.TypeTask:
		var p node.Task
		err := json.Unmarshal(raw, &p)
		return p, err
	case node.TypeNote:
		var p node.Note
		err := json.Unmarshal(raw, &p)
		return p, err
	case node.TypeTemplate:
		var p node.Template
		err := json.Unmarshal(raw, &p)
		return p, err
	case node.TypeSmartFolder:
		var p node.SmartFolder
		err := json.Unmarshal(raw, &p)
		return p, err
	case node.TypeFolder, node.TypeProject, node.TypeArea:
		var p node.Folder
		err := json.Unmarshal(raw, &p)
		return p, err
	default:
		return nil, nil
	}
}
