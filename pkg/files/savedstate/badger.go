package savedstate

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/tfiles/pkg/files/logging"
)

// KeySeparator separates scope from value key in database keys.
const KeySeparator = '\x00'

// ErrClosed is returned by a closed BadgerStore.
var ErrClosed = errors.New("state store closed")

// entry is the gob-encoded database value.
type entry struct {
	Version int
	Value   []int
}

// EntryVersion is incremented when the entry format changes.
const EntryVersion = 1

// BadgerStore is a Store on a Badger database. Each value is one key,
// <scope>\x00<key>, holding a gob-encoded entry.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens or creates a store in the directory path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening state store %s: %w", path, err)
	}
	logging.Get("savedstate").Debug("opened state store", "path", path)
	return &BadgerStore{db: db}, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Load implements Store.
func (s *BadgerStore) Load(scope string) (map[string][]int, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	values := make(map[string][]int)
	prefix := MakeKeyPrefix(scope)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			_, key := ParseKey(item.Key())

			var value []int
			if err := item.Value(func(data []byte) error {
				return decodeValue(data, &value)
			}); err != nil {
				return err
			}
			values[key] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Save implements Store. The scope's previous values are replaced in a
// single transaction.
func (s *BadgerStore) Save(scope string, values map[string][]int) error {
	if s.db == nil {
		return ErrClosed
	}

	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		data, err := encodeValue(value)
		if err != nil {
			return err
		}
		encoded[string(MakeKey(scope, key))] = data
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range scopeKeys(txn, scope) {
			if _, ok := encoded[string(key)]; ok {
				continue
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for key, data := range encoded {
			if err := txn.Set([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes every value saved under scope.
func (s *BadgerStore) Delete(scope string) error {
	if s.db == nil {
		return ErrClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range scopeKeys(txn, scope) {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// scopeKeys returns copies of every key saved under scope.
func scopeKeys(txn *badger.Txn, scope string) [][]byte {
	prefix := MakeKeyPrefix(scope)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// MakeKey creates a database key. Format: <scope>\x00<key>
func MakeKey(scope, key string) []byte {
	return []byte(scope + string(KeySeparator) + key)
}

// ParseKey splits a database key into scope and value key.
func ParseKey(key []byte) (scope, name string) {
	idx := bytes.IndexByte(key, KeySeparator)
	if idx == -1 {
		return string(key), ""
	}
	return string(key[:idx]), string(key[idx+1:])
}

// MakeKeyPrefix returns the prefix of all keys under scope.
func MakeKeyPrefix(scope string) []byte {
	return []byte(scope + string(KeySeparator))
}

func encodeValue(value []int) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry{Version: EntryVersion, Value: value}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValue(data []byte, value *[]int) error {
	var e entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return err
	}
	*value = e.Value
	return nil
}
