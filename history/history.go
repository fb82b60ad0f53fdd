// Package history keeps recent transcriptions in a badger database so the
// last result survives restarts.
package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"voiceclip/log"
	"voiceclip/status"
)

var prefix = []byte("h/")

type Entry struct {
	ID    string        `json:"id"`
	Text  string        `json:"text"`
	Model string        `json:"model,omitempty"`
	Audio time.Duration `json:"audio,omitempty"`
	At    time.Time     `json:"at"`
}

type Store struct {
	db  *badger.DB
	max int
}

const DefaultMax = 500

func Open(dir string) (*Store, error) {
	return open(badger.DefaultOptions(dir))
}

func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return &Store{db: db, max: DefaultMax}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(e Entry) []byte {
	k := make([]byte, len(prefix)+8, len(prefix)+8+len(e.ID))
	copy(k, prefix)
	binary.BigEndian.PutUint64(k[len(prefix):], uint64(e.At.UnixNano()))
	return append(k, e.ID...)
}

// Add stores e, trimming the oldest entries beyond the retention limit.
func (s *Store) Add(e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	val, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(e), val)
	}); err != nil {
		return fmt.Errorf("saving history entry: %w", err)
	}
	return s.trim()
}

func (s *Store) trim() error {
	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()
		n := 0
		for it.Seek(seekEnd()); it.ValidForPrefix(prefix); it.Next() {
			n++
			if n > s.max {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func seekEnd() []byte {
	k := append([]byte{}, prefix...)
	return append(k, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(seekEnd()); it.ValidForPrefix(prefix) && len(out) < n; it.Next() {
			var e Entry
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &e)
			}); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

var ErrEmpty = errors.New("no transcriptions yet")

func (s *Store) Last() (Entry, error) {
	entries, err := s.Recent(1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrEmpty
	}
	return entries[0], nil
}

// Show records every update that carries a finished transcription.
func (s *Store) Show(u status.Update) {
	if u.Job == "" || u.Text == "" {
		return
	}
	e := Entry{ID: u.Job, Text: u.Text, Model: u.Model, Audio: u.Recorded, At: u.At}
	if err := s.Add(e); err != nil {
		log.Warnf("history: %v", err)
	}
}
