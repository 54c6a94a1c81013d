package store

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	installBucketName = []byte("install")
	androidIDKeyName  = []byte("android_id")
	masterTokenKey    = []byte("master_token")
)

// Store persists the per-install identity: the android id reported to the
// authentication service must stay stable for the life of the install, and a
// master token obtained once can be reused across runs.
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	opts := &bbolt.Options{ //nolint:exhaustruct
		NoFreelistSync: true,
		ReadOnly:       false,
		Timeout:        1 * time.Second,
		NoGrowSync:     false,
		FreelistType:   bbolt.FreelistArrayType,
	}
	db, err := bbolt.Open(path, 0o600, opts)
	if nil != err {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := createBuckets(db); nil != err {
		return nil, fmt.Errorf("failed to create buckets: %v", err)
	}

	return &Store{db: db}, nil
}

func createBuckets(db *bbolt.DB) error {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(installBucketName)
		if nil != err {
			return fmt.Errorf("failed to create install bucket: %v", err)
		}

		return nil
	})
	if nil != err {
		return fmt.Errorf("failed to create buckets: %v", err)
	}

	return nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); nil != err {
		return fmt.Errorf("failed to close database: %v", err)
	}

	return nil
}

func (s *Store) AndroidID() (string, error) {
	return s.get(androidIDKeyName)
}

func (s *Store) SetAndroidID(id string) error {
	return s.put(androidIDKeyName, id)
}

func (s *Store) MasterToken() (string, error) {
	return s.get(masterTokenKey)
}

func (s *Store) SetMasterToken(token string) error {
	return s.put(masterTokenKey, token)
}

func (s *Store) get(key []byte) (string, error) {
	var v []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(installBucketName).Get(key); b != nil {
			v = append(v, b...)
		}

		return nil
	})
	if nil != err {
		return "", fmt.Errorf("failed to load %s: %v", string(key), err)
	}

	return string(v), nil
}

func (s *Store) put(key []byte, value string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(installBucketName).Put(key, []byte(value)); nil != err {
			return fmt.Errorf("failed to store %s: %v", string(key), err)
		}

		return nil
	})
	if nil != err {
		return fmt.Errorf("failed to store %s: %v", string(key), err)
	}

	return nil
}
