package profiles

import (
	"encoding/json"
	"fmt"
	"os"

	"go.etcd.io/bbolt"
)

// BBolt is a Store backed by a bbolt file
type BBolt struct {
	db *bbolt.DB
}

const (
	bboltRootBucket    = "espgpio"
	bboltProfileBucket = "profiles" // child of espgpio

	// espgpio keys
	bboltDefaultProfileKey = "default-profile"
)

// OpenBBolt opens a bbolt database at path and creates the buckets it needs
func OpenBBolt(path string, mode os.FileMode, options *bbolt.Options) (*BBolt, error) {
	db, err := bbolt.Open(path, mode, options)
	if err != nil {
		return nil, fmt.Errorf("unable to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(bboltRootBucket))
		if err != nil {
			return fmt.Errorf("unable to create bucket %q: %w", bboltRootBucket, err)
		}

		_, err = root.CreateBucketIfNotExists([]byte(bboltProfileBucket))
		if err != nil {
			return fmt.Errorf("unable to create bucket %q: %w", bboltProfileBucket, err)
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create bbolt buckets: %w", err)
	}

	return &BBolt{db: db}, nil
}

func (b *BBolt) Close() error {
	return b.db.Close()
}

func profileBucket(tx *bbolt.Tx) *bbolt.Bucket {
	return tx.Bucket([]byte(bboltRootBucket)).Bucket([]byte(bboltProfileBucket))
}

func (b *BBolt) Profile(name string) (Profile, error) {
	var p Profile
	err := b.db.View(func(tx *bbolt.Tx) error {
		profileJSON := profileBucket(tx).Get([]byte(name))
		if profileJSON == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(profileJSON, &p); err != nil {
			return fmt.Errorf("unable to unmarshal profile JSON: %w", err)
		}

		return nil
	})
	if err != nil {
		return p, fmt.Errorf("unable to get profile %q: %w", name, err)
	}

	return p, nil
}

// ListProfiles returns the profile names in key order
func (b *BBolt) ListProfiles() ([]string, error) {
	names := make([]string, 0)

	err := b.db.View(func(tx *bbolt.Tx) error {
		err := profileBucket(tx).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
		if err != nil {
			return fmt.Errorf("unable to iterate over profile bucket: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list profiles: %w", err)
	}

	return names, nil
}

// PutProfile stores p under name after checking it converts to a Config
func (b *BBolt) PutProfile(name string, p Profile) error {
	if name == "" {
		return fmt.Errorf("unable to put profile: empty name")
	}
	if _, err := p.Config(); err != nil {
		return fmt.Errorf("unable to put profile %q: %w", name, err)
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		profileJSON, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("unable to marshal profile: %w", err)
		}

		if err := profileBucket(tx).Put([]byte(name), profileJSON); err != nil {
			return fmt.Errorf("unable to put profile %q: %w", name, err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to update profile: %w", err)
	}

	return nil
}

// DeleteProfile removes name, clearing the default if it pointed there
func (b *BBolt) DeleteProfile(name string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := profileBucket(tx)
		if bucket.Get([]byte(name)) == nil {
			return ErrNotFound
		}
		if err := bucket.Delete([]byte(name)); err != nil {
			return err
		}

		root := tx.Bucket([]byte(bboltRootBucket))
		if string(root.Get([]byte(bboltDefaultProfileKey))) == name {
			return root.Delete([]byte(bboltDefaultProfileKey))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to delete profile %q: %w", name, err)
	}

	return nil
}

func (b *BBolt) DefaultProfile() (string, error) {
	var def string

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bboltRootBucket))
		def = string(bucket.Get([]byte(bboltDefaultProfileKey)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("unable to get default profile: %w", err)
	}

	return def, nil
}

// PutDefaultProfile marks an existing profile as the default
func (b *BBolt) PutDefaultProfile(name string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		if profileBucket(tx).Get([]byte(name)) == nil {
			return ErrNotFound
		}
		bucket := tx.Bucket([]byte(bboltRootBucket))
		return bucket.Put([]byte(bboltDefaultProfileKey), []byte(name))
	})
	if err != nil {
		return fmt.Errorf("unable to put default profile %q: %w", name, err)
	}

	return nil
}
