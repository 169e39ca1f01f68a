package persistence

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/markusressel/battctl/internal/discharge"
	"github.com/markusressel/battctl/internal/ui"
)

const (
	BucketDischargeSessions = "dischargeSessions"
)

// ErrNoData is returned when the journal holds no matching record.
var ErrNoData = errors.New("no data")

type Persistence interface {
	Init() error

	SaveDischargeSession(session discharge.Session) error
	LoadDischargeSessions() ([]discharge.Session, error)
	LoadLastDischargeSession() (discharge.Session, error)
	DeleteDischargeSessions() error
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveDischargeSession appends a finished session to the journal, keyed
// by its start timestamp.
func (p persistence) SaveDischargeSession(session discharge.Session) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	key := session.StartedAt.UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketDischargeSessions))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// LoadDischargeSessions returns all journaled sessions, oldest first.
// RFC 3339 keys sort chronologically.
func (p persistence) LoadDischargeSessions() ([]discharge.Session, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var sessions []discharge.Session
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketDischargeSessions))
		if b == nil {
			return nil
		}

		// keys cannot be deleted while iterating
		var corrupt [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var session discharge.Session
			if err := json.Unmarshal(v, &session); err != nil {
				// if we cannot read a saved session, delete it
				ui.Warning("Unable to unmarshal saved session %s: %v", string(k), err)
				corrupt = append(corrupt, append([]byte(nil), k...))
				return nil
			}
			sessions = append(sessions, session)
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range corrupt {
			if err := b.Delete(k); err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", string(k), err)
			}
		}
		return nil
	})
	return sessions, err
}

func (p persistence) LoadLastDischargeSession() (discharge.Session, error) {
	sessions, err := p.LoadDischargeSessions()
	if err != nil {
		return discharge.Session{}, err
	}
	if len(sessions) == 0 {
		return discharge.Session{}, ErrNoData
	}
	return sessions[len(sessions)-1], nil
}

func (p persistence) DeleteDischargeSessions() error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketDischargeSessions))
		if b == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(BucketDischargeSessions))
	})
}
