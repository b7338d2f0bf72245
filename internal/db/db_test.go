package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

func TestTransact(t *testing.T) {
	conn, err := Init("sqlite", filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = Close(conn) }()

	if _, err := conn.Exec(`CREATE TABLE counters (name TEXT PRIMARY KEY, n INTEGER NOT NULL)`); err != nil {
		t.Fatal(err)
	}

	err = Transact(conn, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO counters (name, n) VALUES ($1, $2)`, "downloads", 1)
		return err
	})
	if err != nil {
		t.Fatalf("Transact() error = %v", err)
	}

	boom := errors.New("boom")
	err = Transact(conn, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`UPDATE counters SET n = n + 1 WHERE name = $1`, "downloads"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transact() error = %v, want boom", err)
	}

	var n int
	if err := conn.Get(&n, `SELECT n FROM counters WHERE name = $1`, "downloads"); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("n = %d, want 1 after rollback", n)
	}
}
