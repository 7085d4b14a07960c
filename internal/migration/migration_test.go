package migration

import (
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/skillpulse/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func memFS(files map[string]string) fstest.MapFS {
	out := fstest.MapFS{}
	for name, body := range files {
		out[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return out
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	return count == 1
}

func TestGetAndSetVersion(t *testing.T) {
	runner := NewRunner(setupTestDB(t), memFS(nil))

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}

	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if version, _ := runner.GetCurrentVersion(); version != 5 {
		t.Errorf("expected version 5, got %d", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	tests := []struct {
		name      string
		files     map[string]string
		wantErr   string
		wantNames []string
	}{
		{
			name: "sorted by version",
			files: map[string]string{
				"003_another.sql": "CREATE TABLE test2 (id INTEGER);",
				"001_init.sql":    "CREATE TABLE test1 (id INTEGER);",
				"002_update.sql":  "ALTER TABLE test1 ADD COLUMN name TEXT;",
				"README.md":       "ignored",
			},
			wantNames: []string{"init", "update", "another"},
		},
		{
			name:    "missing underscore",
			files:   map[string]string{"001init.sql": "SELECT 1;"},
			wantErr: "invalid migration filename format",
		},
		{
			name:    "zero version",
			files:   map[string]string{"000_init.sql": "SELECT 1;"},
			wantErr: "version must be at least 1",
		},
		{
			name: "duplicate version",
			files: map[string]string{
				"001_init.sql":  "SELECT 1;",
				"001_other.sql": "SELECT 2;",
			},
			wantErr: "duplicate migration version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(setupTestDB(t), memFS(tt.files))
			got, err := runner.ReadMigrationFiles()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ReadMigrationFiles() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadMigrationFiles() error = %v", err)
			}
			if len(got) != len(tt.wantNames) {
				t.Fatalf("got %d migrations, want %d", len(got), len(tt.wantNames))
			}
			for i, name := range tt.wantNames {
				if got[i].Name != name || got[i].Version != i+1 {
					t.Errorf("migration %d = %d/%s, want %d/%s", i, got[i].Version, got[i].Name, i+1, name)
				}
			}
		})
	}
}

func TestApplyMigrations(t *testing.T) {
	db := setupTestDB(t)
	files := memFS(map[string]string{
		"001_init.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);",
	})
	runner := NewRunner(db, files)

	count, err := runner.ApplyMigrations()
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied, got %d", count)
	}

	// Second run is a no-op.
	if count, err := runner.ApplyMigrations(); err != nil || count != 0 {
		t.Errorf("ApplyMigrations (2nd) = %d, %v; want 0, nil", count, err)
	}

	// A newly shipped migration is picked up incrementally.
	files["002_posts.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE posts (id INTEGER PRIMARY KEY);")}
	if count, err := runner.ApplyMigrations(); err != nil || count != 1 {
		t.Errorf("ApplyMigrations (3rd) = %d, %v; want 1, nil", count, err)
	}
	if version, _ := runner.GetCurrentVersion(); version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
	if !tableExists(t, db, "users") || !tableExists(t, db, "posts") {
		t.Error("migrated tables are missing")
	}
}

func TestMigrationRollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, memFS(map[string]string{
		"001_init.sql": `
			CREATE TABLE users (id INTEGER PRIMARY KEY);
			THIS IS INVALID SQL;
		`,
	}))

	if _, err := runner.ApplyMigrations(); err == nil {
		t.Fatal("ApplyMigrations should have failed with invalid SQL")
	}
	if version, _ := runner.GetCurrentVersion(); version != 0 {
		t.Errorf("expected version 0 after failed migration, got %d", version)
	}
	if tableExists(t, db, "users") {
		t.Error("table should not exist after failed migration")
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	runner := NewRunner(setupTestDB(t), memFS(map[string]string{
		"001_init.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	}))

	if err := runner.SetVersion(10); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if err := runner.ValidateVersion(); err == nil {
		t.Fatal("ValidateVersion should have failed with newer database version")
	}
	if _, err := runner.ApplyMigrations(); err == nil {
		t.Fatal("ApplyMigrations should have failed with newer database version")
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	db := setupTestDB(t)
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatalf("fs.Sub failed: %v", err)
	}
	runner := NewRunner(db, sub)

	if _, err := runner.ApplyMigrations(); err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if !tableExists(t, db, "kv") {
		t.Error("kv table was not created by the embedded migrations")
	}
	latest, err := runner.GetLatestVersion()
	if err != nil || latest < 1 {
		t.Errorf("GetLatestVersion() = %d, %v", latest, err)
	}
}
