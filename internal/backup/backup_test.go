package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/storage/sqlite"
)

func setupTestDB(t *testing.T, value string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), constants.DefaultDBFileName)

	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := store.Set(context.Background(), constants.KeyUser, []byte(value)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	return dbPath
}

func readUser(t *testing.T, dbPath string) string {
	t.Helper()
	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer store.Close()
	v, err := store.Get(context.Background(), constants.KeyUser)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	return string(v)
}

// tickingClock advances one second per call so snapshot names differ.
func tickingClock() func() time.Time {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestCreate(t *testing.T) {
	dbPath := setupTestDB(t, `{"name":"Ada","mode":"local"}`)
	mgr := NewManager(dbPath)

	path, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if filepath.Dir(path) != mgr.Dir() {
		t.Errorf("backup written to %s, want %s", filepath.Dir(path), mgr.Dir())
	}
	if err := Verify(context.Background(), path); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
	if got := readUser(t, path); got != `{"name":"Ada","mode":"local"}` {
		t.Errorf("backup user = %s", got)
	}
}

func TestCreateWithoutDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(context.Background()); err == nil {
		t.Fatal("Create() error = nil, want error for missing database")
	}
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t, `{}`)
	mgr := NewManager(dbPath, WithKeep(3), WithClock(tickingClock()))

	for i := 0; i < 5; i++ {
		if _, err := mgr.Create(context.Background()); err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("len(backups) = %d, want 3", len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if !backups[i].Timestamp.Before(backups[i-1].Timestamp) {
			t.Errorf("backups not sorted newest first at %d", i)
		}
	}
	want := time.Date(2024, 3, 10, 8, 0, 5, 0, time.UTC)
	if !backups[0].Timestamp.Equal(want) {
		t.Errorf("newest = %v, want %v", backups[0].Timestamp, want)
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t, `{}`)
	mgr := NewManager(dbPath)

	if backups, err := mgr.List(); err != nil || len(backups) != 0 {
		t.Fatalf("List() = %v, %v; want empty", backups, err)
	}

	if err := os.MkdirAll(mgr.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", constants.BackupFilePrefix + "garbage" + constants.BackupFileSuffix} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := mgr.Create(context.Background()); err != nil {
		t.Fatal(err)
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Errorf("len(backups) = %d, want 1", len(backups))
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	dbPath := setupTestDB(t, `{"name":"before"}`)
	mgr := NewManager(dbPath, WithClock(tickingClock()))

	snapshot, err := mgr.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, constants.KeyUser, []byte(`{"name":"after"}`)); err != nil {
		t.Fatal(err)
	}
	store.Close()

	if err := mgr.Restore(ctx, snapshot); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := readUser(t, dbPath); got != `{"name":"before"}` {
		t.Errorf("restored user = %s", got)
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Errorf("len(backups) = %d, want 2 (original + pre-restore)", len(backups))
	}
}

func TestRestoreRejectsInvalidFile(t *testing.T) {
	ctx := context.Background()
	dbPath := setupTestDB(t, `{"name":"keep"}`)
	mgr := NewManager(dbPath)

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := mgr.Restore(ctx, bogus); err == nil {
		t.Fatal("Restore() error = nil, want error")
	}
	if err := mgr.Restore(ctx, filepath.Join(t.TempDir(), "absent.db")); err == nil {
		t.Fatal("Restore() of missing file error = nil, want error")
	}
	if got := readUser(t, dbPath); got != `{"name":"keep"}` {
		t.Errorf("database changed after failed restore: %s", got)
	}
}

func TestBeforeReset(t *testing.T) {
	dbPath := setupTestDB(t, `{}`)
	mgr := NewManager(dbPath)

	if err := mgr.BeforeReset(context.Background()); err != nil {
		t.Fatalf("BeforeReset() error = %v", err)
	}
	backups, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Errorf("len(backups) = %d, want 1", len(backups))
	}
}
