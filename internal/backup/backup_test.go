package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dukerupert/recipebook/internal/database"
	"github.com/dukerupert/recipebook/internal/store"
)

type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, input *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for k := range m.objects {
		if strings.HasPrefix(k, aws.ToString(input.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	sort.Slice(out.Contents, func(i, j int) bool { return *out.Contents[i].Key < *out.Contents[j].Key })
	return out, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seededDB opens a file-backed database holding one recipe.
func seededDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "live", "recipes.db")
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := store.NewRecipeStore(db).Create(store.RecipeParams{Name: "Backed up"}, time.Now()); err != nil {
		t.Fatalf("seed recipe: %v", err)
	}
	return path
}

func recipeNames(t *testing.T, path string) []string {
	t.Helper()
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open restored db: %v", err)
	}
	defer db.Close()
	recipes, err := store.NewRecipeStore(db).List(store.RecipeFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, r := range recipes {
		names = append(names, r.Name)
	}
	return names
}

func newTestManager(t *testing.T, cfg Config, tgt target) (*Manager, func()) {
	t.Helper()
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	m := NewManager(cfg, db, discardLogger())
	if tgt != nil {
		m.target = tgt
	}
	m.now = func() time.Time { return time.Date(2025, 5, 4, 3, 2, 1, 0, time.FixedZone("X", 3600)) }
	return m, func() { db.Close() }
}

func TestNewManagerPicksTarget(t *testing.T) {
	m := NewManager(Config{Dir: "/tmp/backups"}, nil, discardLogger())
	if _, ok := m.target.(*dirTarget); !ok {
		t.Errorf("target = %T, want *dirTarget", m.target)
	}

	m = NewManager(Config{S3: S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s", Region: "us-east-1"}}, nil, discardLogger())
	if _, ok := m.target.(*s3Target); !ok {
		t.Errorf("target = %T, want *s3Target", m.target)
	}
	if m.Target() != "s3://b" {
		t.Errorf("Target() = %q", m.Target())
	}
}

func TestRunRequiresDatabase(t *testing.T) {
	m := NewManager(Config{Dir: t.TempDir()}, nil, discardLogger())
	if _, err := m.Run(context.Background()); err == nil {
		t.Error("expected error without a database handle")
	}
}

func TestBackupRestoreLocalDir(t *testing.T) {
	dbPath := seededDB(t)
	m, closeDB := newTestManager(t, Config{DBPath: dbPath, Dir: filepath.Join(t.TempDir(), "backups")}, nil)

	key, err := m.Run(context.Background())
	closeDB()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if key != "recipes-2025-05-04T020201Z.db" {
		t.Errorf("key = %q", key)
	}

	restoreTo := filepath.Join(t.TempDir(), "restored", "recipes.db")
	r := NewManager(Config{DBPath: restoreTo, Dir: m.cfg.Dir}, nil, discardLogger())
	if err := r.Restore(context.Background(), key); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if names := recipeNames(t, restoreTo); len(names) != 1 || names[0] != "Backed up" {
		t.Errorf("restored recipes = %v", names)
	}
}

func TestEncryptedBackupOverS3(t *testing.T) {
	dbPath := seededDB(t)
	mock := newMockS3()
	tgt := &s3Target{client: mock, bucket: "recipes"}
	m, closeDB := newTestManager(t, Config{DBPath: dbPath, Passphrase: "hunter2"}, tgt)
	defer closeDB()

	key, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasSuffix(key, ".db.enc") {
		t.Errorf("key = %q, want .db.enc suffix", key)
	}
	if bytes.HasPrefix(mock.objects[key], []byte("SQLite format 3")) {
		t.Error("stored object is not encrypted")
	}

	restoreTo := filepath.Join(t.TempDir(), "recipes.db")

	wrong := &Manager{cfg: Config{DBPath: restoreTo, Passphrase: "nope"}, target: tgt, logger: discardLogger()}
	if err := wrong.Restore(context.Background(), key); !errors.Is(err, ErrDecrypt) {
		t.Errorf("wrong passphrase err = %v, want ErrDecrypt", err)
	}

	none := &Manager{cfg: Config{DBPath: restoreTo}, target: tgt, logger: discardLogger()}
	if err := none.Restore(context.Background(), key); err == nil {
		t.Error("expected error restoring encrypted backup without passphrase")
	}

	right := &Manager{cfg: Config{DBPath: restoreTo, Passphrase: "hunter2"}, target: tgt, logger: discardLogger()}
	if err := right.Restore(context.Background(), key); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if names := recipeNames(t, restoreTo); len(names) != 1 {
		t.Errorf("restored recipes = %v", names)
	}
}

func TestRunUploadFailure(t *testing.T) {
	dbPath := seededDB(t)
	mock := newMockS3()
	mock.putErr = errors.New("bucket on fire")
	m, closeDB := newTestManager(t, Config{DBPath: dbPath}, &s3Target{client: mock, bucket: "b"})
	defer closeDB()

	if _, err := m.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "bucket on fire") {
		t.Errorf("err = %v", err)
	}
}

func TestRestoreMissingKey(t *testing.T) {
	for _, tgt := range []target{&dirTarget{dir: t.TempDir()}, &s3Target{client: newMockS3(), bucket: "b"}} {
		m := &Manager{cfg: Config{DBPath: filepath.Join(t.TempDir(), "x.db")}, target: tgt, logger: discardLogger()}
		if err := m.Restore(context.Background(), "recipes-nope.db"); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", tgt, err)
		}
	}
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	tgt := &dirTarget{dir: dir}
	tgt.put(context.Background(), "recipes-bad.db", []byte("definitely not sqlite, but long enough to look like a header"))

	dbPath := filepath.Join(t.TempDir(), "recipes.db")
	m := &Manager{cfg: Config{DBPath: dbPath}, target: tgt, logger: discardLogger()}
	if err := m.Restore(context.Background(), "recipes-bad.db"); err == nil {
		t.Fatal("expected integrity failure")
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(dbPath), "*"))
	if len(matches) != 0 {
		t.Errorf("leftover files: %v", matches)
	}
}

func TestDirTargetRejectsPathKeys(t *testing.T) {
	tgt := &dirTarget{dir: t.TempDir()}
	for _, key := range []string{"", "../escape.db", "sub/dir.db"} {
		if err := tgt.put(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("put(%q) succeeded", key)
		}
	}
}

func TestListAndPrune(t *testing.T) {
	ctx := context.Background()
	for _, tgt := range []target{&dirTarget{dir: t.TempDir()}, &s3Target{client: newMockS3(), bucket: "b"}} {
		m := &Manager{target: tgt, logger: discardLogger()}
		for _, k := range []string{"recipes-2025-01-03T000000Z.db", "recipes-2025-01-01T000000Z.db", "recipes-2025-01-02T000000Z.db.enc"} {
			if err := tgt.put(ctx, k, []byte("x")); err != nil {
				t.Fatalf("put: %v", err)
			}
		}

		keys, err := m.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(keys) != 3 || keys[0] != "recipes-2025-01-01T000000Z.db" {
			t.Errorf("%s: keys = %v", tgt, keys)
		}

		n, err := m.Prune(ctx, 1)
		if err != nil || n != 2 {
			t.Errorf("%s: prune = %d, %v; want 2", tgt, n, err)
		}
		keys, _ = m.List(ctx)
		if len(keys) != 1 || keys[0] != "recipes-2025-01-03T000000Z.db" {
			t.Errorf("%s: after prune keys = %v", tgt, keys)
		}

		if _, err := m.Prune(ctx, 0); err == nil {
			t.Error("prune keep=0 should fail")
		}
	}
}
