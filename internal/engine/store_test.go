package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/securetrust-dev/fraudguard/pkg/schema"
)

func testCase(username string) schema.FraudCase {
	return schema.FraudCase{
		Username:           username,
		SecurityIdentifier: "ST-4411",
		CardEnding:         "4242",
		Amount:             "$129.99",
		Merchant:           "TechWorld Online",
		Location:           "Austin, TX",
		Timestamp:          "2026-08-20T14:32:00Z",
		SecurityQuestion:   "Pet name?",
		SecurityAnswer:     "rex",
		Status:             schema.StatusPendingReview,
	}
}

func newFileStore(t *testing.T) *CaseStore {
	t.Helper()
	dir := t.TempDir()
	p, err := NewFilePersistence(filepath.Join(dir, "fraud_cases.json"))
	if err != nil {
		t.Fatalf("NewFilePersistence failed: %v", err)
	}
	return NewCaseStore(p)
}

func TestFindByUsername_CaseInsensitiveAndTrimmed(t *testing.T) {
	store := newFileStore(t)
	if err := store.Upsert(testCase("alice")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	found, err := store.FindByUsername("  Alice ")
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if found.Username != "alice" {
		t.Errorf("Expected alice, got %q", found.Username)
	}
}

func TestFindByUsername_NotFound(t *testing.T) {
	store := newFileStore(t)

	_, err := store.FindByUsername("nobody")
	if !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("Expected ErrCaseNotFound, got %v", err)
	}
}

func TestUpsert_ReplacesInPlace(t *testing.T) {
	store := newFileStore(t)

	if err := store.Upsert(testCase("alice")); err != nil {
		t.Fatalf("Upsert alice failed: %v", err)
	}
	if err := store.Upsert(testCase("bob")); err != nil {
		t.Fatalf("Upsert bob failed: %v", err)
	}

	updated := testCase("Alice") // different capitalization, same identity
	updated.Status = schema.StatusConfirmedFraud
	updated.OutcomeNote = "Customer denied the transaction."
	if err := store.Upsert(updated); err != nil {
		t.Fatalf("Upsert update failed: %v", err)
	}

	cases, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("Expected 2 cases after upsert of existing username, got %d", len(cases))
	}
	if cases[0].Username != "Alice" || cases[0].Status != schema.StatusConfirmedFraud {
		t.Errorf("Expected alice replaced in place, got %+v", cases[0])
	}
	if cases[1].Username != "bob" || cases[1].Status != schema.StatusPendingReview {
		t.Errorf("Expected bob untouched, got %+v", cases[1])
	}
}

func TestUpsert_RejectsIncompleteCase(t *testing.T) {
	store := newFileStore(t)

	incomplete := testCase("alice")
	incomplete.Amount = ""
	if err := store.Upsert(incomplete); err == nil {
		t.Error("Expected error upserting a case missing a required field")
	}
}

func TestLoadAll_EmptyBackendAutoCreates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fraud_cases.json")
	p, err := NewFilePersistence(path)
	if err != nil {
		t.Fatalf("NewFilePersistence failed: %v", err)
	}

	cases, err := NewCaseStore(p).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll on absent file failed: %v", err)
	}
	if len(cases) != 0 {
		t.Errorf("Expected empty collection, got %d cases", len(cases))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Backing file was not created: %v", err)
	}
	if string(content) != "[]" {
		t.Errorf("Expected empty JSON array, got %q", content)
	}
}

func TestLoadAll_SkipsMalformedEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fraud_cases.json")

	// bob is valid; the second entry is missing amount and must be skipped.
	content := `[
  {"username":"bob","securityIdentifier":"ST-1","cardEnding":"1111","amount":"$10.00","merchant":"M","location":"L","timestamp":"2026-08-01","securityQuestion":"Pet name?","securityAnswer":"rex"},
  {"username":"mallory","securityIdentifier":"ST-2","cardEnding":"2222","merchant":"M","location":"L","timestamp":"2026-08-02","securityQuestion":"Q","securityAnswer":"A"}
]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Seeding file failed: %v", err)
	}

	p, _ := NewFilePersistence(path)
	cases, err := NewCaseStore(p).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("Expected malformed entry skipped, got %d cases", len(cases))
	}
	if cases[0].Username != "bob" {
		t.Errorf("Expected bob to survive, got %q", cases[0].Username)
	}
	if cases[0].Status != schema.StatusPendingReview {
		t.Errorf("Expected default status pending_review, got %q", cases[0].Status)
	}
}

func TestLoadAll_CorruptBackendIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fraud_cases.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Seeding file failed: %v", err)
	}

	p, _ := NewFilePersistence(path)
	_, err := NewCaseStore(p).LoadAll()
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable for corrupt file, got %v", err)
	}
}

func TestUpsert_RoundTrip(t *testing.T) {
	store := newFileStore(t)

	if err := store.Upsert(testCase("bob")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	r := testCase("bob")
	r.Status = schema.StatusConfirmedSafe
	r.OutcomeNote = "Customer confirmed the suspicious transaction as legitimate."
	if err := store.Upsert(r); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	cases, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("Expected exactly one case for bob, got %d", len(cases))
	}
	if cases[0] != r {
		t.Errorf("Round trip mismatch: %+v != %+v", cases[0], r)
	}
}

func TestUpsert_ConcurrentSessionsDoNotLoseUpdates(t *testing.T) {
	store := newFileStore(t)
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		if err := store.Upsert(testCase(name)); err != nil {
			t.Fatalf("Seeding %s failed: %v", name, err)
		}
	}

	// Resolve all cases from concurrent goroutines; every outcome must survive
	// the whole-collection rewrites.
	var wg sync.WaitGroup
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			c := testCase(name)
			c.Status = schema.StatusConfirmedFraud
			c.OutcomeNote = "resolved"
			if err := store.Upsert(c); err != nil {
				t.Errorf("Concurrent upsert for %s failed: %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	cases, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(cases) != 4 {
		t.Fatalf("Expected 4 cases, got %d", len(cases))
	}
	for _, c := range cases {
		if c.Status != schema.StatusConfirmedFraud {
			t.Errorf("Lost update: %s still has status %q", c.Username, c.Status)
		}
	}
}

func TestMigrate_SeedsStore(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "seed.json")
	src, _ := NewFilePersistence(srcPath)
	if err := src.WriteAll([]schema.FraudCase{testCase("alice"), testCase("bob")}); err != nil {
		t.Fatalf("Seeding source failed: %v", err)
	}

	dst := newFileStore(t)
	n, err := Migrate(src, dst)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 migrated cases, got %d", n)
	}

	cases, _ := dst.LoadAll()
	if len(cases) != 2 {
		t.Errorf("Expected 2 cases in destination, got %d", len(cases))
	}

	// Re-running the migration must not duplicate anything.
	if _, err := Migrate(src, dst); err != nil {
		t.Fatalf("Second Migrate failed: %v", err)
	}
	cases, _ = dst.LoadAll()
	if len(cases) != 2 {
		t.Errorf("Expected migration to be idempotent, got %d cases", len(cases))
	}
}
