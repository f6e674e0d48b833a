package repos_test

import (
	"testing"

	"pedalhouse/internal/repos"
)

func newTestRepo(t *testing.T) *repos.RunRepo {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repos.NewRunRepo(db)
}

func TestRunLifecycle(t *testing.T) {
	repo := newTestRepo(t)

	id, err := repo.Start("products")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if id == "" {
		t.Fatal("empty run id")
	}

	runs, err := repo.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "running" || runs[0].Kind != "products" {
		t.Fatalf("unexpected rows: %+v", runs)
	}

	if err := repo.Finish(id, "completed", 12, 11, 1, ""); err != nil {
		t.Fatalf("finish: %v", err)
	}
	runs, err = repo.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	got := runs[0]
	if got.Status != "completed" || got.Total != 12 || got.Succeeded != 11 || got.Failed != 1 {
		t.Fatalf("unexpected run after finish: %+v", got)
	}
	if got.FinishedAt == "" {
		t.Fatal("finished_at not set")
	}
}

func TestFinishFailedRecordsError(t *testing.T) {
	repo := newTestRepo(t)
	id, err := repo.Start("collections")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := repo.Finish(id, "failed", 0, 0, 0, "sheet fetch: status 503"); err != nil {
		t.Fatalf("finish: %v", err)
	}
	runs, err := repo.Recent(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if runs[0].Status != "failed" || runs[0].Error == "" {
		t.Fatalf("failure not recorded: %+v", runs[0])
	}
}

func TestRejectsUnknownKind(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Start("bogus"); err == nil {
		t.Fatal("unknown run kind accepted")
	}
}
