package catalog_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/eidsvag/animere/internal/apperr"
	"github.com/eidsvag/animere/internal/catalog"
	"github.com/eidsvag/animere/internal/testutil"
)

func sampleRun(id string, createdAt time.Time) catalog.Run {
	return catalog.Run{
		ID:           id,
		Name:         "pipeline",
		Kind:         "flowchart",
		FrameCount:   5,
		TotalMS:      6250,
		Theme:        "cyberpunk",
		ArtifactPath: "animations/" + id + ".svg",
		Checksum:     "abc123",
		CreatedAt:    createdAt,
	}
}

func TestInsertAndGetRun(t *testing.T) {
	db := testutil.TestCatalog(t)

	run := sampleRun("run-1", time.Now().UTC().Truncate(time.Second))
	if err := db.InsertRun(run); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Name != run.Name || got.Kind != run.Kind || got.FrameCount != run.FrameCount {
		t.Errorf("got %+v, want %+v", got, run)
	}
	if got.Total() != 6250*time.Millisecond {
		t.Errorf("Total() = %v, want 6.25s", got.Total())
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := testutil.TestCatalog(t)
	_, err := db.GetRun("missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListRuns(t *testing.T) {
	db := testutil.TestCatalog(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		run := sampleRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		if i%2 == 1 {
			run.Kind = "sequence"
		}
		if err := db.InsertRun(run); err != nil {
			t.Fatal(err)
		}
	}

	runs, total, err := db.ListRuns(0, 0, "")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if total != 5 || len(runs) != 5 {
		t.Fatalf("total = %d, len = %d, want 5", total, len(runs))
	}
	// Newest first.
	if runs[0].ID != "run-4" || runs[4].ID != "run-0" {
		t.Errorf("order = %s .. %s, want run-4 .. run-0", runs[0].ID, runs[4].ID)
	}

	runs, total, err = db.ListRuns(10, 0, "sequence")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(runs) != 2 {
		t.Errorf("kind filter: total = %d, len = %d, want 2", total, len(runs))
	}

	runs, total, err = db.ListRuns(2, 2, "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(runs) != 2 {
		t.Errorf("pagination: total = %d, len = %d", total, len(runs))
	}
	if runs[0].ID != "run-2" {
		t.Errorf("page 2 starts at %s, want run-2", runs[0].ID)
	}
}

func TestDeleteRun(t *testing.T) {
	db := testutil.TestCatalog(t)
	if err := db.InsertRun(sampleRun("run-1", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := db.GetRun("run-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("run still present after delete")
	}
	// Deleting again is a no-op.
	if err := db.DeleteRun("run-1"); err != nil {
		t.Errorf("deleting a missing run: %v", err)
	}
}

func TestDeleteRunsByName(t *testing.T) {
	db := testutil.TestCatalog(t)
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		run := sampleRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Second))
		if i == 2 {
			run.Name = "other"
		}
		if err := db.InsertRun(run); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := db.DeleteRunsByName("pipeline")
	if err != nil {
		t.Fatalf("DeleteRunsByName: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2 artifact paths", paths)
	}

	_, total, err := db.ListRuns(0, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("remaining runs = %d, want 1", total)
	}
}

func TestFrameCache(t *testing.T) {
	db := testutil.TestCatalog(t)

	if _, ok, err := db.GetFrame("k1"); err != nil || ok {
		t.Fatalf("miss: ok = %v, err = %v", ok, err)
	}

	if err := db.PutFrame("k1", "flowchart", []byte("<svg/>")); err != nil {
		t.Fatalf("PutFrame: %v", err)
	}
	svg, ok, err := db.GetFrame("k1")
	if err != nil || !ok {
		t.Fatalf("hit: ok = %v, err = %v", ok, err)
	}
	if string(svg) != "<svg/>" {
		t.Errorf("svg = %q", svg)
	}

	// Upsert replaces the stored bytes.
	if err := db.PutFrame("k1", "flowchart", []byte("<svg v2/>")); err != nil {
		t.Fatal(err)
	}
	svg, _, _ = db.GetFrame("k1")
	if string(svg) != "<svg v2/>" {
		t.Errorf("after upsert svg = %q", svg)
	}
}
