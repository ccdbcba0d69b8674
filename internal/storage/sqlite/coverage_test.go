// ABOUTME: Tests for chapter coverage storage
// ABOUTME: Verifies natural-key upserts for buckets and timeline slices
package sqlite

import (
	"testing"
	"time"

	"github.com/harper/lifeline/internal/models"
)

func sampleCoverage(userID string, chapter models.LifeChapter, overall int) *models.ChapterCoverage {
	return &models.ChapterCoverage{
		UserID:      userID,
		Chapter:     chapter,
		EventCount:  3,
		MediaCounts: map[string]int{"text": 2, "audio": 1},
		Frequency:   40,
		Depth:       50,
		Diversity:   30,
		Emotion:     60,
		Insight:     45,
		Overall:     overall,
		LastContribution: time.Now().UTC(),
		Timeline: []models.TimelineSlice{
			{Stage: models.StageChildhood, Score: 55, EventCount: 2},
			{Stage: models.StageMidlife, Score: 20, EventCount: 1},
		},
	}
}

func TestCoverageUpsertAndReport(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewCoverageStore(db)

	if err := store.UpsertChapter(sampleCoverage("u1", models.ChapterChildhood, 50)); err != nil {
		t.Fatalf("UpsertChapter() error = %v", err)
	}
	if err := store.UpsertChapter(sampleCoverage("u1", models.ChapterCareer, 30)); err != nil {
		t.Fatalf("UpsertChapter() error = %v", err)
	}

	report, err := store.GetReport("u1")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if len(report.Buckets) != 2 {
		t.Fatalf("GetReport() buckets = %d, want 2", len(report.Buckets))
	}
	if report.OverallScore != 40 {
		t.Errorf("OverallScore = %d, want 40", report.OverallScore)
	}

	var childhood *models.ChapterCoverage
	for i := range report.Buckets {
		if report.Buckets[i].Chapter == models.ChapterChildhood {
			childhood = &report.Buckets[i]
		}
	}
	if childhood == nil {
		t.Fatal("childhood bucket missing from report")
	}
	if len(childhood.Timeline) != 2 {
		t.Errorf("Timeline slices = %d, want 2", len(childhood.Timeline))
	}
	if childhood.MediaCounts["text"] != 2 {
		t.Errorf("MediaCounts[text] = %d, want 2", childhood.MediaCounts["text"])
	}
}

func TestCoverageUpsertReplacesNotAccumulates(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewCoverageStore(db)

	if err := store.UpsertChapter(sampleCoverage("u1", models.ChapterChildhood, 50)); err != nil {
		t.Fatalf("UpsertChapter() error = %v", err)
	}

	updated := sampleCoverage("u1", models.ChapterChildhood, 75)
	updated.Timeline = []models.TimelineSlice{
		{Stage: models.StageChildhood, Score: 80, EventCount: 4},
	}
	if err := store.UpsertChapter(updated); err != nil {
		t.Fatalf("UpsertChapter() update error = %v", err)
	}

	report, err := store.GetReport("u1")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if len(report.Buckets) != 1 {
		t.Fatalf("buckets = %d, want 1 (upsert, not append)", len(report.Buckets))
	}
	if report.Buckets[0].Overall != 75 {
		t.Errorf("Overall = %d, want 75", report.Buckets[0].Overall)
	}

	// The midlife slice from the first run remains (stage rows are upserted
	// by key, not wiped); the childhood slice carries the new score.
	for _, slice := range report.Buckets[0].Timeline {
		if slice.Stage == models.StageChildhood && slice.Score != 80 {
			t.Errorf("childhood slice score = %d, want 80", slice.Score)
		}
	}
}

func TestCoverageReportEmptyUser(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewCoverageStore(db)

	report, err := store.GetReport("nobody")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if len(report.Buckets) != 0 {
		t.Errorf("buckets = %d, want 0", len(report.Buckets))
	}
	if report.OverallScore != 0 {
		t.Errorf("OverallScore = %d, want 0", report.OverallScore)
	}
}
