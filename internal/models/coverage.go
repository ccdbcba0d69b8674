// ABOUTME: Coverage scoring types plus the closed life-chapter and life-stage enumerations
// ABOUTME: Single source of truth referenced by both prompts and validation
package models

import "time"

// LifeChapter is one bucket in the fixed enumeration of life chapters used
// for coverage scoring. Bucket keys outside this set are a contract
// violation and are dropped on ingest.
type LifeChapter string

const (
	ChapterChildhood     LifeChapter = "childhood"
	ChapterAdolescence   LifeChapter = "adolescence"
	ChapterEducation     LifeChapter = "education"
	ChapterCareer        LifeChapter = "career"
	ChapterRelationships LifeChapter = "relationships"
	ChapterFamily        LifeChapter = "family"
	ChapterFriendships   LifeChapter = "friendships"
	ChapterPlaces        LifeChapter = "places"
	ChapterBeliefs       LifeChapter = "beliefs"
	ChapterHealth        LifeChapter = "health"
	ChapterHobbies       LifeChapter = "hobbies"
	ChapterMilestones    LifeChapter = "milestones"
)

// LifeChapters lists every allowed chapter, in display order.
var LifeChapters = []LifeChapter{
	ChapterChildhood,
	ChapterAdolescence,
	ChapterEducation,
	ChapterCareer,
	ChapterRelationships,
	ChapterFamily,
	ChapterFriendships,
	ChapterPlaces,
	ChapterBeliefs,
	ChapterHealth,
	ChapterHobbies,
	ChapterMilestones,
}

// IsLifeChapter reports whether s is a member of the closed chapter set.
func IsLifeChapter(s string) bool {
	for _, c := range LifeChapters {
		if string(c) == s {
			return true
		}
	}
	return false
}

// LifeStage is a coarse temporal phase of a life, used to slice coverage
// scores over time inside each chapter.
type LifeStage string

const (
	StageChildhood      LifeStage = "childhood"
	StageAdolescence    LifeStage = "adolescence"
	StageEarlyAdulthood LifeStage = "early_adulthood"
	StageMidlife        LifeStage = "midlife"
	StageLaterLife      LifeStage = "later_life"
	StageUnspecified    LifeStage = "unspecified"
)

// LifeStages lists every allowed life stage.
var LifeStages = []LifeStage{
	StageChildhood,
	StageAdolescence,
	StageEarlyAdulthood,
	StageMidlife,
	StageLaterLife,
	StageUnspecified,
}

// IsLifeStage reports whether s is a member of the closed stage set.
func IsLifeStage(s string) bool {
	for _, st := range LifeStages {
		if string(st) == s {
			return true
		}
	}
	return false
}

// TimelineSlice scores one life stage within a chapter.
type TimelineSlice struct {
	Stage      LifeStage `json:"life_stage"`
	Score      int       `json:"coverage_score"`
	EventCount int       `json:"event_count"`
}

// ChapterCoverage is the denormalized scoring row for one (user, chapter).
type ChapterCoverage struct {
	UserID           string         `json:"user_id"`
	Chapter          LifeChapter    `json:"chapter"`
	EventCount       int            `json:"event_count"`
	MediaCounts      map[string]int `json:"media_counts,omitempty"`
	Frequency        int            `json:"frequency_score"`
	Depth            int            `json:"depth_score"`
	Diversity        int            `json:"diversity_score"`
	Emotion          int            `json:"emotion_score"`
	Insight          int            `json:"insight_score"`
	Overall          int            `json:"overall_score"`
	LastContribution time.Time      `json:"last_contribution_at"`
	Timeline         []TimelineSlice `json:"timeline,omitempty"`
}

// CoverageReport is the assembled per-user view across all chapters.
type CoverageReport struct {
	UserID       string            `json:"user_id"`
	GeneratedAt  time.Time         `json:"generated_at"`
	OverallScore int               `json:"overall_coverage_score"`
	Buckets      []ChapterCoverage `json:"buckets"`
}

// ClampScore bounds a model-produced score to the 0-100 contract.
func ClampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
