// ABOUTME: SQLite schema for the life-story distillation pipeline
// ABOUTME: Creates the transcript log, summary, profile, coverage, and insight tables
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Append-only transcript log. Row ids are monotonic and double as the
-- summarization cursor.
CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    conversation_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    content TEXT NOT NULL,
    media_type TEXT DEFAULT 'text',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One current summary row per (user, conversation). The unique key makes
-- the anchor-guarded upsert race-free.
CREATE TABLE IF NOT EXISTS conversation_summaries (
    user_id TEXT NOT NULL,
    conversation_id TEXT NOT NULL,
    anchor INTEGER NOT NULL DEFAULT 0,
    short_summary TEXT,
    full_summary TEXT,
    observations TEXT,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, conversation_id)
);

-- Lifetime profile singleton per user
CREATE TABLE IF NOT EXISTS lifetime_profiles (
    user_id TEXT PRIMARY KEY,
    full_profile TEXT,
    observations TEXT,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Denormalized coverage scores, one row per (user, chapter)
CREATE TABLE IF NOT EXISTS chapter_coverage (
    user_id TEXT NOT NULL,
    chapter TEXT NOT NULL,
    event_count INTEGER DEFAULT 0,
    media_counts TEXT,
    frequency_score INTEGER DEFAULT 0,
    depth_score INTEGER DEFAULT 0,
    diversity_score INTEGER DEFAULT 0,
    emotion_score INTEGER DEFAULT 0,
    insight_score INTEGER DEFAULT 0,
    overall_score INTEGER DEFAULT 0,
    last_contribution_at DATETIME,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, chapter)
);

-- Per-life-stage coverage timeline, one row per (user, chapter, stage)
CREATE TABLE IF NOT EXISTS chapter_timeline (
    user_id TEXT NOT NULL,
    chapter TEXT NOT NULL,
    life_stage TEXT NOT NULL,
    coverage_score INTEGER DEFAULT 0,
    event_count INTEGER DEFAULT 0,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, chapter, life_stage)
);

-- Synthesized insight rows, fully replaced on each rebuild
CREATE TABLE IF NOT EXISTS insights (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    insight_type TEXT NOT NULL,
    title TEXT,
    content TEXT,
    confidence REAL DEFAULT 0,
    tags TEXT,
    source_conversation_ids TEXT,
    metadata TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for efficient querying
CREATE INDEX IF NOT EXISTS idx_turns_user_conv ON turns(user_id, conversation_id, id);
CREATE INDEX IF NOT EXISTS idx_turns_user_created ON turns(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_summaries_user ON conversation_summaries(user_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_insights_user_type ON insights(user_id, insight_type);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
