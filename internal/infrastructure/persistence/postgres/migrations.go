package postgres

// Migration is one versioned schema step.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_races", UpSQL: migration001Up},
		{Version: 2, Name: "create_competitors", UpSQL: migration002Up},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS races (
    id TEXT PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_races_updated_at ON races(updated_at DESC);
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS competitors (
    race_id TEXT NOT NULL REFERENCES races(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    entry_order INTEGER NOT NULL,
    first_name VARCHAR(100) NOT NULL DEFAULT '',
    last_name VARCHAR(100) NOT NULL DEFAULT '',
    club VARCHAR(200) NOT NULL DEFAULT '',
    birth_year INTEGER NOT NULL DEFAULT 0,
    gender VARCHAR(10) NOT NULL,
    category VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'NOT_STARTED',
    start_number INTEGER NOT NULL DEFAULT 0,
    start_time BIGINT NOT NULL DEFAULT 0,
    finish_time BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (race_id, id),
    CONSTRAINT valid_status CHECK (status IN ('NOT_STARTED', 'ON_COURSE', 'FINISHED', 'DID_NOT_FINISH')),
    CONSTRAINT valid_times CHECK (start_time >= 0 AND finish_time >= 0)
);

CREATE INDEX IF NOT EXISTS idx_competitors_race_order ON competitors(race_id, entry_order);
`
