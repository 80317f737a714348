package storage

// sqliteMigrations builds the local slot schema. Each slot holds one JSON
// document and is replaced whole on write.
var sqliteMigrations = []migration{
	{
		Version: 1,
		Name:    "slots",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS slots (
				key        TEXT PRIMARY KEY,
				value      BLOB NOT NULL,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_slots_updated_at ON slots(updated_at)`,
		},
	},
}

// postgresMigrations builds the remote applications table. Every read and
// write against it carries an owner_id predicate.
var postgresMigrations = []migration{
	{
		Version: 1,
		Name:    "applications",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS applications (
				id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				owner_id         TEXT NOT NULL,
				company_name     TEXT NOT NULL CHECK (btrim(company_name) <> ''),
				position         TEXT NOT NULL CHECK (btrim(position) <> ''),
				status           TEXT NOT NULL CHECK (status IN ('applied', 'interview', 'offered', 'accepted', 'rejected', 'stale')),
				application_date DATE NOT NULL,
				job_url          TEXT,
				notes            TEXT,
				salary_range     TEXT,
				location         TEXT,
				job_type         TEXT CHECK (job_type IN ('full-time', 'part-time', 'contract', 'internship', 'remote')),
				interview_date   TIMESTAMPTZ,
				interview_type   TEXT CHECK (interview_type IN ('phone', 'video', 'onsite', 'technical', 'behavioral')),
				follow_up_date   TIMESTAMPTZ,
				contact_name     TEXT,
				contact_email    TEXT,
				contact_phone    TEXT,
				created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_applications_owner_date ON applications(owner_id, application_date DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_applications_owner_status ON applications(owner_id, status)`,
		},
	},
	{
		Version: 2,
		Name:    "follow_up_index",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_applications_follow_up ON applications(owner_id, follow_up_date) WHERE follow_up_date IS NOT NULL`,
		},
	},
}
