package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS subject (
	code       TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS unit (
	subject_code TEXT NOT NULL REFERENCES subject (code) ON DELETE CASCADE,
	code         TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (subject_code, code)
);

CREATE TABLE IF NOT EXISTS exam (
	id           UUID PRIMARY KEY,
	subject_code TEXT NOT NULL,
	unit_code    TEXT NOT NULL,
	title        TEXT NOT NULL,
	minutes      INT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	FOREIGN KEY (subject_code, unit_code) REFERENCES unit (subject_code, code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS student (
	id         UUID PRIMARY KEY,
	number     TEXT NOT NULL UNIQUE,
	surname    TEXT NOT NULL,
	given_name TEXT NOT NULL DEFAULT '',
	aara       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS student_unit (
	student_id   UUID NOT NULL REFERENCES student (id) ON DELETE CASCADE,
	subject_code TEXT NOT NULL,
	unit_code    TEXT NOT NULL,
	PRIMARY KEY (student_id, subject_code, unit_code),
	FOREIGN KEY (subject_code, unit_code) REFERENCES unit (subject_code, code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS venue (
	code       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	seat_rows  INT NOT NULL CHECK (seat_rows > 0),
	seat_cols  INT NOT NULL CHECK (seat_cols > 0),
	aara       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS session (
	id              UUID PRIMARY KEY,
	venue_code      TEXT NOT NULL REFERENCES venue (code),
	starts_at       TIMESTAMPTZ NOT NULL,
	finalised       BOOLEAN NOT NULL DEFAULT FALSE,
	allocation_mode TEXT,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS session_exam (
	session_id UUID NOT NULL REFERENCES session (id) ON DELETE CASCADE,
	exam_id    UUID NOT NULL REFERENCES exam (id),
	position   INT NOT NULL,
	PRIMARY KEY (session_id, exam_id)
);

CREATE TABLE IF NOT EXISTS session_desk (
	session_id UUID NOT NULL REFERENCES session (id) ON DELETE CASCADE,
	desk_index INT NOT NULL,
	row_num    INT NOT NULL,
	col_num    INT NOT NULL,
	student_id UUID REFERENCES student (id),
	PRIMARY KEY (session_id, desk_index)
);

CREATE TABLE IF NOT EXISTS staff (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL DEFAULT '',
	is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	last_login    TIMESTAMPTZ
);
`

// InitSchema creates any missing tables.
func InitSchema(ctx context.Context, db core.DBExecutor) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "initializing schema")
	}
	return nil
}
