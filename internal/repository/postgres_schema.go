package repository

// Schema creates the tables used by the PostgreSQL repositories
const Schema = `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS users (
	id    BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS venues (
	id      BIGSERIAL PRIMARY KEY,
	name    TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS venue_sections (
	id       BIGSERIAL PRIMARY KEY,
	venue_id BIGINT NOT NULL REFERENCES venues(id),
	name     TEXT NOT NULL,
	capacity INT NOT NULL CHECK (capacity >= 0)
);

CREATE TABLE IF NOT EXISTS events (
	id                   BIGSERIAL PRIMARY KEY,
	venue_id             BIGINT NOT NULL REFERENCES venues(id),
	kind                 TEXT NOT NULL,
	name                 TEXT NOT NULL,
	start_time           TIMESTAMPTZ NOT NULL,
	end_time             TIMESTAMPTZ NOT NULL,
	estimated_attendance INT NOT NULL DEFAULT 0,
	capacity_override    INT,
	capacity             INT NOT NULL DEFAULT 0,
	attendees            INT NOT NULL DEFAULT 0,
	ticket_price         NUMERIC(12,2) NOT NULL DEFAULT 0,
	version              BIGINT NOT NULL DEFAULT 1,
	CHECK (end_time > start_time),
	CONSTRAINT events_no_venue_overlap EXCLUDE USING gist (
		venue_id WITH =,
		tstzrange(start_time, end_time) WITH &&
	)
);

CREATE TABLE IF NOT EXISTS event_sections (
	id              BIGSERIAL PRIMARY KEY,
	event_id        BIGINT NOT NULL REFERENCES events(id),
	section_id      BIGINT NOT NULL,
	name            TEXT NOT NULL DEFAULT '',
	capacity        INT NOT NULL CHECK (capacity >= 0),
	booked          INT NOT NULL DEFAULT 0 CHECK (booked >= 0 AND booked <= capacity),
	price           NUMERIC(12,2),
	allocation_mode TEXT NOT NULL DEFAULT 'general_admission',
	UNIQUE (event_id, section_id)
);

CREATE TABLE IF NOT EXISTS seats (
	id          BIGINT NOT NULL,
	event_id    BIGINT NOT NULL REFERENCES events(id),
	section_id  BIGINT NOT NULL DEFAULT 0,
	row_label   TEXT NOT NULL,
	seat_number TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'available',
	PRIMARY KEY (event_id, id)
);

CREATE TABLE IF NOT EXISTS bookings (
	id             UUID PRIMARY KEY,
	user_id        BIGINT NOT NULL REFERENCES users(id),
	event_id       BIGINT NOT NULL REFERENCES events(id),
	booking_type   TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	total_amount   NUMERIC(12,2) NOT NULL,
	quantity       INT NOT NULL,
	transaction_id TEXT,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_user_event ON bookings (user_id, event_id);

CREATE TABLE IF NOT EXISTS booking_items (
	id                   UUID PRIMARY KEY,
	booking_id           UUID NOT NULL REFERENCES bookings(id),
	seat_id              BIGINT,
	section_inventory_id BIGINT,
	quantity             INT NOT NULL CHECK (quantity > 0),
	unit_price           NUMERIC(12,2) NOT NULL,
	CHECK ((seat_id IS NULL) <> (section_inventory_id IS NULL))
);
`
