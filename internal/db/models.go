package db

import (
	"database/sql"
	"time"
)

// contactColumns is the column list shared by every contact query
const contactColumns = `
	id, name, avatar_url, phone, email,
	last_message, last_activity, presence, lead_status,
	assigned_agent, channel, blocked, deleted, created_at`

// contactRow mirrors the contacts table, with nullable columns kept as sql.Null types
type contactRow struct {
	ID            string
	Name          string
	AvatarURL     sql.NullString
	Phone         string
	Email         sql.NullString
	LastMessage   sql.NullString
	LastActivity  sql.NullTime
	Presence      string
	LeadStatus    string
	AssignedAgent sql.NullString
	Channel       string
	Blocked       bool
	Deleted       bool
	CreatedAt     time.Time
}

func (r *contactRow) scanTargets() []any {
	return []any{
		&r.ID, &r.Name, &r.AvatarURL, &r.Phone, &r.Email,
		&r.LastMessage, &r.LastActivity, &r.Presence, &r.LeadStatus,
		&r.AssignedAgent, &r.Channel, &r.Blocked, &r.Deleted, &r.CreatedAt,
	}
}

// NewNullString creates a sql.NullString from a string
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// NewNullTime creates a sql.NullTime, treating the zero time as NULL
func NewNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t, Valid: true}
}
