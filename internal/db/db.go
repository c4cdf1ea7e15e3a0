package db

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdxmph/leadbox/internal/crm"
	"github.com/pdxmph/leadbox/internal/directory"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// DB persists every directory mutation
var _ directory.Journal = (*DB)(nil)

// Open creates a new database connection
func Open(dbPath string) (*DB, error) {
	// Check if DB exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s\nRun 'leadbox init' to create it", dbPath)
	}

	// Run any pending migrations
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time keeps note and status writes in order
	conn.SetMaxOpenConns(1)

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// ListContacts returns all contacts in the order they were added
func (db *DB) ListContacts() ([]crm.Contact, error) {
	rows, err := db.conn.Query(`SELECT ` + contactColumns + ` FROM contacts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []crm.Contact
	for rows.Next() {
		var r contactRow
		if err := rows.Scan(r.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		c, err := r.toContact()
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

// GetContact retrieves a single contact by ID
func (db *DB) GetContact(id string) (*crm.Contact, error) {
	var r contactRow
	err := db.conn.QueryRow(`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id).Scan(r.scanTargets()...)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", crm.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying contact: %w", err)
	}

	c, err := r.toContact()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListRecords loads every contact with its notes, attachments and properties,
// ready for directory.Store.LoadRecords.
func (db *DB) ListRecords() ([]directory.Record, error) {
	contacts, err := db.ListContacts()
	if err != nil {
		return nil, err
	}
	notes, err := db.notesByContact()
	if err != nil {
		return nil, err
	}
	attachments, err := db.attachmentsByContact()
	if err != nil {
		return nil, err
	}
	properties, err := db.propertiesByContact()
	if err != nil {
		return nil, err
	}

	records := make([]directory.Record, len(contacts))
	for i, c := range contacts {
		records[i] = directory.Record{
			Contact:     c,
			Notes:       notes[c.ID],
			Attachments: attachments[c.ID],
			Properties:  properties[c.ID],
		}
	}
	return records, nil
}

// AddContact creates a new contact in the database
func (db *DB) AddContact(c crm.Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Status == "" {
		c.Status = crm.StatusNew
	}
	if c.Channel == "" {
		c.Channel = crm.ChannelWhatsApp
	}

	query := `
		INSERT INTO contacts (
			id, name, avatar_url, phone, email,
			last_message, last_activity, presence, lead_status,
			assigned_agent, channel, blocked, deleted, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
	`
	_, err := db.conn.Exec(query,
		c.ID,
		strings.TrimSpace(c.Name),
		NewNullString(c.AvatarURL),
		c.Phone,
		NewNullString(c.Email),
		NewNullString(c.LastMessage),
		NewNullTime(c.LastActivity),
		string(c.Presence),
		string(c.Status),
		NewNullString(c.AssignedAgent),
		string(c.Channel),
		c.Blocked,
		c.Deleted,
		NewNullTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting contact: %w", err)
	}
	return nil
}

// AddProperty records a listing the contact is interested in
func (db *DB) AddProperty(p crm.Property) error {
	query := `
		INSERT INTO properties (id, contact_id, title, bedrooms, bathrooms, area_m2, price_eur)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.Exec(query, p.ID, p.ContactID, p.Title, p.Bedrooms, p.Bathrooms, p.AreaM2, p.PriceEUR)
	if err != nil {
		return fmt.Errorf("inserting property: %w", err)
	}
	return nil
}

// AppendNote stores a note and, for manual notes, moves the contact's
// last activity to the note's time.
func (db *DB) AppendNote(n crm.Note) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertNote(tx, n); err != nil {
		return err
	}

	if n.Kind == crm.NoteManual {
		if _, err := tx.Exec(`UPDATE contacts SET last_activity = ? WHERE id = ?`, n.CreatedAt, n.ContactID); err != nil {
			return fmt.Errorf("touching contact: %w", err)
		}
	}

	return tx.Commit()
}

// RecordTransition updates the lead status and stores its audit note in one transaction
func (db *DB) RecordTransition(t directory.Transition, audit crm.Note) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE contacts SET lead_status = ? WHERE id = ?`, string(t.To), t.ContactID)
	if err != nil {
		return fmt.Errorf("updating lead status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", crm.ErrNotFound, t.ContactID)
	}

	if err := insertNote(tx, audit); err != nil {
		return err
	}

	return tx.Commit()
}

// AppendAttachment stores a shared file, link or document
func (db *DB) AppendAttachment(a crm.Attachment) error {
	query := `
		INSERT INTO attachments (id, contact_id, name, size_bytes, kind, url, shared_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.Exec(query, a.ID, a.ContactID, a.Name, a.SizeBytes, string(a.Kind), NewNullString(a.URL), a.SharedAt)
	if err != nil {
		return fmt.Errorf("inserting attachment: %w", err)
	}
	return nil
}

// GetContactNotes retrieves the most recent notes for a contact, newest first
func (db *DB) GetContactNotes(contactID string, limit int) ([]crm.Note, error) {
	rows, err := db.conn.Query(`
		SELECT id, contact_id, author, body, kind, created_at
		FROM notes
		WHERE contact_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, contactID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

func insertNote(tx *sql.Tx, n crm.Note) error {
	query := `
		INSERT INTO notes (id, contact_id, author, body, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query, n.ID, n.ContactID, n.Author, n.Body, string(n.Kind), n.CreatedAt); err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

func scanNotes(rows *sql.Rows) ([]crm.Note, error) {
	var notes []crm.Note
	for rows.Next() {
		var n crm.Note
		var kind string
		if err := rows.Scan(&n.ID, &n.ContactID, &n.Author, &n.Body, &kind, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		k, err := crm.ParseNoteKind(kind)
		if err != nil {
			return nil, fmt.Errorf("note %s: %w", n.ID, err)
		}
		n.Kind = k
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (db *DB) notesByContact() (map[string][]crm.Note, error) {
	rows, err := db.conn.Query(`
		SELECT id, contact_id, author, body, kind, created_at
		FROM notes
		ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	notes, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}

	byContact := make(map[string][]crm.Note)
	for _, n := range notes {
		byContact[n.ContactID] = append(byContact[n.ContactID], n)
	}
	return byContact, nil
}

func (db *DB) attachmentsByContact() (map[string][]crm.Attachment, error) {
	rows, err := db.conn.Query(`
		SELECT id, contact_id, name, size_bytes, kind, url, shared_at
		FROM attachments
		ORDER BY shared_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	byContact := make(map[string][]crm.Attachment)
	for rows.Next() {
		var a crm.Attachment
		var kind string
		var url sql.NullString
		if err := rows.Scan(&a.ID, &a.ContactID, &a.Name, &a.SizeBytes, &kind, &url, &a.SharedAt); err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		k, err := crm.ParseAttachmentKind(kind)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", a.ID, err)
		}
		a.Kind = k
		a.URL = url.String
		byContact[a.ContactID] = append(byContact[a.ContactID], a)
	}
	return byContact, rows.Err()
}

func (db *DB) propertiesByContact() (map[string][]crm.Property, error) {
	rows, err := db.conn.Query(`
		SELECT id, contact_id, title, bedrooms, bathrooms, area_m2, price_eur
		FROM properties
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	byContact := make(map[string][]crm.Property)
	for rows.Next() {
		var p crm.Property
		if err := rows.Scan(&p.ID, &p.ContactID, &p.Title, &p.Bedrooms, &p.Bathrooms, &p.AreaM2, &p.PriceEUR); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		byContact[p.ContactID] = append(byContact[p.ContactID], p)
	}
	return byContact, rows.Err()
}

func (r contactRow) toContact() (crm.Contact, error) {
	presence, err := crm.ParsePresence(r.Presence)
	if err != nil {
		return crm.Contact{}, fmt.Errorf("contact %s: %w", r.ID, err)
	}
	status, err := crm.ParseLeadStatus(r.LeadStatus)
	if err != nil {
		return crm.Contact{}, fmt.Errorf("contact %s: %w", r.ID, err)
	}
	channel, err := crm.ParseChannel(r.Channel)
	if err != nil {
		return crm.Contact{}, fmt.Errorf("contact %s: %w", r.ID, err)
	}

	return crm.Contact{
		ID: r.ID,
		// Clean up the name field - remove newlines and trim whitespace
		Name:          strings.TrimSpace(strings.ReplaceAll(r.Name, "\n", " ")),
		AvatarURL:     r.AvatarURL.String,
		Phone:         r.Phone,
		Email:         r.Email.String,
		LastMessage:   r.LastMessage.String,
		LastActivity:  r.LastActivity.Time,
		Presence:      presence,
		Status:        status,
		AssignedAgent: r.AssignedAgent.String,
		Channel:       channel,
		Blocked:       r.Blocked,
		Deleted:       r.Deleted,
		CreatedAt:     r.CreatedAt,
	}, nil
}
