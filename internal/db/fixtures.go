package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdxmph/leadbox/internal/crm"
)

// FixtureAgent is the agent most fixture contacts are assigned to
const FixtureAgent = "Pedro Agente"

// CreateFixturesDatabase creates a test database with realistic sample data
func CreateFixturesDatabase(dbPath string) error {
	// Initialize empty database
	if err := Initialize(dbPath); err != nil {
		return fmt.Errorf("initializing fixtures database: %w", err)
	}

	// Open database to add test data
	database, err := Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening fixtures database: %w", err)
	}
	defer database.Close()

	return database.seed(time.Now())
}

// FixtureContacts returns the sample inbox, with message times on the day of now
func FixtureContacts(now time.Time) []crm.Contact {
	at := func(hour, min int) time.Time {
		y, m, d := now.Date()
		return time.Date(y, m, d, hour, min, 0, 0, now.Location())
	}
	avatar := func(n int) string {
		return fmt.Sprintf("https://i.pravatar.cc/150?img=%d", n)
	}

	return []crm.Contact{
		{
			ID:            "1",
			Name:          "Miguel Sánchez",
			AvatarURL:     avatar(1),
			Phone:         "34 654-789-123",
			Email:         "miguel.sanchez@gmail.com",
			LastMessage:   "Hello! I am looking for a new property...",
			LastActivity:  at(12, 38),
			Presence:      crm.PresenceUnread,
			AssignedAgent: FixtureAgent,
			Channel:       crm.ChannelWhatsApp,
		},
		{
			ID:           "2",
			Name:         "Laura González",
			AvatarURL:    avatar(2),
			Phone:        "34 654-543-321",
			LastMessage:  "Typing...",
			LastActivity: at(12, 34),
			Presence:     crm.PresenceTyping,
			Channel:      crm.ChannelLiveChat,
		},
		{
			ID:            "3",
			Name:          "Carlos Rodríguez",
			AvatarURL:     avatar(3),
			Phone:         "34 654-543-432",
			LastMessage:   "It works for me! Thanks",
			LastActivity:  at(12, 28),
			Presence:      crm.PresenceResponded,
			AssignedAgent: FixtureAgent,
			Channel:       crm.ChannelWhatsApp,
		},
		{
			ID:            "4",
			Name:          "María Veltrova",
			AvatarURL:     avatar(4),
			Phone:         "34 654-543-567",
			LastMessage:   "Let's stay in touch!",
			LastActivity:  at(12, 26),
			Presence:      crm.PresenceUnread,
			AssignedAgent: "María López",
			Channel:       crm.ChannelWhatsApp,
		},
		{
			ID:            "5",
			Name:          "Francisco López",
			AvatarURL:     avatar(5),
			Phone:         "34 654-542-123",
			LastMessage:   "Thanks. I will watch it later...",
			LastActivity:  at(12, 20),
			Presence:      crm.PresenceResponded,
			AssignedAgent: FixtureAgent,
			Channel:       crm.ChannelWhatsApp,
		},
		{
			ID:           "6",
			Name:         "Omar Petrovski",
			AvatarURL:    avatar(6),
			Phone:        "34 654-541-234",
			LastMessage:  "Voice message",
			LastActivity: at(12, 5),
			Presence:     crm.PresenceUnread,
			Channel:      crm.ChannelLiveChat,
		},
		{
			ID:            "7",
			Name:          "Marcus Bergson",
			AvatarURL:     avatar(7),
			Phone:         "34 654-540-345",
			LastMessage:   "Hello! I am looking for a new property...",
			LastActivity:  at(11, 58),
			Presence:      crm.PresenceUnread,
			AssignedAgent: FixtureAgent,
			Channel:       crm.ChannelWhatsApp,
		},
	}
}

// seed inserts the fixture inbox plus Miguel's notes, files and listings
func (db *DB) seed(now time.Time) error {
	for _, c := range FixtureContacts(now) {
		if err := db.AddContact(c); err != nil {
			return fmt.Errorf("adding fixture contact %s: %w", c.Name, err)
		}
	}

	y, m, d := now.Date()
	today := func(hour, min int) time.Time {
		return time.Date(y, m, d, hour, min, 0, 0, now.Location())
	}
	yesterday := func(hour, min int) time.Time {
		return today(hour, min).AddDate(0, 0, -1)
	}

	notes := []crm.Note{
		{
			Author:    "María López",
			Body:      "Primera toma de contacto. Busca piso para inversión con rentabilidad mínima del 5%.",
			CreatedAt: yesterday(16, 45),
		},
		{
			Author:    FixtureAgent,
			Body:      "Cliente interesado en áticos de 3 habitaciones en zona Chamberí. Presupuesto máximo €500k.",
			CreatedAt: today(11, 20),
		},
	}
	for _, n := range notes {
		n.ID = uuid.NewString()
		n.ContactID = "1"
		n.Kind = crm.NoteManual
		if err := db.insertSeedNote(n); err != nil {
			return err
		}
	}

	attachments := []crm.Attachment{
		{Name: "Catálogo_Propiedades_2023.pdf", SizeBytes: 3355443, Kind: crm.AttachmentFile,
			SharedAt: time.Date(2023, 6, 15, 10, 0, 0, 0, now.Location())},
		{Name: "Contrato_Reserva.docx", SizeBytes: 1887437, Kind: crm.AttachmentFile,
			SharedAt: time.Date(2023, 6, 14, 10, 0, 0, 0, now.Location())},
		{Name: "Ficha propiedad en web", Kind: crm.AttachmentLink,
			URL: "https://estatechatflow.com/property/123", SharedAt: yesterday(9, 0)},
		{Name: "Tour virtual 360", Kind: crm.AttachmentLink,
			URL: "https://tours.estatechatflow.com/vt/123", SharedAt: yesterday(9, 5)},
	}
	for _, a := range attachments {
		a.ID = uuid.NewString()
		a.ContactID = "1"
		if err := db.AppendAttachment(a); err != nil {
			return fmt.Errorf("adding fixture attachment %s: %w", a.Name, err)
		}
	}

	properties := []crm.Property{
		{Title: "Ático en Chamberí", Bedrooms: 3, Bathrooms: 2, AreaM2: 120, PriceEUR: 450000},
		{Title: "Piso en Salamanca", Bedrooms: 2, Bathrooms: 1, AreaM2: 85, PriceEUR: 320000},
	}
	for _, p := range properties {
		p.ID = uuid.NewString()
		p.ContactID = "1"
		if err := db.AddProperty(p); err != nil {
			return fmt.Errorf("adding fixture property %s: %w", p.Title, err)
		}
	}

	return nil
}

// insertSeedNote stores a historical note without touching last activity
func (db *DB) insertSeedNote(n crm.Note) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertNote(tx, n); err != nil {
		return fmt.Errorf("adding fixture note: %w", err)
	}
	return tx.Commit()
}
