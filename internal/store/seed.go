package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Seed is a YAML fixture describing an organization.
//
//	users:
//	  - {id: u1, username: alice, display_name: Alice}
//	channels:
//	  - {id: c1, name: general, description: Company-wide, public: true}
//	messages:
//	  - {channel: c1, user: u1, content: "Launch is Friday", created_at: 2024-05-01T09:00:00Z}
//	documents:
//	  - {channel: c1, user: u1, title: Roadmap, content: "..."}
type Seed struct {
	Users     []SeedUser     `yaml:"users"`
	Channels  []SeedChannel  `yaml:"channels"`
	Messages  []SeedMessage  `yaml:"messages"`
	Documents []SeedDocument `yaml:"documents"`
}

type SeedUser struct {
	ID          string `yaml:"id"`
	Username    string `yaml:"username"`
	DisplayName string `yaml:"display_name"`
}

type SeedChannel struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Public      *bool  `yaml:"public"` // defaults to true
}

type SeedMessage struct {
	ID        string    `yaml:"id"`
	Channel   string    `yaml:"channel"`
	User      string    `yaml:"user"`
	Content   string    `yaml:"content"`
	CreatedAt time.Time `yaml:"created_at"`
}

type SeedDocument struct {
	ID        string    `yaml:"id"`
	Channel   string    `yaml:"channel"`
	User      string    `yaml:"user"`
	Title     string    `yaml:"title"`
	Content   string    `yaml:"content"`
	CreatedAt time.Time `yaml:"created_at"`
}

// LoadSeed reads and validates a fixture file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read seed file %s: %w", path, err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("cannot parse seed: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Seed) validate() error {
	channels := make(map[string]bool, len(s.Channels))
	for i, c := range s.Channels {
		if c.ID == "" || c.Name == "" {
			return fmt.Errorf("seed: channels[%d] needs id and name", i)
		}
		channels[c.ID] = true
	}
	users := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		if u.ID == "" || u.Username == "" {
			return fmt.Errorf("seed: users[%d] needs id and username", i)
		}
		users[u.ID] = true
	}
	for i, m := range s.Messages {
		if !channels[m.Channel] {
			return fmt.Errorf("seed: messages[%d] references unknown channel %q", i, m.Channel)
		}
		if m.User != "" && !users[m.User] {
			return fmt.Errorf("seed: messages[%d] references unknown user %q", i, m.User)
		}
	}
	for i, d := range s.Documents {
		if d.Title == "" {
			return fmt.Errorf("seed: documents[%d] needs a title", i)
		}
		if d.Channel != "" && !channels[d.Channel] {
			return fmt.Errorf("seed: documents[%d] references unknown channel %q", i, d.Channel)
		}
		if d.User != "" && !users[d.User] {
			return fmt.Errorf("seed: documents[%d] references unknown user %q", i, d.User)
		}
	}
	return nil
}

// ApplySeed writes the fixture in one transaction. Rows with the same id are replaced.
// Messages without a timestamp are spaced a second apart in file order.
func (s *SQLiteStore) ApplySeed(ctx context.Context, seed *Seed) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, u := range seed.Users {
		if err := upsertUser(ctx, tx, User{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, c := range seed.Channels {
		public := c.Public == nil || *c.Public
		if err := upsertChannel(ctx, tx, Channel{ID: c.ID, Name: c.Name, Description: c.Description, Public: public}); err != nil {
			return fmt.Errorf("seed channel %s: %w", c.ID, err)
		}
	}

	base := time.Now().Add(-time.Duration(len(seed.Messages)) * time.Second)
	for i, m := range seed.Messages {
		created := m.CreatedAt
		if created.IsZero() {
			created = base.Add(time.Duration(i) * time.Second)
		}
		msg := Message{ID: m.ID, ChannelID: m.Channel, UserID: m.User, Content: m.Content, CreatedAt: created}
		if err := insertMessage(ctx, tx, msg); err != nil {
			return fmt.Errorf("seed message %d: %w", i, err)
		}
	}
	for i, d := range seed.Documents {
		doc := Document{ID: d.ID, ChannelID: d.Channel, UserID: d.User, Title: d.Title, Content: d.Content, CreatedAt: d.CreatedAt}
		if err := insertDocument(ctx, tx, doc); err != nil {
			return fmt.Errorf("seed document %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	s.logger.Info("seed applied",
		"users", len(seed.Users),
		"channels", len(seed.Channels),
		"messages", len(seed.Messages),
		"documents", len(seed.Documents),
	)
	return nil
}
