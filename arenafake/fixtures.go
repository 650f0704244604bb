package arenafake

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/programme-lv/arena/contest"
)

// Fixtures is the TOML layout cmd/mockserver seeds the server from:
//
//	[[user]]
//	username = "alice"
//	password = "secret"
//
//	[[contest]]
//	id = "weekly-7"
//	title = "Weekly 7"
//	starts_in_minutes = -5
//	duration_minutes = 60
//
//	[[contest.problem]]
//	id = "p1"
//	input_type = "numeric"
//
// A contest either gives absolute start and end times or a start offset
// and duration relative to load time.
type Fixtures struct {
	Users    []FixtureUser    `toml:"user"`
	Contests []fixtureContest `toml:"contest"`
}

type FixtureUser struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type fixtureContest struct {
	ID              string            `toml:"id"`
	Title           string            `toml:"title"`
	Start           time.Time         `toml:"start"`
	End             time.Time         `toml:"end"`
	StartsInMinutes int               `toml:"starts_in_minutes"`
	DurationMinutes int               `toml:"duration_minutes"`
	Problems        []contest.Problem `toml:"problem"`
}

func ParseFixtures(content []byte, now time.Time) ([]contest.Contest, []FixtureUser, error) {
	var f Fixtures
	if err := toml.Unmarshal(content, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	contests := make([]contest.Contest, 0, len(f.Contests))
	for _, fc := range f.Contests {
		c := contest.Contest{
			ID:        fc.ID,
			Title:     fc.Title,
			StartTime: fc.Start,
			EndTime:   fc.End,
			Problems:  fc.Problems,
		}
		if c.StartTime.IsZero() {
			c.StartTime = now.Add(time.Duration(fc.StartsInMinutes) * time.Minute).Truncate(time.Second)
			c.EndTime = c.StartTime.Add(time.Duration(fc.DurationMinutes) * time.Minute)
		}
		if err := c.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid fixture contest: %w", err)
		}
		contests = append(contests, c)
	}
	return contests, f.Users, nil
}

// LoadFixtures reads path and adds its users and contests to s.
func (s *Server) LoadFixtures(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixtures: %w", err)
	}
	contests, users, err := ParseFixtures(content, time.Now())
	if err != nil {
		return err
	}
	for _, u := range users {
		if _, err := s.AddUser(u.Username, u.Password); err != nil {
			return fmt.Errorf("failed to add user %s: %w", u.Username, err)
		}
	}
	for _, c := range contests {
		s.AddContest(c)
	}
	s.log.Info("loaded fixtures", "path", path, "users", len(users), "contests", len(contests))
	return nil
}
