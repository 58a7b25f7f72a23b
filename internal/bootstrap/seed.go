package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/directory"
)

// Seed is the YAML layout of SEED_FILE:
//
//	users:
//	  - id: guy2
//	    access_key: acc2
//	    secret_key: swordfish
//	    admin: true
//	projects:
//	  - id: test2
//	    manager: guy2
type Seed struct {
	Users    []domain.User `yaml:"users"`
	Projects []SeedProject `yaml:"projects"`
}

type SeedProject struct {
	ID          string `yaml:"id"`
	Manager     string `yaml:"manager"`
	Description string `yaml:"description"`
}

func LoadSeed(path string) (*Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &s, nil
}

// Apply adds the seed's users and projects. Entries that already exist are
// skipped, so applying the same seed twice is harmless.
func (s *Seed) Apply(ctx context.Context, dir directory.Directory, log *zap.Logger) error {
	for _, u := range s.Users {
		err := dir.AddUser(ctx, u)
		switch {
		case errors.Is(err, domain.ErrUserExists):
			log.Debug("seed user exists", zap.String("user", u.ID))
		case err != nil:
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, p := range s.Projects {
		_, err := dir.CreateProject(ctx, p.ID, p.Manager, p.Description)
		switch {
		case errors.Is(err, domain.ErrConflict):
			log.Debug("seed project exists", zap.String("project", p.ID))
		case err != nil:
			return fmt.Errorf("seed project %s: %w", p.ID, err)
		}
	}

	log.Info("directory seeded", zap.Int("users", len(s.Users)), zap.Int("projects", len(s.Projects)))
	return nil
}
