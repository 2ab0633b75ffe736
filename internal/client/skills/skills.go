// Package skills keeps the signed-in user's skill selection with optimistic
// toggling.
package skills

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/studioportal/internal/client/models"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownSkill = errors.New("unknown skill")

type API interface {
	SkillCatalog(ctx context.Context) ([]models.Skill, error)
	MySkills(ctx context.Context) ([]models.Skill, error)
	SetSkill(ctx context.Context, skillID string, on bool) ([]models.Skill, error)
}

type Set struct {
	api API
	log logging.Logger

	mu      sync.Mutex
	catalog map[string]models.Skill
	mine    map[string]models.Skill
}

func New(api API, log logging.Logger) *Set {
	if log == nil {
		log = logging.Nop()
	}
	return &Set{
		api:     api,
		log:     log,
		catalog: map[string]models.Skill{},
		mine:    map[string]models.Skill{},
	}
}

// Load fetches the catalog and the user's skills concurrently.
func (s *Set) Load(ctx context.Context) error {
	var catalog, mine []models.Skill

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = s.api.SkillCatalog(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		mine, err = s.api.MySkills(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load skills: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = index(catalog)
	s.mine = index(mine)
	return nil
}

func index(list []models.Skill) map[string]models.Skill {
	m := make(map[string]models.Skill, len(list))
	for _, sk := range list {
		m[sk.ID] = sk
	}
	return m
}

func sorted(m map[string]models.Skill) []models.Skill {
	out := make([]models.Skill, 0, len(m))
	for _, sk := range m {
		out = append(out, sk)
	}
	slices.SortFunc(out, func(a, b models.Skill) int {
		if c := strings.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Set) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mine[id]
	return ok
}

// Mine returns the user's skills ordered by category and name.
func (s *Set) Mine() []models.Skill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.mine)
}

func (s *Set) Catalog() []models.Skill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.catalog)
}

// Toggle flips one skill locally, then asks the server. On failure only that
// skill is put back the way it was; on success the server's list replaces
// the local one. It returns whether the skill is now selected.
func (s *Set) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	prev, had := s.mine[id]
	if had {
		delete(s.mine, id)
	} else {
		sk, ok := s.catalog[id]
		if !ok {
			s.mu.Unlock()
			return false, fmt.Errorf("%w: %s", ErrUnknownSkill, id)
		}
		s.mine[id] = sk
	}
	s.mu.Unlock()

	list, err := s.api.SetSkill(ctx, id, !had)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if had {
			s.mine[id] = prev
		} else {
			delete(s.mine, id)
		}
		s.log.Warn(ctx, "skill toggle reverted", "skill_id", id, "error", err)
		return had, fmt.Errorf("set skill %s: %w", id, err)
	}
	s.mine = index(list)
	return !had, nil
}
