package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/features"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/feedback"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/messages"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/projects"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/skills"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/teams"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var (
	admin = &portal.Session{UserID: "admin-1", Email: "admin@example.com", Role: common.RoleSuperAdmin}
	alice = &portal.Session{UserID: "u-alice", Email: "alice@example.com", Role: common.RoleUser}
	bob   = &portal.Session{UserID: "u-bob", Email: "bob@example.com", Role: common.RoleUser}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []portal.Event
}

func (p *recordingPublisher) Publish(topic string, ev portal.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return 1
}

func (p *recordingPublisher) types() []portal.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]portal.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// --- in-memory store ---

// memStore backs every fake repository. fail maps "Repo.Method" to an error
// returned instead of running the method.
type memStore struct {
	mu  sync.Mutex
	seq int

	users      map[string]*models.User
	profiles   map[string]*models.Profile
	tokens     map[string]*models.RefreshToken
	skills     []models.Skill
	userSkills map[string]map[string]bool
	teams      map[string]*models.Team
	members    map[string]map[string]string
	messages   []models.Message
	projects   map[string]*models.Project
	features   map[string]*models.Feature
	feedback   []models.Feedback

	fail map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*models.User{},
		profiles:   map[string]*models.Profile{},
		tokens:     map[string]*models.RefreshToken{},
		userSkills: map[string]map[string]bool{},
		teams:      map[string]*models.Team{},
		members:    map[string]map[string]string{},
		projects:   map[string]*models.Project{},
		features:   map[string]*models.Feature{},
		fail:       map[string]error{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) failed(op string) error {
	return s.fail[op]
}

type fakeManager struct{ s *memStore }

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeManager) Users(dbx.DBTX) users.Repository              { return memUsers{m.s} }
func (m *fakeManager) Profiles(dbx.DBTX) profiles.Repository        { return memProfiles{m.s} }
func (m *fakeManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return memTokens{m.s}
}
func (m *fakeManager) Skills(dbx.DBTX) skills.Repository     { return memSkills{m.s} }
func (m *fakeManager) Teams(dbx.DBTX) teams.Repository       { return memTeams{m.s} }
func (m *fakeManager) Messages(dbx.DBTX) messages.Repository { return memMessages{m.s} }
func (m *fakeManager) Projects(dbx.DBTX) projects.Repository { return memProjects{m.s} }
func (m *fakeManager) Features(dbx.DBTX) features.Repository { return memFeatures{m.s} }
func (m *fakeManager) Feedback(dbx.DBTX) feedback.Repository { return memFeedback{m.s} }

// users

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failed("Users.Create"); err != nil {
		return nil, err
	}
	for _, x := range r.s.users {
		if x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.ID = r.s.nextID("u")
	cp.CreatedAt = time.Now()
	r.s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.Email == email {
			out := *x
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *x
	return &out, nil
}

func (r memUsers) SetRole(_ context.Context, id, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	x.Role = role
	return nil
}

// profiles

type memProfiles struct{ s *memStore }

func (r memProfiles) Create(_ context.Context, p *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failed("Profiles.Create"); err != nil {
		return err
	}
	for _, x := range r.s.profiles {
		if x.Username == p.Username {
			return common.ErrorAlreadyExists
		}
	}
	cp := *p
	r.s.profiles[p.ID] = &cp
	return nil
}

func (r memProfiles) Get(_ context.Context, id string) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.profiles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *x
	return &out, nil
}

func (r memProfiles) Update(_ context.Context, p *models.Profile) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.profiles[p.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for id, other := range r.s.profiles {
		if id != p.ID && other.Username == p.Username {
			return nil, common.ErrorAlreadyExists
		}
	}
	x.Username, x.DisplayName, x.Bio = p.Username, p.DisplayName, p.Bio
	out := *x
	return &out, nil
}

func (r memProfiles) SetAvatar(_ context.Context, id, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.profiles[id]
	if !ok {
		return common.ErrorNotFound
	}
	x.AvatarURL = url
	return nil
}

func (r memProfiles) MarkWelcomeSeen(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.profiles[id]
	if !ok {
		return common.ErrorNotFound
	}
	x.HasSeenWelcomeCard = true
	return nil
}

// refresh tokens

type memTokens struct{ s *memStore }

func (r memTokens) Create(_ context.Context, userID, token string, expires time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failed("RefreshTokens.Create"); err != nil {
		return err
	}
	r.s.tokens[token] = &models.RefreshToken{ID: r.s.nextID("rt"), UserID: userID, Token: token, Expires: expires}
	return nil
}

func (r memTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *x
	return &out, nil
}

func (r memTokens) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	out, err := r.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	return out, r.Delete(ctx, token)
}

func (r memTokens) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, token)
	return nil
}

func (r memTokens) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, v := range r.s.tokens {
		if v.UserID == userID {
			delete(r.s.tokens, k)
		}
	}
	return nil
}

func (s *memStore) tokensOf(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.tokens {
		if v.UserID == userID {
			n++
		}
	}
	return n
}

// skills

type memSkills struct{ s *memStore }

func (r memSkills) List(context.Context) ([]models.Skill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]models.Skill{}, r.s.skills...), nil
}

func (r memSkills) Create(_ context.Context, sk *models.Skill) (*models.Skill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *sk
	cp.ID = r.s.nextID("sk")
	r.s.skills = append(r.s.skills, cp)
	return &cp, nil
}

func (r memSkills) ListForUser(_ context.Context, userID string) ([]models.Skill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Skill{}
	for _, sk := range r.s.skills {
		if r.s.userSkills[userID][sk.ID] {
			out = append(out, sk)
		}
	}
	return out, nil
}

func (r memSkills) Add(_ context.Context, userID, skillID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failed("Skills.Add"); err != nil {
		return err
	}
	known := false
	for _, sk := range r.s.skills {
		known = known || sk.ID == skillID
	}
	if !known {
		return common.ErrorNotFound
	}
	if r.s.userSkills[userID] == nil {
		r.s.userSkills[userID] = map[string]bool{}
	}
	r.s.userSkills[userID][skillID] = true
	return nil
}

func (r memSkills) Remove(_ context.Context, userID, skillID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.userSkills[userID], skillID)
	return nil
}

// teams

type memTeams struct{ s *memStore }

func (r memTeams) Create(_ context.Context, t *models.Team) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	cp.ID = r.s.nextID("team")
	r.s.teams[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memTeams) Get(_ context.Context, id string) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.teams[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *x
	return &out, nil
}

func (r memTeams) ListAll(context.Context) ([]models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Team{}
	for _, t := range r.s.teams {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTeams) ListForUser(_ context.Context, userID string) ([]models.Team, error) {
	all, _ := r.ListAll(context.Background())
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Team{}
	for _, t := range all {
		if _, ok := r.s.members[t.ID][userID]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTeams) AddMember(_ context.Context, m *models.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[m.TeamID]; !ok {
		return common.ErrorNotFound
	}
	if r.s.members[m.TeamID] == nil {
		r.s.members[m.TeamID] = map[string]string{}
	}
	r.s.members[m.TeamID][m.UserID] = m.Role
	return nil
}

func (r memTeams) RemoveMember(_ context.Context, teamID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.members[teamID][userID]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.members[teamID], userID)
	return nil
}

func (r memTeams) Members(_ context.Context, teamID string) ([]models.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.TeamMember{}
	for uid, role := range r.s.members[teamID] {
		out = append(out, models.TeamMember{TeamID: teamID, UserID: uid, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r memTeams) IsMember(_ context.Context, teamID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.members[teamID][userID]
	return ok, nil
}

// messages

type memMessages struct{ s *memStore }

func (r memMessages) Create(_ context.Context, m *models.Message) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	cp.ID = r.s.nextID("msg")
	cp.CreatedAt = time.Now()
	r.s.messages = append(r.s.messages, cp)
	return &cp, nil
}

func (r memMessages) ListRecent(_ context.Context, teamID string, limit int) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Message{}
	for _, m := range r.s.messages {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// projects

type memProjects struct{ s *memStore }

func (r memProjects) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	cp.ID = r.s.nextID("prj")
	r.s.projects[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memProjects) Update(_ context.Context, p *models.Project) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[p.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	r.s.projects[p.ID] = &cp
	out := cp
	return &out, nil
}

func (r memProjects) Get(_ context.Context, id string) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.projects[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *x
	return &out, nil
}

func (r memProjects) ListAll(context.Context) ([]models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Project{}
	for _, p := range r.s.projects {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProjects) ListForUser(ctx context.Context, userID string) ([]models.Project, error) {
	all, _ := r.ListAll(ctx)
	out := []models.Project{}
	for _, p := range all {
		if ok, _ := r.HasAccess(ctx, p.ID, userID); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProjects) HasAccess(_ context.Context, projectID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[projectID]
	if !ok {
		return false, nil
	}
	if p.ClientUserID == userID {
		return true, nil
	}
	_, member := r.s.members[p.TeamID][userID]
	return p.TeamID != "" && member, nil
}

// features

type memFeatures struct{ s *memStore }

func (r memFeatures) Create(_ context.Context, f *models.Feature) (*models.Feature, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *f
	cp.ID = r.s.nextID("feat")
	cp.Status = models.FeaturePending
	r.s.features[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memFeatures) Get(_ context.Context, id string) (*models.Feature, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.features[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *x
	return &out, nil
}

func (r memFeatures) ListByProject(_ context.Context, projectID string) ([]models.Feature, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Feature{}
	for _, f := range r.s.features {
		if f.ProjectID == projectID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memFeatures) Transition(_ context.Context, id, from, to, decidedBy string) (*models.Feature, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x, ok := r.s.features[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if x.Status != from {
		return nil, common.ErrInvalidTransition
	}
	now := time.Now()
	x.Status, x.DecidedBy, x.DecidedAt = to, decidedBy, &now
	out := *x
	return &out, nil
}

// feedback

type memFeedback struct{ s *memStore }

func (r memFeedback) Create(_ context.Context, f *models.Feedback) (*models.Feedback, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *f
	cp.ID = r.s.nextID("fb")
	r.s.feedback = append(r.s.feedback, cp)
	return &cp, nil
}

func (r memFeedback) List(_ context.Context, limit int) ([]models.Feedback, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := append([]models.Feedback{}, r.s.feedback...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
