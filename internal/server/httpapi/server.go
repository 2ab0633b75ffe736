// Package httpapi exposes the portal over HTTP: the JSON API under /v1, the
// realtime WebSocket, Prometheus metrics and the layout-gated HTML pages.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/portal/route"
	"github.com/dmitrijs2005/studioportal/internal/pubsub"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

type AuthService interface {
	SignUp(ctx context.Context, email, password, handle string) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	Authenticate(accessToken string) (*portal.Session, error)
}

type ProfileService interface {
	Get(ctx context.Context, id string) (*portal.Profile, error)
	Update(ctx context.Context, actor *portal.Session, profileID string, upd services.ProfileUpdate) (*portal.Profile, error)
	MarkWelcomeSeen(ctx context.Context, actor *portal.Session) error
	SetAvatar(ctx context.Context, actor *portal.Session, url string) (*portal.Profile, error)
}

type SkillService interface {
	Catalog(ctx context.Context) ([]models.Skill, error)
	Create(ctx context.Context, actor *portal.Session, name, category string) (*models.Skill, error)
	Mine(ctx context.Context, actor *portal.Session) ([]models.Skill, error)
	Set(ctx context.Context, actor *portal.Session, skillID string, on bool) ([]models.Skill, error)
}

type TeamService interface {
	Create(ctx context.Context, actor *portal.Session, name, description string) (*models.Team, error)
	AddMember(ctx context.Context, actor *portal.Session, teamID, userID, role string) error
	RemoveMember(ctx context.Context, actor *portal.Session, teamID, userID string) error
	List(ctx context.Context, actor *portal.Session) ([]models.Team, error)
	Members(ctx context.Context, actor *portal.Session, teamID string) ([]models.TeamMember, error)
	RequireAccess(ctx context.Context, actor *portal.Session, teamID string) error
}

type MessageService interface {
	List(ctx context.Context, actor *portal.Session, teamID string, limit int) ([]models.Message, error)
	Post(ctx context.Context, actor *portal.Session, teamID, body string) (*models.Message, error)
}

type ProjectService interface {
	Create(ctx context.Context, actor *portal.Session, in services.ProjectInput) (*models.Project, error)
	Update(ctx context.Context, actor *portal.Session, id string, in services.ProjectInput) (*models.Project, error)
	List(ctx context.Context, actor *portal.Session) ([]models.Project, error)
	Get(ctx context.Context, actor *portal.Session, id string) (*models.Project, error)
}

type FeatureService interface {
	Request(ctx context.Context, actor *portal.Session, projectID, title, description string) (*models.Feature, error)
	List(ctx context.Context, actor *portal.Session, projectID string) ([]models.Feature, error)
	Decide(ctx context.Context, actor *portal.Session, featureID string, approve bool) (*models.Feature, error)
}

type FeedbackService interface {
	Submit(ctx context.Context, actor *portal.Session, rating int, message string) (*models.Feedback, error)
	List(ctx context.Context, actor *portal.Session) ([]models.Feedback, error)
}

type StorageService interface {
	Upload(ctx context.Context, actor *portal.Session, kind, contentType string, size int64, body io.Reader) (*services.StoredObject, error)
	PresignUpload(ctx context.Context, actor *portal.Session, kind, contentType string, size int64) (*services.StoredObject, error)
}

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth     AuthService
	Profiles ProfileService
	Skills   SkillService
	Teams    TeamService
	Messages MessageService
	Projects ProjectService
	Features FeatureService
	Feedback FeedbackService
	Storage  StorageService
}

type Server struct {
	config     *config.Config
	logger     logging.Logger
	svc        Services
	broker     *pubsub.Broker[portal.Event]
	classifier *route.Classifier
	upgrader   websocket.Upgrader
	registry   *prometheus.Registry
	engine     *gin.Engine
}

func New(cfg *config.Config, l logging.Logger, svc Services, broker *pubsub.Broker[portal.Event]) *Server {
	l = l.With("module", "http_server")
	s := &Server{
		config:     cfg,
		logger:     l,
		svc:        svc,
		broker:     broker,
		classifier: route.NewClassifier(route.DefaultLists(), l),
		registry:   prometheus.NewRegistry(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID(), s.requestLogger(), newMetrics(s.registry).middleware())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = s.config.CORSOrigins
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", requestIDHeader)
	corsCfg.ExposeHeaders = []string{requestIDHeader}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.SetHTMLTemplate(pageTemplates)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")

	auth := v1.Group("/auth")
	auth.Use(newRateLimiter(s.config.AuthRateLimit, s.config.AuthRateBurst).middleware())
	{
		auth.POST("/signup", s.signUp)
		auth.POST("/login", s.login)
		auth.POST("/refresh", s.refresh)
		auth.POST("/logout", s.authenticate(), requireSession(), s.logout)
	}

	public := v1.Group("")
	public.Use(s.authenticate())
	{
		public.GET("/profiles/:id", s.getProfile)
		public.GET("/skills", s.listSkills)
	}

	private := v1.Group("")
	private.Use(s.authenticate(), requireSession())
	{
		private.GET("/session", s.currentSession)

		private.PATCH("/profiles/me", s.updateProfile)
		private.POST("/profiles/me/welcome", s.markWelcomeSeen)
		private.PUT("/profiles/me/avatar", s.setAvatar)

		private.POST("/skills", s.createSkill)
		private.GET("/me/skills", s.mySkills)
		private.PUT("/me/skills/:id", s.addSkill)
		private.DELETE("/me/skills/:id", s.removeSkill)

		private.GET("/teams", s.listTeams)
		private.POST("/teams", s.createTeam)
		private.GET("/teams/:id/members", s.teamMembers)
		private.PUT("/teams/:id/members/:userID", s.addTeamMember)
		private.DELETE("/teams/:id/members/:userID", s.removeTeamMember)
		private.GET("/teams/:id/messages", s.listMessages)
		private.POST("/teams/:id/messages", s.postMessage)

		private.GET("/projects", s.listProjects)
		private.POST("/projects", s.createProject)
		private.GET("/projects/:id", s.getProject)
		private.PUT("/projects/:id", s.updateProject)
		private.GET("/projects/:id/features", s.listFeatures)
		private.POST("/projects/:id/features", s.requestFeature)
		private.POST("/features/:id/decision", s.decideFeature)

		private.GET("/feedback", s.listFeedback)
		private.POST("/feedback", s.submitFeedback)

		private.POST("/uploads/:kind", s.upload)
		private.POST("/uploads/:kind/presign", s.presignUpload)

		private.GET("/realtime", s.realtime)
	}

	r.NoRoute(s.page)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.config.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
