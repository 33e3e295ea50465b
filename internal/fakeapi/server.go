// ABOUTME: gin router serving the registrar REST API from the in-memory store
// ABOUTME: Bearer-token auth, CORS, request logging and injectable latency

package fakeapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/resource"
)

const userIDKey = "user_id"

// Options configures a Server.
type Options struct {
	// Secret signs access tokens. Required.
	Secret []byte
	// TokenTTL is the lifetime of issued tokens. Defaults to 24h.
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost. Tests use bcrypt.MinCost.
	BcryptCost int
	// AllowedOrigins enables CORS for browser clients when non-empty.
	AllowedOrigins []string
	// Latency, when set, delays each request by the returned duration.
	// The delay is abandoned if the client goes away.
	Latency func(*http.Request) time.Duration
	Logger  *slog.Logger
}

// Server is the fake backend.
type Server struct {
	store  *Store
	tokens *Tokens
	opts   Options
	logger *slog.Logger
	engine *gin.Engine
}

// New builds a server over store.
func New(store *Store, opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:  store,
		tokens: NewTokens(opts.Secret),
		opts:   opts,
		logger: logger.With("component", "fakeapi"),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Tokens returns the token signer, for minting tokens in tests.
func (s *Server) Tokens() *Tokens {
	return s.tokens
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if s.opts.Latency != nil {
		r.Use(s.latency())
	}

	g := r.Group("/api")

	authGroup := g.Group("/auth")
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)
	authGroup.GET("/me", s.requireAuth(), s.handleMe)
	authGroup.POST("/change-password", s.requireAuth(), s.handleChangePassword)

	protected := g.Group("", s.requireAuth())
	protected.GET("/statistics", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.store.Statistics())
	})

	mount(protected, "/colleges", collection[resource.College]{
		singular:  "College",
		plural:    "colleges",
		bulkField: "codes",
		list:      s.store.ListColleges,
		create:    s.store.CreateCollege,
		update:    s.store.UpdateCollege,
		remove:    s.store.DeleteCollege,
		bulk:      s.store.BulkDeleteColleges,
	})
	mount(protected, "/programs", collection[resource.Program]{
		singular:  "Program",
		plural:    "programs",
		bulkField: "codes",
		filters:   []string{"college_code"},
		list:      s.store.ListPrograms,
		create:    s.store.CreateProgram,
		update:    s.store.UpdateProgram,
		remove:    s.store.DeleteProgram,
		bulk:      s.store.BulkDeletePrograms,
	})
	mount(protected, "/students", collection[resource.Student]{
		singular:  "Student",
		plural:    "students",
		bulkField: "ids",
		filters:   []string{"program_code", "year_level", "gender"},
		list:      s.store.ListStudents,
		create:    s.store.CreateStudent,
		update:    s.store.UpdateStudent,
		remove:    s.store.DeleteStudent,
		bulk:      s.store.BulkDeleteStudents,
	})

	return r
}

// collection binds one resource's store operations to its routes.
type collection[T any] struct {
	singular  string
	plural    string
	bulkField string
	filters   []string
	list      func(ListParams) ListResult[T]
	create    func(T) (T, error)
	update    func(string, T) (T, error)
	remove    func(string) error
	bulk      func([]string) (int, error)
}

func mount[T any](g *gin.RouterGroup, path string, col collection[T]) {
	g.GET(path, func(c *gin.Context) {
		c.JSON(http.StatusOK, col.list(listParams(c, col.filters)))
	})

	g.POST(path, func(c *gin.Context) {
		var in T
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, badRequest("Invalid request body"))
			return
		}
		out, err := col.create(in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	})

	g.PUT(path+"/:key", func(c *gin.Context) {
		var in T
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, badRequest("Invalid request body"))
			return
		}
		out, err := col.update(c.Param("key"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})

	g.DELETE(path+"/:key", func(c *gin.Context) {
		if err := col.remove(c.Param("key")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": col.singular + " deleted successfully"})
	})

	g.POST(path+"/bulk-delete", func(c *gin.Context) {
		var body map[string][]string
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, badRequest("Invalid request body"))
			return
		}
		n, err := col.bulk(body[col.bulkField])
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": strconv.Itoa(n) + " " + col.plural + " deleted successfully"})
	})
}

// listParams decodes paging, sorting, search and the collection's filters.
// Out-of-range paging values fall back to the defaults.
func listParams(c *gin.Context, filters []string) ListParams {
	p := ListParams{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: strings.ToLower(c.DefaultQuery("sort_order", "asc")),
		Page:      1,
		PerPage:   DefaultPerPage,
		Filters:   make(map[string]string, len(filters)),
	}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(c.Query("per_page")); err == nil && n > 0 {
		p.PerPage = min(n, MaxPerPage)
	}
	for _, f := range filters {
		if v := strings.TrimSpace(c.Query(f)); v != "" {
			p.Filters[f] = v
		}
	}
	return p
}

func (s *Server) handleRegister(c *gin.Context) {
	var reg api.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		writeError(c, badRequest("Invalid request body"))
		return
	}
	user, err := s.store.Register(reg, s.opts.BcryptCost)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
}

func (s *Server) handleLogin(c *gin.Context) {
	var creds api.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		writeError(c, badRequest("Invalid request body"))
		return
	}
	user, err := s.store.Authenticate(creds.Username, creds.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := s.tokens.Issue(strconv.FormatInt(user.ID, 10), s.opts.TokenTTL)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.LoginResponse{
		Message:     "Login successful",
		AccessToken: token,
		User:        &user,
	})
}

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.store.User(c.GetInt64(userIDKey))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleChangePassword(c *gin.Context) {
	var change api.PasswordChange
	if err := c.ShouldBindJSON(&change); err != nil {
		writeError(c, badRequest("Invalid request body"))
		return
	}
	if err := s.store.ChangePassword(c.GetInt64(userIDKey), change, s.opts.BcryptCost); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller's user id on the context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := extractBearerToken(c.GetHeader("Authorization"))
		if msg != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		sub, err := s.tokens.Verify(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, ErrExpiredToken) {
				msg = "Token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) latency() gin.HandlerFunc {
	return func(c *gin.Context) {
		d := s.opts.Latency(c.Request)
		if d > 0 {
			t := time.NewTimer(d)
			select {
			case <-t.C:
			case <-c.Request.Context().Done():
				t.Stop()
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

func writeError(c *gin.Context, err error) {
	var e *Error
	if errors.As(err, &e) {
		c.JSON(e.Status, gin.H{"error": e.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error occurred"})
}
