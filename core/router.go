package core

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minCredentialLength = 3

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, tokens *TokenService, authService AuthService,
	users UserRepository, blogs BlogRepository, metrics *MetricsService) *gin.Engine {

	startedAt := time.Now()
	r := gin.Default()

	r.Use(OriginMiddleware(cfg))
	r.Use(metrics.RequestMetrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"uptime_seconds": int(time.Since(startedAt).Seconds()),
		})
	})

	api := r.Group("/api")
	{
		api.POST("/login", func(c *gin.Context) {
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			user, err := authService.Authenticate(c.Request.Context(), req.Username, req.Password)
			if err != nil {
				respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid username or password")
				return
			}

			token, err := tokens.Issue(user.ID)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to issue token")
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"token":    token,
				"username": user.Username,
				"name":     user.Name,
			})
		})

		api.POST("/users", func(c *gin.Context) {
			var req struct {
				Username string `json:"username"`
				Name     string `json:"name"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			req.Username = strings.TrimSpace(req.Username)
			req.Name = strings.TrimSpace(req.Name)
			if len(req.Username) < minCredentialLength {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "username must be at least 3 characters")
				return
			}
			if len(req.Password) < minCredentialLength {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "password must be at least 3 characters")
				return
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to hash password")
				return
			}

			id := uuid.NewString()
			ctx := c.Request.Context()
			if err := users.Create(ctx, id, req.Username, req.Name, string(hash)); err != nil {
				// naive duplicate detection
				if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "username must be unique")
					return
				}
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to create user")
				return
			}

			c.JSON(http.StatusCreated, gin.H{
				"id":       id,
				"username": req.Username,
				"name":     req.Name,
				"blogs":    []string{},
			})
		})

		api.GET("/users", func(c *gin.Context) {
			items, err := users.List(c.Request.Context())
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to fetch users")
				return
			}
			c.JSON(http.StatusOK, items)
		})

		api.GET("/blogs", func(c *gin.Context) {
			items, err := blogs.ListWithOwners(c.Request.Context())
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to fetch blogs")
				return
			}
			c.JSON(http.StatusOK, items)
		})

		api.GET("/blogs/stats", func(c *gin.Context) {
			items, err := blogs.ListWithOwners(c.Request.Context())
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to fetch blogs")
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"total_likes": TotalLikes(items),
				"favorite":    FavoriteBlog(items),
				"most_blogs":  MostBlogs(items),
				"most_likes":  MostLikes(items),
			})
		})

		api.POST("/blogs", RequireUser(tokens, users), func(c *gin.Context) {
			user, ok := currentUser(c)
			if !ok {
				respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "token invalid")
				return
			}

			var req struct {
				Title  string `json:"title"`
				Author string `json:"author"`
				URL    string `json:"url"`
				Likes  *int   `json:"likes"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			if strings.TrimSpace(req.Title) == "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "missing title")
				return
			}
			if strings.TrimSpace(req.URL) == "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "missing url")
				return
			}
			likes := 0
			if req.Likes != nil {
				if *req.Likes < 0 {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "likes must be non-negative")
					return
				}
				likes = *req.Likes
			}

			blog := BlogRecord{
				ID:     uuid.NewString(),
				Title:  req.Title,
				Author: req.Author,
				URL:    req.URL,
				Likes:  likes,
				UserID: user.ID,
			}
			if err := blogs.CreateOwned(c.Request.Context(), blog, user.ID); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to create blog")
				return
			}

			blog.Owner = &OwnerView{ID: user.ID, Username: user.Username, Name: user.Name}
			c.JSON(http.StatusCreated, blog)
		})

		// Update is intentionally unauthenticated: any caller may edit
		// any entry's fields. Only create and delete are owner-checked.
		api.PUT("/blogs/:id", func(c *gin.Context) {
			var req struct {
				Title  *string `json:"title"`
				Author *string `json:"author"`
				URL    *string `json:"url"`
				Likes  *int    `json:"likes"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			if req.Likes != nil && *req.Likes < 0 {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "likes must be non-negative")
				return
			}

			updated, err := blogs.Update(c.Request.Context(), c.Param("id"), BlogUpdateInput{
				Title:  req.Title,
				Author: req.Author,
				URL:    req.URL,
				Likes:  req.Likes,
			})
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					respondError(c, http.StatusNotFound, "NOT_FOUND", "blog not found")
					return
				}
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to update blog")
				return
			}
			c.JSON(http.StatusOK, updated)
		})

		api.DELETE("/blogs/:id", RequireUser(tokens, users), func(c *gin.Context) {
			user, ok := currentUser(c)
			if !ok {
				respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "token invalid")
				return
			}

			ctx := c.Request.Context()
			blog, err := blogs.FindByID(ctx, c.Param("id"))
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					respondError(c, http.StatusNotFound, "NOT_FOUND", "blog not found")
					return
				}
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to fetch blog")
				return
			}

			// Entries without an owner cannot match any requester.
			if blog.UserID == "" || blog.UserID != user.ID {
				respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "attempt to delete another user's entry")
				return
			}

			if err := blogs.DeleteOwned(ctx, blog.ID, user.ID); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to delete blog")
				return
			}
			c.Status(http.StatusNoContent)
		})

		api.GET("/metrics", func(c *gin.Context) {
			snapshot, err := metrics.Snapshot(c.Request.Context())
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load metrics")
				return
			}
			c.JSON(http.StatusOK, gin.H{"requests": snapshot})
		})

		if cfg.EnableTestingRoutes {
			api.POST("/testing/reset", func(c *gin.Context) {
				ctx := c.Request.Context()
				if err := blogs.DeleteAll(ctx); err != nil {
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to clear blogs")
					return
				}
				if err := users.DeleteAll(ctx); err != nil {
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to clear users")
					return
				}
				c.Status(http.StatusNoContent)
			})
		}
	}

	return r
}
