package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/auth"
	"github.com/webcrafter/webcrafter-server/internal/config"
	"github.com/webcrafter/webcrafter-server/internal/realtime"
	"github.com/webcrafter/webcrafter-server/internal/service/chat"
	"github.com/webcrafter/webcrafter-server/internal/service/friends"
	"github.com/webcrafter/webcrafter-server/internal/service/projects"
	"github.com/webcrafter/webcrafter-server/internal/store"
)

// Services bundles everything the HTTP layer fronts.
type Services struct {
	Auth      *auth.Service
	Friends   *friends.Service
	Chat      *chat.Service
	Projects  *projects.Service
	Hub       *realtime.Hub
	Lifecycle *realtime.Lifecycle
	Store     store.Store
}

// NewServer builds the HTTP server with all REST and WebSocket routes.
func NewServer(svcs Services, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	apiHandlers := NewAPIHandlers(svcs.Auth, logger)
	friendsHandlers := NewFriendsHandlers(svcs.Friends, logger)
	chatHandlers := NewChatHandlers(svcs.Chat, logger)
	userHandlers := NewUserHandlers(svcs.Friends, svcs.Store, logger)
	projectHandlers := NewProjectHandlers(svcs.Projects, logger)

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)
		api.POST("/login/remember", apiHandlers.RememberLogin)
	}

	authorized := router.Group("/api")
	authorized.Use(AuthMiddleware(svcs.Auth, logger))
	{
		authorized.GET("/users/me", userHandlers.Me)
		authorized.PUT("/users/me", userHandlers.UpdateProfile)
		authorized.GET("/users/search", userHandlers.Search)

		authorized.GET("/friends", friendsHandlers.ListFriends)
		authorized.POST("/friends/requests", friendsHandlers.SendRequest)
		authorized.POST("/friends/accept", friendsHandlers.AcceptRequest)
		authorized.POST("/friends/reject", friendsHandlers.RejectRequest)
		authorized.DELETE("/friends/:userId", friendsHandlers.DeleteFriend)
		authorized.GET("/notifications", friendsHandlers.ListNotifications)

		authorized.POST("/chat", chatHandlers.Send)
		authorized.GET("/chat/with/:userId", chatHandlers.HistoryWith)
		authorized.GET("/chat/:channelId", chatHandlers.History)

		authorized.POST("/projects", projectHandlers.Create)
		authorized.GET("/projects/mine", projectHandlers.Mine)
		authorized.GET("/projects/explore", projectHandlers.Explore)
		authorized.POST("/projects/invites/accept", projectHandlers.AcceptInvite)
		authorized.POST("/projects/invites/reject", projectHandlers.RejectInvite)
		authorized.GET("/projects/:projectId", projectHandlers.View)
		authorized.PUT("/projects/:projectId/title", projectHandlers.Rename)
		authorized.DELETE("/projects/:projectId", projectHandlers.Delete)
		authorized.PUT("/projects/:projectId/preview", projectHandlers.UpdatePreview)
		authorized.GET("/projects/:projectId/pages", projectHandlers.ListPages)
		authorized.POST("/projects/:projectId/pages", projectHandlers.CreatePage)
		authorized.GET("/projects/:projectId/pages/:name", projectHandlers.GetPage)
		authorized.PUT("/projects/:projectId/pages/:name", projectHandlers.UpdatePage)
		authorized.DELETE("/projects/:projectId/pages/:name", projectHandlers.DeletePage)
		authorized.POST("/projects/:projectId/invite", projectHandlers.Invite)
		authorized.GET("/projects/:projectId/members", projectHandlers.Members)
		authorized.GET("/projects/:projectId/invites", projectHandlers.PendingInvites)
	}

	wsHandler := NewWSHandler(svcs.Hub, svcs.Lifecycle, svcs.Chat, logger)
	router.GET("/ws", gin.WrapH(wsHandler))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
