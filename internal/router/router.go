package router

import (
	"crypto/rsa"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/planhub-io/planhub/docs"
	"github.com/planhub-io/planhub/internal/config"
	"github.com/planhub-io/planhub/internal/middleware"
	"github.com/planhub-io/planhub/internal/modules/handler"
	"github.com/planhub-io/planhub/internal/modules/repo"
	"github.com/planhub-io/planhub/internal/modules/serializer"
)

type RouterDeps struct {
	Config            *config.Config
	Log               *zap.Logger
	RealmKey          *rsa.PublicKey
	UserRepo          repo.UserRepo
	ProjectHandler    *handler.ProjectHandler
	TaskHandler       *handler.TaskHandler
	CommentHandler    *handler.CommentHandler
	AttachmentHandler *handler.AttachmentHandler
	UserHandler       *handler.UserHandler
	ChatHandler       *handler.ChatHandler
	WsHandler         *handler.WsHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if d.Config.Telemetry.Enabled && d.Config.Telemetry.OtlpEndpoint != "" {
		r.Use(middleware.OtelTracing(d.Config.App.Name))
		r.Use(middleware.TraceID())
	}

	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	// swagger
	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.Auth(d.RealmKey, d.UserRepo)

	// live notification stream, outside /api so it stays untraced
	r.GET("/ws/notifications", auth, d.WsHandler.Notifications)

	v1 := r.Group("/api/v1")
	{
		v1.Use(auth)

		v1.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "pong"}) })

		project := v1.Group("/projects")
		{
			project.GET("", d.ProjectHandler.GetProjects)
			project.POST("", middleware.RequireOp(middleware.OpProjectWrite), d.ProjectHandler.CreateProject)
			project.GET("/:project_id", d.ProjectHandler.GetProject)
			project.PUT("/:project_id", middleware.RequireOp(middleware.OpProjectWrite), d.ProjectHandler.UpdateProject)
			project.DELETE("/:project_id", middleware.RequireOp(middleware.OpProjectDelete), d.ProjectHandler.DeleteProject)

			project.POST("/:project_id/analyze", d.ProjectHandler.AnalyzeProject)

			project.GET("/:project_id/members", d.ProjectHandler.GetMembers)
			project.POST("/:project_id/members", middleware.RequireOp(middleware.OpMemberInvite), d.ProjectHandler.InviteMember)
		}

		task := v1.Group("/tasks")
		{
			task.GET("", d.TaskHandler.GetTasks)
			task.POST("", middleware.RequireOp(middleware.OpTaskWrite), d.TaskHandler.CreateTask)
			task.GET("/:task_id", d.TaskHandler.GetTask)
			task.PUT("/:task_id", middleware.RequireOp(middleware.OpTaskWrite), d.TaskHandler.UpdateTask)
			task.DELETE("/:task_id", middleware.RequireOp(middleware.OpTaskDelete), d.TaskHandler.DeleteTask)

			task.GET("/:task_id/comments", d.CommentHandler.GetComments)
			task.POST("/:task_id/comments", d.CommentHandler.CreateComment)
			task.GET("/:task_id/attachments", d.AttachmentHandler.GetTaskAttachments)
		}

		comment := v1.Group("/comments")
		{
			comment.GET("", d.CommentHandler.GetAllComments)
			comment.POST("", d.CommentHandler.CreateComment)
			comment.GET("/:comment_id", d.CommentHandler.GetComment)
			comment.PUT("/:comment_id", d.CommentHandler.UpdateComment)
			comment.DELETE("/:comment_id", d.CommentHandler.DeleteComment)
			comment.GET("/:comment_id/attachments", d.AttachmentHandler.GetCommentAttachments)
		}

		attachment := v1.Group("/attachments")
		{
			attachment.POST("", d.AttachmentHandler.UploadAttachment)
			attachment.GET("/:attachment_id", d.AttachmentHandler.GetAttachment)
			attachment.GET("/:attachment_id/download", d.AttachmentHandler.DownloadAttachment)
			attachment.DELETE("/:attachment_id", d.AttachmentHandler.DeleteAttachment)
		}

		user := v1.Group("/users")
		{
			user.GET("", d.UserHandler.GetUsers)
			user.POST("", middleware.RequireOp(middleware.OpUserManage), d.UserHandler.InviteUser)
			user.GET("/profile", d.UserHandler.GetProfile)
			user.GET("/notifications", d.UserHandler.GetNotifications)
			user.GET("/:user_id", d.UserHandler.GetUser)
			user.PUT("/:user_id", middleware.RequireOp(middleware.OpUserManage), d.UserHandler.UpdateUser)
			user.DELETE("/:user_id", middleware.RequireOp(middleware.OpUserManage), d.UserHandler.DeleteUser)
		}

		chat := v1.Group("/chat/sessions")
		{
			chat.GET("", d.ChatHandler.GetSessions)
			chat.POST("", d.ChatHandler.CreateSession)
			chat.GET("/:session_id", d.ChatHandler.GetSession)
			chat.DELETE("/:session_id", d.ChatHandler.DeleteSession)
			chat.POST("/:session_id/messages", d.ChatHandler.SendMessage)
		}
		// Sessionless send: starts a new session unless the body names one.
		v1.POST("/chat/messages", d.ChatHandler.SendMessage)
	}
	return r
}
