package main

import (
	"outreach-platform/internal/httpapi"
	"outreach-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers. Keep this file free of
// business logic; handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/health", h.Health)
	r.GET("/media/vm/:file", h.ServeVoicemailAudio)
	r.POST("/media/upload/raw", h.UploadRawAudio)

	// Provider webhooks (public by contract with the carriers).
	r.POST("/api/twilio/inbound-sms", h.TwilioInboundSMS)
	r.POST("/api/bonzo/inbound-sms", h.BonzoInboundSMS)

	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/refresh", h.RefreshToken)

	// protected API group
	api := r.Group("/api")
	api.Use(authMW)
	{
		api.GET("/auth/me", h.Me)

		api.GET("/templates", h.ListTemplates)
		api.POST("/templates", h.CreateTemplate)
		api.GET("/templates/:id", h.GetTemplate)
		api.PATCH("/templates/:id", h.UpdateTemplate)
		api.DELETE("/templates/:id", h.DeleteTemplate)
		api.GET("/templates/:id/graph", h.GetTemplateGraph)
		api.PUT("/templates/:id/graph", h.PutTemplateGraph)
		api.GET("/templates/:id/versions", h.ListTemplateVersions)
		api.POST("/templates/:id/versions", h.CreateTemplateVersion)
		api.GET("/templates/:id/versions/:versionId", h.GetTemplateVersion)
		api.DELETE("/templates/:id/versions/:versionId", h.DeleteTemplateVersion)
		api.GET("/templates/:id/export/csv", h.ExportTemplateCSV)
		api.POST("/templates/:id/import/csv", h.ImportTemplateCSV)

		api.GET("/content-templates", h.ListContentTemplates)
		api.POST("/content-templates", h.CreateContentTemplate)
		api.GET("/content-templates/:id", h.GetContentTemplate)
		api.DELETE("/content-templates/:id", h.DeleteContentTemplate)

		api.GET("/campaigns", h.ListCampaigns)
		api.POST("/campaigns", h.CreateCampaign)
		api.GET("/campaigns/:id", h.GetCampaign)
		api.PATCH("/campaigns/:id", h.PatchCampaign)
		api.DELETE("/campaigns/:id", h.DeleteCampaign)
		api.GET("/campaigns/:id/graph", h.GetCampaignGraph)
		api.PUT("/campaigns/:id/graph", h.PutCampaignGraph)
		api.POST("/campaigns/:id/execute", h.ExecuteCampaign)
		api.GET("/campaigns/:id/stats", h.CampaignStats)
		api.GET("/campaigns/:id/contacts", h.ListCampaignContacts)
		api.POST("/campaigns/:id/contacts", h.CreateContact)
		api.POST("/campaigns/:id/contacts/bulk", h.BulkCreateContacts)

		api.GET("/contacts/:id", h.GetContact)
		api.PATCH("/contacts/:id", h.PatchContact)
		api.GET("/contacts/:id/conversations", h.ListContactConversations)
		api.GET("/conversations/:id/messages", h.ListConversationMessages)
		api.POST("/messages", h.PostMessage)

		api.POST("/sms/send", h.SendSMS)
		api.POST("/voicemail/drop", h.DropVoicemail)
		api.POST("/email/send", h.SendEmail)

		api.GET("/stats", h.DashboardStats)

		// User management is admin-only; everyone reads their own record
		// through /auth/me.
		users := api.Group("/users")
		users.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			users.GET("", h.ListUsers)
			users.POST("", h.CreateUser)
		}
	}
}
