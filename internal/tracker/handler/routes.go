package handler

import (
	"github.com/Anshu331/harness-portal/internal/middleware"
	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/policy"
	"github.com/gin-gonic/gin"
)

// RouteDeps 路由依赖
type RouteDeps struct {
	Handlers   *Handlers
	System     *SystemHandler
	Policy     *policy.Policy
	JWTSecret  string
	Revocation middleware.RevocationChecker
}

// RegisterRoutes 注册全部路由
func RegisterRoutes(r *gin.Engine, d RouteDeps) {
	h := d.Handlers
	perm := func(resource, action string) gin.HandlerFunc {
		return middleware.RequirePermission(d.Policy, resource, action)
	}

	if d.System != nil {
		r.GET("/health/live", d.System.Live)
		r.GET("/health/ready", d.System.Ready)
		r.GET("/version", d.System.Version)
	}
	r.GET("/uploads/*path", h.Upload.Serve)
	r.HEAD("/uploads/*path", h.Upload.Serve)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(d.JWTSecret, d.Revocation))
	{
		authed.GET("/auth/me", h.Auth.Me)
		authed.POST("/auth/logout", h.Auth.Logout)
		authed.POST("/auth/register", perm(policy.ResourceUser, policy.ActionCreate), h.Auth.Register)
		authed.GET("/auth/users", perm(policy.ResourceUser, policy.ActionRead), h.Auth.ListUsers)

		authed.GET("/events", h.SSE.Stream)

		projects := authed.Group("/projects")
		{
			projects.GET("", perm(policy.ResourceProject, policy.ActionRead), h.Project.List)
			projects.POST("", perm(policy.ResourceProject, policy.ActionCreate), h.Project.Create)
		}

		harness := authed.Group("/harness")
		{
			harness.GET("", h.Harness.List)
			harness.POST("", h.Harness.Create)
			harness.GET("/vendor/me", middleware.RequireRole(entity.RoleVendor), h.Harness.ListMine)
			harness.GET("/activity/:id", perm(policy.ResourceActivity, policy.ActionRead), h.Harness.Activity)
			harness.GET("/:projectId", h.Harness.ListByProject)

			harness.PATCH("/release/:id", h.Harness.Release)
			harness.PATCH("/assign-vendors/:id", h.Harness.AssignVendors)
			harness.PATCH("/vendor-eta/:id", h.Harness.VendorETA)
			harness.PATCH("/assignDVP/:id", h.Harness.AssignDVP)
			harness.PATCH("/dvp-status/:id", h.Harness.DVPStatus)
			harness.PATCH("/assignTNV/:id", h.Harness.AssignTNV)
			harness.PATCH("/tnv-status/:id", h.Harness.TNVStatus)
		}
		authed.PATCH("/sample-received/:id", h.Harness.SampleReceived)

		shipment := authed.Group("/shipment")
		{
			shipment.GET("", h.Shipment.List)
			shipment.POST("/dispatch/:harnessId", h.Shipment.Dispatch)
			shipment.POST("/receive/:id", h.Shipment.Receive)
		}

		report := authed.Group("/report")
		{
			report.GET("/harness/:id", h.Report.List)
			report.POST("/upload/:harnessId", h.Report.Upload)
		}

		vehicle := authed.Group("/vehicle-details")
		{
			vehicle.GET("", perm(policy.ResourceVehicleDetail, policy.ActionRead), h.VehicleDetail.List)
			vehicle.POST("", perm(policy.ResourceVehicleDetail, policy.ActionCreate), h.VehicleDetail.Create)
			vehicle.PATCH("/:id", perm(policy.ResourceVehicleDetail, policy.ActionUpdate), h.VehicleDetail.Update)
			vehicle.DELETE("/:id", perm(policy.ResourceVehicleDetail, policy.ActionDelete), h.VehicleDetail.Delete)
			vehicle.POST("/:id/drawing", perm(policy.ResourceVehicleDetail, policy.ActionUpdate), h.VehicleDetail.UploadDrawing)
		}

		dashboard := authed.Group("/dashboard")
		dashboard.Use(perm(policy.ResourceDashboard, policy.ActionRead))
		{
			dashboard.GET("", h.Dashboard.Stats)
			dashboard.GET("/:filter", h.Dashboard.Detail)
		}

		tracking := authed.Group("/tracking")
		{
			tracking.GET("", perm(policy.ResourceTracking, policy.ActionRead), h.Tracking.List)
			tracking.GET("/export", perm(policy.ResourceTracking, policy.ActionExport), h.Tracking.Export)
		}
	}
}
