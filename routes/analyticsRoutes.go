package routes

import (
	"hrcases-be/controllers"

	"github.com/gin-gonic/gin"
)

// AnalyticsRoutes sets up the read-only analytics routes
func AnalyticsRoutes(r *gin.Engine, analytics *controllers.AnalyticsController) {
	group := r.Group("/analytics")
	{
		group.GET("/violations", analytics.GetViolationsByType)
		group.GET("/timeline", analytics.GetTimeline)
		group.GET("/geodata", analytics.GetGeodata)
		group.GET("/report.xlsx", analytics.DownloadReport)
	}
}
