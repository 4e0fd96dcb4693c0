package routes

import (
	"hrcases-be/controllers"

	"github.com/gin-gonic/gin"
)

// CaseRoutes sets up the case routes. Write routes run behind guard.
func CaseRoutes(r *gin.Engine, cases *controllers.CaseController, evidence *controllers.EvidenceController, guard []gin.HandlerFunc) {
	read := r.Group("/cases")
	{
		read.GET("", cases.ListCases)
		read.GET("/:id", cases.GetCase)
		read.GET("/:id/status-history", cases.GetStatusHistory)
	}

	write := r.Group("/cases", guard...)
	{
		write.POST("", cases.CreateCase)
		write.PUT("/:id", cases.UpdateCase)
		write.PATCH("/:id/status", cases.UpdateCaseStatus)
		write.DELETE("/:id", cases.ArchiveCase)
		write.POST("/:id/evidence", evidence.AttachEvidence)
		write.POST("/:id/upload", evidence.UploadFiles)
	}
}
