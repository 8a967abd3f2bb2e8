package routes

import (
	"edupoint-crm/internal/handlers"
	"edupoint-crm/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes wires every authenticated API route. The group passed in
// already carries the auth middleware; each route names its operation in the
// access policy table.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		leads := apiGroup.Group("/leads")
		{
			leads.POST("", middleware.Authorize("leads:create"), handlers.CreateLeadHandler)
			leads.POST("/bulk", middleware.Authorize("leads:bulk"), handlers.BulkUploadLeadsHandler)
			leads.GET("", middleware.Authorize("leads:list"), handlers.ListLeadsHandler)
			leads.GET("/assignments/today", middleware.Authorize("leads:assignments"), handlers.TodayAssignmentsHandler)
			leads.GET("/:id/history", middleware.Authorize("admission:leads"), handlers.LeadHistoryHandler)
			leads.PUT("/:id/assign", middleware.Authorize("leads:assign"), handlers.AssignLeadHandler)
			leads.PUT("/bulk-assign", middleware.Authorize("leads:assign"), handlers.BulkAssignHandler)
			leads.PUT("/:id", middleware.Authorize("leads:update"), handlers.UpdateLeadHandler)
			leads.DELETE("/:id", middleware.Authorize("leads:delete"), handlers.DeleteLeadHandler)
		}

		admission := apiGroup.Group("/admission")
		{
			admission.GET("/leads", middleware.Authorize("admission:leads"), handlers.AdmissionLeadsHandler)
			admission.PUT("/leads/:id/status", middleware.Authorize("admission:transition"), handlers.TransitionLeadHandler)
			admission.PUT("/leads/:id/undo-admission", middleware.Authorize("admission:undo"), handlers.UndoAdmissionHandler)
			admission.GET("/follow-ups", middleware.Authorize("admission:followups"), handlers.FollowUpNotificationsHandler)
			admission.GET("/leads/:id/fee-status", middleware.Authorize("fees:status"), handlers.FeeStatusHandler)
		}

		fees := apiGroup.Group("/fees")
		{
			fees.POST("", middleware.Authorize("fees:submit"), handlers.SubmitFeeHandler)
			fees.GET("", middleware.Authorize("fees:list"), handlers.ListFeesHandler)
			fees.PUT("/:id/decision", middleware.Authorize("accounting:decide"), handlers.DecideFeeHandler)
		}

		accounting := apiGroup.Group("/accounting")
		{
			accounting.GET("/due-collections", middleware.Authorize("accounting:fees"), handlers.ListDueCollectionsHandler)
			accounting.PUT("/due-collections/:id/decision", middleware.Authorize("accounting:decide"), handlers.DecideDueCollectionHandler)

			accounting.GET("/incomes", middleware.Authorize("accounting:view"), handlers.ListIncomesHandler)
			accounting.POST("/incomes", middleware.Authorize("accounting:edit"), handlers.CreateIncomeHandler)
			accounting.PUT("/incomes/:id", middleware.Authorize("accounting:edit"), handlers.UpdateIncomeHandler)
			accounting.DELETE("/incomes/:id", middleware.Authorize("accounting:edit"), handlers.DeleteIncomeHandler)

			accounting.GET("/expenses", middleware.Authorize("accounting:view"), handlers.ListExpensesHandler)
			accounting.POST("/expenses", middleware.Authorize("accounting:edit"), handlers.CreateExpenseHandler)
			accounting.PUT("/expenses/:id", middleware.Authorize("accounting:edit"), handlers.UpdateExpenseHandler)
			accounting.DELETE("/expenses/:id", middleware.Authorize("accounting:edit"), handlers.DeleteExpenseHandler)

			accounting.GET("/summary", middleware.Authorize("accounting:view"), handlers.AccountingSummaryHandler)
			accounting.GET("/export", middleware.Authorize("accounting:view"), handlers.ExportRegisterHandler)
		}

		bank := apiGroup.Group("/bank")
		{
			bank.GET("/balance", middleware.Authorize("bank:view"), handlers.GetBalanceHandler)
			bank.GET("/transactions", middleware.Authorize("bank:view"), handlers.ListBankTransactionsHandler)
			bank.POST("/deposit", middleware.Authorize("bank:operate"), handlers.DepositHandler)
			bank.POST("/withdraw", middleware.Authorize("bank:operate"), handlers.WithdrawHandler)
			bank.DELETE("/transactions/:id", middleware.Authorize("bank:delete"), handlers.DeleteBankTransactionHandler)
		}

		coordinator := apiGroup.Group("/coordinator")
		{
			coordinator.GET("/students-with-dues", middleware.Authorize("coordinator:view"), handlers.StudentsWithDuesHandler)
			coordinator.GET("/payment-notifications", middleware.Authorize("coordinator:view"), handlers.PaymentNotificationsHandler)
			coordinator.GET("/fees/:feeId/history", middleware.Authorize("coordinator:view"), handlers.StudentPaymentHistoryHandler)
			coordinator.GET("/stats", middleware.Authorize("coordinator:view"), handlers.CoordinatorStatsHandler)
			coordinator.POST("/collect-due", middleware.Authorize("coordinator:act"), handlers.CollectDueHandler)
			coordinator.POST("/due-follow-ups", middleware.Authorize("coordinator:act"), handlers.AddDueFollowUpHandler)
			coordinator.PUT("/fees/:feeId/payment-date", middleware.Authorize("coordinator:act"), handlers.UpdatePaymentDateHandler)
			coordinator.POST("/fees/:feeId/schedule", middleware.Authorize("coordinator:view"), handlers.GenerateScheduleHandler)
		}

		plans := apiGroup.Group("/payment-plans")
		{
			plans.GET("", middleware.Authorize("plans:view"), handlers.ListPaymentPlansHandler)
			plans.POST("", middleware.Authorize("plans:edit"), handlers.CreatePaymentPlanHandler)
		}

		batches := apiGroup.Group("/batches")
		{
			batches.GET("", middleware.Authorize("batches:view"), handlers.ListBatchesHandler)
			batches.POST("", middleware.Authorize("batches:edit"), handlers.CreateBatchHandler)
			batches.PUT("/:id", middleware.Authorize("batches:edit"), handlers.UpdateBatchHandler)
			batches.DELETE("/:id", middleware.Authorize("batches:edit"), handlers.DeleteBatchHandler)
			batches.POST("/:id/students", middleware.Authorize("batches:roster"), handlers.AddStudentHandler)
			batches.GET("/:id/report", middleware.Authorize("batches:view"), handlers.BatchReportHandler)
		}

		courses := apiGroup.Group("/courses")
		{
			courses.GET("", middleware.Authorize("courses:view"), handlers.ListCoursesHandler)
			courses.POST("", middleware.Authorize("courses:edit"), handlers.CreateCourseHandler)
			courses.PUT("/:id", middleware.Authorize("courses:edit"), handlers.UpdateCourseHandler)
		}

		users := apiGroup.Group("/users")
		{
			users.GET("", middleware.Authorize("users:manage"), handlers.ListUsersHandler)
			users.POST("", middleware.Authorize("users:manage"), handlers.CreateUserHandler)
			users.PUT("/:id", middleware.Authorize("users:manage"), handlers.UpdateUserHandler)
			users.PUT("/:id/deactivate", middleware.Authorize("users:manage"), handlers.DeactivateUserHandler)
		}

		apiGroup.GET("/activities", middleware.Authorize("activities:view"), handlers.ListActivitiesHandler)
	}
}
