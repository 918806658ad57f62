package handler

import "github.com/gin-gonic/gin"

// Handlers bundles the API handlers mounted under the API prefix.
type Handlers struct {
	Courses      *CourseHandler
	Enrollments  *EnrollmentHandler
	Reservations *ReservationHandler
}

// Register mounts the scheduling routes on r.
func Register(r gin.IRouter, h Handlers) {
	courses := r.Group("/courses")
	courses.POST("", h.Courses.Create)
	courses.GET("/:id", h.Courses.Get)
	courses.PUT("/:id", h.Courses.Update)
	courses.DELETE("/:id", h.Courses.Delete)
	courses.GET("/:id/schedule", h.Courses.Schedule)
	courses.GET("/:id/schedule/export", h.Courses.Export)
	courses.GET("/:id/availability", h.Enrollments.Availability)
	courses.POST("/:id/enrollments", h.Enrollments.Enroll)

	r.DELETE("/enrollments/:id", h.Enrollments.Cancel)

	r.POST("/reservations", h.Reservations.Book)
	r.DELETE("/reservations/:id", h.Reservations.Release)
}
