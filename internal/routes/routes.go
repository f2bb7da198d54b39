package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nitishsadhu03/lms-backend/internal/config"
	"github.com/nitishsadhu03/lms-backend/internal/handlers"
	"github.com/nitishsadhu03/lms-backend/internal/middleware"
	"github.com/nitishsadhu03/lms-backend/internal/models"
	"github.com/nitishsadhu03/lms-backend/internal/repository"
	"github.com/nitishsadhu03/lms-backend/internal/services"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	clock := services.SystemClock()

	classService := services.NewClassService(db, classRepo, sessionRepo, teacherRepo, studentRepo, clock)
	scheduleService := services.NewScheduleService(db, scheduleRepo, availabilityRepo, classRepo, teacherRepo, clock)
	sessionService := services.NewSessionService(sessionRepo, classRepo, clock)

	authHandler := handlers.NewAuthHandler(db, userRepo, cfg.JWTSecret)
	classHandler := handlers.NewClassHandler(classService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, userRepo)
	sessionHandler := handlers.NewSessionHandler(sessionService, userRepo)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityRepo, userRepo)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	v1 := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	admin := v1.Group("/admin", middleware.RoleRequired(models.RoleAdmin))
	admin.Post("/classes", classHandler.CreateClass)
	admin.Get("/classes/:id", classHandler.GetClass)
	admin.Put("/classes/:id/reschedule", classHandler.RescheduleClass)
	admin.Delete("/classes/:id", classHandler.DeleteClass)
	admin.Post("/schedules/assign", scheduleHandler.AssignClass)
	admin.Put("/schedules/:scheduleId/reschedule", scheduleHandler.Reschedule)
	admin.Get("/schedules/timetables", scheduleHandler.GetAllTimetables)
	admin.Put("/sessions/:id", sessionHandler.UpdateAdminFields)
	admin.Put("/sessions/:id/reschedule", sessionHandler.Reschedule)
	admin.Put("/sessions/:id/dispute", sessionHandler.ResolveDispute)
	admin.Get("/availability", availabilityHandler.ListTeacherSlots)
	admin.Get("/availability/:teacherId", availabilityHandler.ListTeacherSlots)

	teacher := v1.Group("/teacher", middleware.RoleRequired(models.RoleTeacher))
	teacher.Post("/availability", availabilityHandler.CreateSlot)
	teacher.Get("/availability", availabilityHandler.ListMySlots)
	teacher.Put("/availability/:slotId", availabilityHandler.UpdateSlot)
	teacher.Delete("/availability/:slotId", availabilityHandler.DeleteSlot)
	teacher.Get("/schedule", scheduleHandler.GetMySchedule)
	teacher.Put("/sessions/:id", sessionHandler.UpdateTeacherFields)
	teacher.Post("/sessions/:id/dispute", sessionHandler.RaiseDispute)

	v1.Get("/teachers/:teacherId/schedule", scheduleHandler.GetTeacherSchedule)
}
