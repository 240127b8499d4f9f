package cmd

import (
	"log"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"

	"participation-system/config"
	"participation-system/handlers"
	_ "participation-system/migrations"
	"participation-system/monitoring"
	"participation-system/security"
	"participation-system/services"
	"participation-system/store"
	"participation-system/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub (disabled when keys are absent)
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId("participation-server"))
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	}

	if cfg.TicketSecret == "" {
		log.Fatal("TICKET_SECRET must be set, tickets cannot be issued without an integrity key")
	}

	// Initialize services
	monitor := monitoring.NewMonitor()
	entityStore := store.NewPocketBase(app)
	notifyService := services.NewNotifyService(pn)
	availabilityService := services.NewAvailabilityService(entityStore, monitor)
	participationService := services.NewParticipationService(entityStore, notifyService, monitor)
	surveyService := services.NewSurveyService(entityStore, monitor)
	ticketService := services.NewTicketService(entityStore, cfg.TicketSecret, monitor)
	eventService := services.NewEventService(entityStore)

	// Initialize handlers
	participationHandler := handlers.NewParticipationHandler(app, participationService, availabilityService)
	surveyHandler := handlers.NewSurveyHandler(app, surveyService)
	ticketHandler := handlers.NewTicketHandler(app, ticketService)
	eventHandler := handlers.NewEventHandler(app, eventService, cfg)
	adminHandler := handlers.NewAdminHandler(app, eventService, redisClient)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.JoinRateLimit, cfg.JoinRateWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Serve prometheus metrics on a side port
	if cfg.EnableMetrics {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Availability + participation endpoints
		e.Router.GET("/api/events/{eventId}/availability", participationHandler.GetAvailability)

		participation := e.Router.Group("/api/participation")
		participation.BindFunc(rateLimiter.Middleware())
		participation.POST("/join", participationHandler.JoinEvent)
		participation.POST("/cancel", participationHandler.CancelEvent)
		participation.POST("/rating", participationHandler.RateEvent)

		// Survey endpoints
		surveys := e.Router.Group("/api/surveys")
		surveys.BindFunc(rateLimiter.Middleware())
		surveys.GET("/{userEventId}/questions", surveyHandler.GetQuestions)
		surveys.POST("/submit", surveyHandler.SubmitAnswers)

		// Ticket endpoints
		e.Router.GET("/api/tickets/{userEventId}", ticketHandler.GetTicket)
		e.Router.POST("/api/tickets/verify", ticketHandler.VerifyTicket)

		// Event retrieval endpoints
		e.Router.GET("/api/events", eventHandler.GetEvents)
		e.Router.GET("/api/events/search", eventHandler.SearchEvents)
		e.Router.GET("/api/events/suggested", eventHandler.GetSuggestedEvents)
		e.Router.GET("/api/events/upcoming", eventHandler.GetUpcomingEvents)
		e.Router.GET("/api/events/{eventId}", eventHandler.GetEvent)
		e.Router.GET("/api/events/{eventId}/durations", eventHandler.GetDurations)
		e.Router.GET("/api/organizations/{orgId}/events", eventHandler.GetOrganizationEvents)
		e.Router.GET("/api/tags/{tagId}/events", eventHandler.GetTagEvents)
		e.Router.GET("/api/facilities/{facilityId}/events", eventHandler.GetFacilityEvents)
		e.Router.GET("/api/locations/{locationId}/events", eventHandler.GetLocationEvents)

		// Feedback endpoints
		e.Router.POST("/api/feedbacks", eventHandler.CreateFeedback)
		e.Router.DELETE("/api/feedbacks/{feedbackId}", eventHandler.RemoveFeedback)
		e.Router.GET("/api/events/{eventId}/feedbacks", eventHandler.GetFeedbacks)

		// Admin endpoints
		e.Router.GET("/api/admin/events/{eventId}/summary", adminHandler.GetEventSummary)

		// Health check
		e.Router.GET("/health", adminHandler.HealthCheck)

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	return app.Start()
}
