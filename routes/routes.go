package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/secondstrikerr/secondstriker/handlers"
	"github.com/secondstrikerr/secondstriker/middleware"
)

// SetupRoutes собирает все HTTP-маршруты приложения. Callback-и платёжного
// шлюза и просмотр соревнований публичны, остальное за Bearer-токеном.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	leagueHandler *handlers.LeagueHandler,
	tournamentHandler *handlers.TournamentHandler,
	walletHandler *handlers.WalletHandler,
	joinRequestHandler *handlers.JoinRequestHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/verify-email", authHandler.VerifyEmail)
	router.Post("/auth/resend-otp", authHandler.ResendOTP)
	router.Post("/auth/login", authHandler.Login)

	// Callback-и Daraja приходят с серверов Safaricom без нашего токена.
	router.Post("/wallet/callbacks/deposit", walletHandler.DepositCallback)
	router.Post("/wallet/callbacks/withdrawal", walletHandler.WithdrawalCallback)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/users/me", userHandler.Me)
		r.Put("/users/me/phone", userHandler.UpdatePhoneNumber)

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/balance", walletHandler.Balance)
			r.Get("/transactions", walletHandler.Transactions)
			r.Post("/deposit", walletHandler.Deposit)
			r.Post("/withdraw", walletHandler.Withdraw)
		})

		r.Route("/join-requests", func(r chi.Router) {
			r.Get("/", joinRequestHandler.List)
			r.Post("/", joinRequestHandler.Invite)
			r.Post("/{requestID}/respond", joinRequestHandler.Respond)
		})

		r.Route("/leagues", func(r chi.Router) {
			r.Post("/", leagueHandler.Create)
			r.Get("/", leagueHandler.List)
			r.Get("/{leagueID}", leagueHandler.Get)
			r.Patch("/{leagueID}", leagueHandler.Update)
			r.Post("/{leagueID}/start", leagueHandler.Start)
			r.Post("/{leagueID}/finish", leagueHandler.Finish)
			r.Get("/{leagueID}/table", leagueHandler.Table)
			r.Get("/{leagueID}/fixtures", leagueHandler.Fixtures)
			r.Post("/{leagueID}/fixtures/{fixtureID}/result", leagueHandler.SubmitResult)
			r.Get("/{leagueID}/stats", leagueHandler.Stats)
			r.Get("/{leagueID}/members/{userID}/stats", leagueHandler.MemberStats)
			r.Post("/{leagueID}/logo", leagueHandler.UploadLogo)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Post("/", tournamentHandler.Create)
			r.Get("/", tournamentHandler.List)
			r.Get("/{tournamentID}", tournamentHandler.Get)
			r.Patch("/{tournamentID}", tournamentHandler.Update)
			r.Post("/{tournamentID}/start", tournamentHandler.Start)
			r.Post("/{tournamentID}/advance", tournamentHandler.AdvanceToKnockout)
			r.Post("/{tournamentID}/finish", tournamentHandler.Finish)
			r.Get("/{tournamentID}/standings", tournamentHandler.GroupTables)
			r.Get("/{tournamentID}/fixtures", tournamentHandler.Fixtures)
			r.Post("/{tournamentID}/fixtures/{fixtureID}/result", tournamentHandler.SubmitResult)
			r.Post("/{tournamentID}/logo", tournamentHandler.UploadLogo)
		})
	})

	router.Get("/ws/leagues/{leagueID}", webSocketHandler.ServeLeague)
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeTournament)
}
