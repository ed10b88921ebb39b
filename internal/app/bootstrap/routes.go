// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	groupsfeature "github.com/GeddesWorks/quotes/internal/app/features/groups"
	healthfeature "github.com/GeddesWorks/quotes/internal/app/features/health"
	invitesfeature "github.com/GeddesWorks/quotes/internal/app/features/invites"
	loginfeature "github.com/GeddesWorks/quotes/internal/app/features/login"
	logoutfeature "github.com/GeddesWorks/quotes/internal/app/features/logout"
	membersfeature "github.com/GeddesWorks/quotes/internal/app/features/members"
	peoplefeature "github.com/GeddesWorks/quotes/internal/app/features/people"
	quotesfeature "github.com/GeddesWorks/quotes/internal/app/features/quotes"
	"github.com/GeddesWorks/quotes/internal/app/store/groupstore"
	"github.com/GeddesWorks/quotes/internal/app/store/invitestore"
	"github.com/GeddesWorks/quotes/internal/app/store/memberstore"
	"github.com/GeddesWorks/quotes/internal/app/store/personstore"
	"github.com/GeddesWorks/quotes/internal/app/store/quotestore"
	"github.com/GeddesWorks/quotes/internal/app/system/auth"
	"github.com/GeddesWorks/quotes/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. The router wires every feature
// area: sign-in, group lifecycle, membership, invites, persons, and
// quotes. All group-scoped routes nest under /groups/{groupID}.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	dsCfg := appCfg.docstoreConfig()
	groupStore := groupstore.New(deps.Store, dsCfg, logger)
	memberStore := memberstore.New(deps.Store, dsCfg, logger)
	personStore := personstore.New(deps.Store, dsCfg, logger)
	quoteStore := quotestore.New(deps.Store, dsCfg, logger)
	inviteStore := invitestore.New(deps.Store, dsCfg, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed
	// in. Handlers reach it via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication. Sign-in and invite-code endpoints share a guess
	// limiter so short secrets cannot be brute-forced.
	guessLimiter := ratelimit.NewGuessLimiter()
	loginHandler := loginfeature.NewHandler(sessionMgr, appCfg.PasscodeHash, logger)
	loginHandler.Limits = guessLimiter
	r.With(guessLimiter.LimitByIP).Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Group lifecycle
	groupsHandler := groupsfeature.NewHandler(groupStore, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler))

	// Group-scoped sub-resources
	membersHandler := membersfeature.NewHandler(memberStore, logger)
	r.Mount("/groups/{groupID}/members", membersfeature.Routes(membersHandler))

	invitesHandler := invitesfeature.NewHandler(inviteStore, logger)
	r.Mount("/groups/{groupID}/invites", invitesfeature.Routes(invitesHandler))

	peopleHandler := peoplefeature.NewHandler(personStore, logger)
	r.Mount("/groups/{groupID}/people", peoplefeature.Routes(peopleHandler))

	quotesHandler := quotesfeature.NewHandler(quoteStore, logger)
	r.Mount("/groups/{groupID}/quotes", quotesfeature.Routes(quotesHandler))

	// Joining and invite resolution are not group-scoped: the caller
	// only holds a code until the join succeeds.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.With(guessLimiter.LimitByIP).Post("/join", membersHandler.HandleJoin)
		pr.With(guessLimiter.LimitByIP).Get("/invites/resolve", invitesHandler.ServeResolve)
	})

	return r, nil
}
