// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// appConfigKeys defines the configuration keys for the quotes service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: QUOTES_MONGO_URI, QUOTES_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "quotes", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "quotes-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Collection names
	{Name: "groups_collection", Default: "groups", Desc: "Collection for group documents"},
	{Name: "memberships_collection", Default: "memberships", Desc: "Collection for membership documents"},
	{Name: "persons_collection", Default: "persons", Desc: "Collection for person documents"},
	{Name: "quotes_collection", Default: "quotes", Desc: "Collection for quote documents"},
	{Name: "invites_collection", Default: "invites", Desc: "Collection for invite documents"},

	// Sign-in gate
	{Name: "passcode_hash", Default: "", Desc: "bcrypt hash of the shared sign-in passcode (blank = trust mode)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, QUOTES_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "QUOTES", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		GroupsCollection:      appValues.String("groups_collection"),
		MembershipsCollection: appValues.String("memberships_collection"),
		PersonsCollection:     appValues.String("persons_collection"),
		QuotesCollection:      appValues.String("quotes_collection"),
		InvitesCollection:     appValues.String("invites_collection"),

		PasscodeHash: appValues.String("passcode_hash"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked early to catch configuration errors
// before attempting to connect. A configured passcode hash must be a
// parseable bcrypt hash; a garbled hash would silently lock everyone
// out.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.PasscodeHash != "" {
		if _, err := bcrypt.Cost([]byte(appCfg.PasscodeHash)); err != nil {
			logger.Error("invalid passcode hash", zap.Error(err))
			return fmt.Errorf("passcode_hash is not a valid bcrypt hash: %w", err)
		}
	}

	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be blank")
	}

	return nil
}
