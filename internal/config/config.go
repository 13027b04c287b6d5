package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "strings" // strings normalizes enum-like values
    "time"    // time parses durations such as the reset token TTL
)

// DevJWTSecret is the signing secret used when JWT_SECRET is unset.  It is
// fine for local development and rejected when APP_ENV is "prod".
const DevJWTSecret = "dev-secret-change-me"

// Auth modes.  In client mode the role and email sent by the caller are
// trusted as-is; in token mode document routes require a signed access
// token and the verified claims win over anything in the request.
const (
    AuthModeClient = "client"
    AuthModeToken  = "token"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Every value has a default suitable for local
// development so the server starts against a stock MySQL install.
type Config struct {
    Env            string        // application environment (e.g. "dev", "prod")
    Port           string        // HTTP port to listen on
    DBUser         string        // database username
    DBPass         string        // database password (optional)
    DBHost         string        // database host address
    DBPort         string        // database port number
    DBName         string        // database name
    DBMaxOpenConns int           // upper bound on pooled connections
    JWTSecret      string        // secret used to sign access tokens
    AccessTTLMin   int           // access token time‑to‑live in minutes
    BcryptCost     int           // bcrypt cost for password hashing
    AuthMode       string        // "client" or "token"
    FrontendURL    string        // base URL of the web client (reset links, CORS)
    ResetTokenTTL  time.Duration // lifetime of a password reset token
    StaticDir      string        // optional directory holding the built web client
    LogLevel       string        // echo logger level: debug, info, warn, error
}

// Load reads configuration values from environment variables and returns a
// Config.  Invalid combinations cause the program to exit with a fatal log
// message.
func Load() Config {
    cfg := Config{
        Env:            envStr("APP_ENV", "dev"),
        Port:           envStr("APP_PORT", envStr("PORT", "5000")),
        DBUser:         envStr("DB_USER", "root"),
        DBPass:         envStr("DB_PASS", ""),
        DBHost:         envStr("DB_HOST", "localhost"),
        DBPort:         envStr("DB_PORT", "3306"),
        DBName:         envStr("DB_NAME", "auth_system"),
        DBMaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 10),
        JWTSecret:      envStr("JWT_SECRET", DevJWTSecret),
        AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 60),
        BcryptCost:     envInt("BCRYPT_COST", 10),
        AuthMode:       strings.ToLower(envStr("AUTH_MODE", AuthModeClient)),
        FrontendURL:    strings.TrimRight(envStr("FRONTEND_URL", "http://localhost:3000"), "/"),
        ResetTokenTTL:  envDur("RESET_TOKEN_TTL", 15*time.Minute),
        StaticDir:      envStr("STATIC_DIR", ""),
        LogLevel:       strings.ToLower(envStr("LOG_LEVEL", "info")),
    }
    if err := cfg.Validate(); err != nil {
        log.Fatalf("invalid configuration: %v", err)
    }
    return cfg
}

// Validate reports configuration values the server must not start with.
func (c Config) Validate() error {
    if c.AuthMode != AuthModeClient && c.AuthMode != AuthModeToken {
        return errorf("AUTH_MODE must be %q or %q, got %q", AuthModeClient, AuthModeToken, c.AuthMode)
    }
    if c.Env == "prod" && c.JWTSecret == DevJWTSecret {
        return errorf("JWT_SECRET must be set when APP_ENV=prod")
    }
    if c.DBMaxOpenConns < 1 {
        return errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DBMaxOpenConns)
    }
    if c.ResetTokenTTL <= 0 {
        return errorf("RESET_TOKEN_TTL must be positive, got %s", c.ResetTokenTTL)
    }
    return nil
}

// TokenMode reports whether document routes require a verified access token.
func (c Config) TokenMode() bool { return c.AuthMode == AuthModeToken }
