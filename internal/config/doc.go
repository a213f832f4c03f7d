// Package config manages application configuration for the micropost API.
//
// # Configuration Loading
//
// Built-in defaults are overlaid with an optional YAML file (CONFIG_FILE) and
// then with environment variables:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS origins)
//   - LogConfig: slog level
//   - DatabaseConfig: post store driver (surrealdb or postgres) and connection settings
//   - JWTConfig: RS256 key paths, issuer and token lifetime
//   - RateLimitConfig: post creation limit per author
//   - IdempotencyConfig: how long Idempotency-Key results are replayed
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT       - HTTP server port (default: 8080)
//	LOG_LEVEL         - debug, info, warn or error (default: info)
//	DB_DRIVER         - surrealdb or postgres (default: surrealdb)
//	DB_HOST, DB_PORT  - SurrealDB address
//	DATABASE_URL      - Postgres DSN, required for the postgres driver
//	JWT_ISSUER        - expected token issuer
//	RATE_LIMIT_RATE   - posts per window per author (default: 30)
package config
