// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: one global instance initialized with Init().
//   - Context scoping: each request can carry its own scoped logger with
//     extra fields (request_id, client_id, ...) without building a new core.
//   - Environments: "dev" uses colored console output, "prod" uses JSON.
//   - Levels: debug, info, warn, error (configurable via LOG_LEVEL).
//
// # Usage
//
// Initialization (once, in main.go):
//
//	logger.Init(logger.Config{
//	    Env:   os.Getenv("APP_ENV"),   // "dev" or "prod"
//	    Level: os.Getenv("LOG_LEVEL"), // "debug", "info", "warn", "error"
//	})
//	defer logger.L().Sync()
//
// In controllers/services (with context):
//
//	log := logger.From(ctx)
//	log.Info("token issued", logger.ClientID(clientID))
//
// Without context (falls back to the singleton):
//
//	logger.L().Info("server started")
package logger
