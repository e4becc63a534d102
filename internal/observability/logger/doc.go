// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Uso
//
// Inicialización (una vez, en main):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,   // "dev" o "prod"
//	    Level: cfg.App.LogLevel,
//	})
//	defer func() { _ = logger.Sync() }()
//
// En controllers/services (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("seat allocated", logger.RoomID(room), logger.SlotID(slot))
//
// Sin contexto (fallback al singleton):
//
//	logger.L().Info("sweeper started")
package logger
