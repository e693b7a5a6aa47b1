package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// InfoLog y ErrorLog usan el logger por defecto hasta InicializarLogger.
var (
	InfoLog  = slog.Default()
	ErrorLog = slog.Default()
)

// NivelLog traduce el LOG_LEVEL de la configuración; lo desconocido es info.
func NivelLog(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InicializarLogger configura los loggers globales
func InicializarLogger(logLevel string, moduleName string) {
	InicializarLoggerEn(os.Stdout, logLevel, "", moduleName)
}

// InicializarLoggerEn configura los loggers globales escribiendo en salida.
// Con formato "pretty" las entradas pasan por PrettyWriter; con cualquier
// otro valor se usa el formato de texto de slog.
func InicializarLoggerEn(salida io.Writer, logLevel string, formato string, moduleName string) *slog.Logger {
	opciones := &slog.HandlerOptions{Level: NivelLog(logLevel)}

	var handler slog.Handler
	if formato == "pretty" {
		handler = slog.NewJSONHandler(NewPrettyWriter(salida), opciones)
	} else {
		handler = slog.NewTextHandler(salida, opciones)
	}

	logger := slog.New(handler).With("modulo", moduleName)

	InfoLog = logger
	ErrorLog = logger
	slog.SetDefault(logger)
	return logger
}
