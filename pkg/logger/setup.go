package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/raywall/pokedex-service/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure inicializa o logger global baseando-se na configuração carregada.
func Configure(cfg config.LoggingConf, service string) zerolog.Logger {
	return configure(cfg, service, os.Stdout)
}

func configure(cfg config.LoggingConf, service string, out io.Writer) zerolog.Logger {
	// Define o nível de log (default: info)
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// JSON para produção, console "bonito" para rodar local
	output := out
	if !cfg.Enabled {
		output = io.Discard
	} else if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	// log.Ctx(ctx) cai no logger global quando o contexto não carrega um
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger

	return logger
}
