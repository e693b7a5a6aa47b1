package main

import (
	"log/slog"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
)

const (
	ModoLocal  = "local"
	ModoRemoto = "remoto"
)

// ConsolaConfig representa la configuración específica de la Consola. Los
// campos de memoria solo se usan en modo local.
type ConsolaConfig struct {
	Modo        string `json:"MODO"` // "local" o "remoto"
	IPMMU       string `json:"IP_MMU"`
	PuertoMMU   int    `json:"PUERTO_MMU"`
	LogLevel    string `json:"LOG_LEVEL"`
	LogFormato  string `json:"LOG_FORMATO"` // "pretty" o texto de slog
	TamMemoria  uint64 `json:"TAM_MEMORIA"`
	BitsOffset  uint   `json:"BITS_OFFSET"`
	EntradasTLB int    `json:"ENTRADAS_TLB"`
	DumpPath    string `json:"DUMP_PATH"`
}

var config *ConsolaConfig

func (c *ConsolaConfig) configSimulador(logger *slog.Logger) paginacion.Config {
	return paginacion.Config{
		TamanioMemoria: c.TamMemoria,
		BitsOffset:     c.BitsOffset,
		EntradasTLB:    c.EntradasTLB,
		Logger:         logger,
	}
}
