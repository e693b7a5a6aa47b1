package main

import (
	"log/slog"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
)

// MMUConfig representa la configuración específica del módulo MMU
type MMUConfig struct {
	IPMMU       string `json:"IP_MMU"`
	PuertoMMU   int    `json:"PUERTO_MMU"`
	LogLevel    string `json:"LOG_LEVEL"`
	TamMemoria  uint64 `json:"TAM_MEMORIA"`  // Tamaño de la memoria en bytes
	BitsOffset  uint   `json:"BITS_OFFSET"`  // 12, 21 o 30
	EntradasTLB int    `json:"ENTRADAS_TLB"` // 0 = 512, negativo = sin TLB
	DumpPath    string `json:"DUMP_PATH"`    // Ruta para los dumps y mapas de marcos
}

var config *MMUConfig

// configSimulador traduce la configuración del módulo a la del simulador.
func (c *MMUConfig) configSimulador(logger *slog.Logger) paginacion.Config {
	return paginacion.Config{
		TamanioMemoria: c.TamMemoria,
		BitsOffset:     c.BitsOffset,
		EntradasTLB:    c.EntradasTLB,
		Logger:         logger,
	}
}
