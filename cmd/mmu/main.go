package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
	"github.com/sisoputnfrba/tp-simulador-paginacion/utils"
)

const (
	// esperaFinalizacion es cuánto se espera a las solicitudes en curso al
	// recibir una señal de corte.
	esperaFinalizacion = 5 * time.Second
	// esperaExclusivo es cuánto espera una solicitud a que termine la anterior
	// antes de responder "ocupado".
	esperaExclusivo = 3 * time.Second
)

var (
	modulo    *utils.Modulo
	simulador *paginacion.Simulador
	exclusivo *utils.Semaforo
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Uso: %s <archivo_configuracion>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ejemplo: %s configs/mmu-config.json\n", os.Args[0])
		os.Exit(1)
	}

	// logger provisorio hasta leer LOG_LEVEL
	utils.InicializarLogger("INFO", "MMU")

	inicializarModulo(os.Args[1])
	utils.InfoLog.Info("MMU lista",
		"tam_pagina", simulador.TamanioPagina(),
		"niveles", simulador.Niveles(),
		"entradas_tlb", simulador.CapacidadTLB(),
	)

	modulo.EsperarFinalizacion(esperaFinalizacion)
	utils.InfoLog.Info("MMU finalizada", "marcos_asignados", simulador.Estado().MarcosAsignados)
}

func inicializarModulo(rutaConfig string) {
	if _, err := os.Stat(rutaConfig); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: El archivo de configuración no existe: %s\n", rutaConfig)
		os.Exit(1)
	}

	modulo = utils.NuevoModulo("MMU", rutaConfig)
	config = utils.CargarConfiguracion[MMUConfig](rutaConfig)

	utils.InicializarLogger(config.LogLevel, "MMU")
	utils.InfoLog.Info("Configuración cargada", "nivel_log", config.LogLevel, "config_path", rutaConfig)

	if err := os.MkdirAll(config.DumpPath, 0755); err != nil {
		utils.InfoLog.Warn("No se pudo crear el directorio de dumps", "ruta", config.DumpPath, "error", err)
	}

	if err := inicializarSimulador(); err != nil {
		utils.ErrorLog.Error("No se pudo crear la memoria simulada", "error", err)
		utils.ErrorLog.Debug("Traza", "pila", paginacion.Pila(err))
		os.Exit(1)
	}

	registrarHandlers(modulo)
	modulo.IniciarServidor(config.IPMMU, config.PuertoMMU)
}

// inicializarSimulador crea la memoria simulada a partir de config. Todas
// las solicitudes la usan de a una por vez a través de exclusivo.
func inicializarSimulador() error {
	s, err := paginacion.Nuevo(config.configSimulador(utils.InfoLog))
	if err != nil {
		return err
	}
	simulador = s
	exclusivo = utils.NewSemaforo(1)
	return nil
}

func registrarHandlers(m *utils.Modulo) {
	registrar := func(tipo int, handler utils.HTTPHandlerFunc) {
		m.RegistrarHandler(strconv.Itoa(tipo), "default", utils.HandlerExclusivo(exclusivo, esperaExclusivo, handler))
	}

	registrar(utils.MensajeHandshake, handlerHandshake)
	registrar(utils.MensajeCambioContexto, handlerCambioContexto)
	registrar(utils.MensajeMapearPagina, handlerMapearPagina)
	registrar(utils.MensajeTraducir, handlerTraducir)
	registrar(utils.MensajeLeerVirtual, handlerLeerVirtual)
	registrar(utils.MensajeEscribirVirtual, handlerEscribirVirtual)
	registrar(utils.MensajeEstadoMemoria, handlerEstadoMemoria)
	registrar(utils.MensajeVolcarProceso, handlerVolcarProceso)
	registrar(utils.MensajeMapaMarcos, handlerMapaMarcos)

	utils.InfoLog.Debug("Handlers registrados", "cantidad", len(m.HandlerFunc))
}
