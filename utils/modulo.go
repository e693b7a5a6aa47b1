package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"
)

// operacionPorDefecto atiende los mensajes que no indican operación.
const operacionPorDefecto = "default"

// Modulo agrupa el nombre de un módulo, sus handlers por tipo y operación y
// el servidor que los expone.
type Modulo struct {
	Nombre      string
	Server      *HTTPServer
	ConfigPath  string
	HandlerFunc map[string]map[string]HTTPHandlerFunc
}

func NuevoModulo(nombre string, configPath string) *Modulo {
	return &Modulo{
		Nombre:      nombre,
		ConfigPath:  configPath,
		HandlerFunc: make(map[string]map[string]HTTPHandlerFunc),
	}
}

// RegistrarHandler registra un handler para un tipo de mensaje y una
// operación; "default" atiende cualquier operación sin handler propio.
func (m *Modulo) RegistrarHandler(tipo string, operacion string, handler HTTPHandlerFunc) {
	if _, existe := m.HandlerFunc[tipo]; !existe {
		m.HandlerFunc[tipo] = make(map[string]HTTPHandlerFunc)
	}
	m.HandlerFunc[tipo][operacion] = handler
}

// despachar elige el handler de la operación pedida o el de "default".
func despachar(tipo int, porOperacion map[string]HTTPHandlerFunc) HTTPHandlerFunc {
	return func(msg *Mensaje) (interface{}, error) {
		operacion := msg.Operacion
		if operacion == "" {
			operacion = operacionPorDefecto
		}
		if handler, existe := porOperacion[operacion]; existe {
			return handler(msg)
		}
		if handler, existe := porOperacion[operacionPorDefecto]; existe {
			return handler(msg)
		}
		ErrorLog.Error("No hay handler para operación", "tipo", tipo, "operacion", operacion)
		return nil, fmt.Errorf("el mensaje %d no admite la operación %q", tipo, operacion)
	}
}

// PrepararServidor crea el servidor HTTP del módulo con todos los handlers
// registrados, sin ponerlo a escuchar.
func (m *Modulo) PrepararServidor(ip string, puerto int) *HTTPServer {
	m.Server = NewHTTPServer(ip, puerto, m.Nombre)

	for tipoStr, porOperacion := range m.HandlerFunc {
		tipo, err := strconv.Atoi(tipoStr)
		if err != nil {
			ErrorLog.Error("Tipo de mensaje inválido, se ignora", "tipo", tipoStr, "error", err)
			continue
		}
		m.Server.RegisterHTTPHandler(tipo, despachar(tipo, porOperacion))
	}
	return m.Server
}

// IniciarServidor pone a escuchar el servidor en segundo plano. Si no puede
// escuchar el proceso termina.
func (m *Modulo) IniciarServidor(ip string, puerto int) {
	m.PrepararServidor(ip, puerto)

	go func() {
		if err := m.Server.Start(); err != nil {
			ErrorLog.Error("Error al iniciar servidor HTTP", "módulo", m.Nombre, "error", err)
			os.Exit(1)
		}
	}()
}

// EsperarFinalizacion bloquea hasta SIGINT o SIGTERM y después detiene el
// servidor dando hasta espera a las solicitudes en curso.
func (m *Modulo) EsperarFinalizacion(espera time.Duration) {
	senales := make(chan os.Signal, 1)
	signal.Notify(senales, os.Interrupt, syscall.SIGTERM)
	senal := <-senales
	signal.Stop(senales)
	InfoLog.Info("Señal recibida, finalizando", "módulo", m.Nombre, "señal", senal.String())

	if m.Server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), espera)
	defer cancel()
	if err := m.Server.Detener(ctx); err != nil {
		ErrorLog.Error("El servidor no terminó a tiempo", "módulo", m.Nombre, "error", err)
	}
}

// LeerConfiguracion decodifica el JSON de ruta en un T. Rechaza campos
// desconocidos y conserva los números como json.Number.
func LeerConfiguracion[T any](ruta string) (*T, error) {
	absoluta, err := filepath.Abs(ruta)
	if err != nil {
		return nil, fmt.Errorf("ruta de configuración inválida %s: %w", ruta, err)
	}

	archivo, err := os.Open(absoluta)
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir la configuración: %w", err)
	}
	defer archivo.Close()

	var config T
	decoder := json.NewDecoder(archivo)
	decoder.DisallowUnknownFields()
	decoder.UseNumber()
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("configuración %s inválida: %w", absoluta, err)
	}
	return &config, nil
}

// CargarConfiguracion es LeerConfiguracion para el arranque de un módulo:
// ante cualquier error lo registra y termina el proceso.
func CargarConfiguracion[T any](ruta string) *T {
	config, err := LeerConfiguracion[T](ruta)
	if err != nil {
		ErrorLog.Error("Error cargando configuración", "ruta", ruta, "error", err)
		os.Exit(1)
	}
	InfoLog.Debug("Configuración leída", "ruta", ruta)
	return config
}
