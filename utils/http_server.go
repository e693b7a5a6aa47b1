package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPHandlerFunc atiende un mensaje y devuelve lo que se responde como JSON.
type HTTPHandlerFunc func(*Mensaje) (interface{}, error)

// HTTPServer recibe los mensajes de otros módulos en POST /mensaje y los
// despacha según su tipo.
type HTTPServer struct {
	IP       string
	Puerto   int
	Nombre   string
	server   *http.Server
	handlers map[int]HTTPHandlerFunc
}

// NewHTTPServer arma el servidor completo; Start y Detener solo lo usan, así
// pueden llamarse desde goroutines distintas.
func NewHTTPServer(ip string, puerto int, nombre string) *HTTPServer {
	s := &HTTPServer{
		IP:       ip,
		Puerto:   puerto,
		Nombre:   nombre,
		handlers: make(map[int]HTTPHandlerFunc),
	}
	s.server = &http.Server{
		Addr:              s.Direccion(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// RegisterHTTPHandler asocia un tipo de mensaje con su handler. Un segundo
// registro del mismo tipo reemplaza al anterior. Los registros van antes de
// Start.
func (s *HTTPServer) RegisterHTTPHandler(tipoMensaje int, handler HTTPHandlerFunc) {
	s.handlers[tipoMensaje] = handler
}

func (s *HTTPServer) Direccion() string {
	return fmt.Sprintf("%s:%d", s.IP, s.Puerto)
}

// responderJSON escribe v como cuerpo JSON con el código indicado.
func responderJSON(w http.ResponseWriter, codigo int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(codigo)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ErrorLog.Error("Error codificando respuesta", "error", err)
	}
}

func (s *HTTPServer) atenderMensaje(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
		return
	}

	var mensaje Mensaje
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&mensaje); err != nil {
		http.Error(w, fmt.Sprintf("Mensaje mal formado: %v", err), http.StatusBadRequest)
		return
	}

	handler, existe := s.handlers[mensaje.Tipo]
	if !existe {
		http.Error(w, fmt.Sprintf("Tipo de mensaje %d desconocido para %s", mensaje.Tipo, s.Nombre), http.StatusBadRequest)
		return
	}

	inicio := time.Now()
	respuesta, err := handler(&mensaje)
	InfoLog.Debug("Mensaje atendido",
		"tipo", mensaje.Tipo,
		"origen", mensaje.Origen,
		"duracion", time.Since(inicio),
	)
	if err != nil {
		ErrorLog.Error("Falló el handler", "tipo", mensaje.Tipo, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	responderJSON(w, http.StatusOK, respuesta)
}

// Handler arma el mux con /mensaje y /health.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mensaje", s.atenderMensaje)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		responderJSON(w, http.StatusOK, map[string]string{"status": "ok", "module": s.Nombre})
	})
	return mux
}

// Start escucha hasta que el servidor se detenga. Un cierre pedido con
// Detener no se informa como error.
func (s *HTTPServer) Start() error {
	InfoLog.Info("Servidor HTTP escuchando", "módulo", s.Nombre, "dirección", s.Direccion())
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Detener espera a que terminen las solicitudes en curso o a que venza ctx.
func (s *HTTPServer) Detener(ctx context.Context) error {
	InfoLog.Info("Deteniendo servidor HTTP", "módulo", s.Nombre)
	return s.server.Shutdown(ctx)
}
