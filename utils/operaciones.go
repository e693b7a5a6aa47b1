package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// Constantes para tipos de mensajes entre módulos
// ============================================================================
const (
	// === COMUNICACIÓN BÁSICA (1-9) ===
	MensajeHandshake = 1 // Conexión inicial

	// === MMU (40-49) ===
	MensajeCambioContexto  = 40 // Activar el espacio de direcciones de un pid
	MensajeMapearPagina    = 41 // Mapear una página virtual del proceso activo
	MensajeTraducir        = 42 // Dirección virtual a física
	MensajeLeerVirtual     = 43 // Leer 8 bytes
	MensajeEscribirVirtual = 44 // Escribir 8 bytes
	MensajeEstadoMemoria   = 45 // Foto del estado de la memoria
	MensajeVolcarProceso   = 46 // Dump de los marcos de un proceso
	MensajeMapaMarcos      = 47 // PNG con el mapa de marcos
)

// Tipos de error propios del transporte; los del simulador los define
// paginacion.TipoError.
const (
	TipoErrorParametro = "parametro" // datos faltantes o mal formados
	TipoErrorArchivo   = "archivo"   // no se pudo escribir un dump o un mapa
	TipoErrorOcupado   = "ocupado"   // venció la espera por el acceso exclusivo
)

// DatosMensaje devuelve los datos del mensaje como mapa, vacío si no hay.
func DatosMensaje(msg *Mensaje) map[string]interface{} {
	if datosMap, ok := msg.Datos.(map[string]interface{}); ok {
		return datosMap
	}
	return map[string]interface{}{}
}

// ParsearUint64 acepta la sintaxis de literales enteros de Go: decimal,
// 0x, 0o, 0b y separadores "_".
func ParsearUint64(texto string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(texto), 0, 64)
}

// ConvertirUint64 interpreta un valor decodificado de JSON como uint64. Los
// números pueden llegar como json.Number, float64 o texto ("0x3df22f7c9315").
func ConvertirUint64(valor interface{}) (uint64, error) {
	switch v := valor.(type) {
	case json.Number:
		return ParsearUint64(v.String())
	case string:
		return ParsearUint64(v)
	case float64:
		if v < 0 || v != math.Trunc(v) || v >= math.MaxUint64 {
			return 0, fmt.Errorf("%v no es un entero sin signo", v)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("%d es negativo", v)
		}
		return uint64(v), nil
	case nil:
		return 0, fmt.Errorf("valor ausente")
	default:
		return 0, fmt.Errorf("tipo %T no numérico", valor)
	}
}

// ExtraerUint64 obtiene el campo clave de los datos como uint64.
func ExtraerUint64(datos map[string]interface{}, clave string) (uint64, error) {
	valor, ok := datos[clave]
	if !ok {
		return 0, fmt.Errorf("falta el campo %q", clave)
	}
	n, err := ConvertirUint64(valor)
	if err != nil {
		return 0, fmt.Errorf("campo %q: %w", clave, err)
	}
	return n, nil
}

// ExtraerEntero obtiene el campo clave de los datos como int no negativo.
func ExtraerEntero(datos map[string]interface{}, clave string) (int, error) {
	n, err := ExtraerUint64(datos, clave)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("campo %q: %d fuera de rango", clave, n)
	}
	return int(n), nil
}

// ExtraerTexto obtiene el campo clave como string, o valorPorDefecto.
func ExtraerTexto(datos map[string]interface{}, clave string, valorPorDefecto string) string {
	if texto, ok := datos[clave].(string); ok && texto != "" {
		return texto
	}
	return valorPorDefecto
}

// RespuestaError arma la respuesta de error que esperan los clientes.
func RespuestaError(err error, tipoError string) map[string]interface{} {
	return map[string]interface{}{
		"error":      err.Error(),
		"tipo_error": tipoError,
	}
}

// HandlerExclusivo envuelve un handler para que se ejecute con el semáforo
// tomado, de a una solicitud por vez. Si no lo obtiene dentro de espera
// responde con un error de tipo "ocupado" sin ejecutar el handler.
func HandlerExclusivo(sem *Semaforo, espera time.Duration, handler HTTPHandlerFunc) HTTPHandlerFunc {
	return func(msg *Mensaje) (interface{}, error) {
		if !sem.WaitTimeout(espera) {
			ErrorLog.Warn("Acceso exclusivo no disponible", "origen", msg.Origen, "tipo", msg.Tipo, "espera", espera)
			return RespuestaError(fmt.Errorf("%s: operación %d en espera por más de %s", msg.Origen, msg.Tipo, espera), TipoErrorOcupado), nil
		}
		defer sem.Signal()

		InfoLog.Debug("Operación recibida", "origen", msg.Origen, "tipo", msg.Tipo)
		return handler(msg)
	}
}
