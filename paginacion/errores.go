package paginacion

import (
	"fmt"

	"github.com/go-errors/errors"
)

// Tipos de error del simulador. Los errores devueltos envuelven uno de estos
// valores, por lo que errors.Is(err, ErrPaginaNoMapeada) funciona siempre.
var (
	ErrPaginaYaMapeada       = errors.Errorf("página ya mapeada")
	ErrPaginaNoMapeada       = errors.Errorf("página no mapeada")
	ErrSinMarcos             = errors.Errorf("no hay marcos libres disponibles")
	ErrFueraDeRango          = errors.Errorf("dirección física fuera de rango")
	ErrConfiguracionInvalida = errors.Errorf("configuración inválida")
	ErrProcesoInexistente    = errors.Errorf("proceso inexistente")
)

// nuevoError arma un error del tipo dado con contexto y la pila del llamador.
func nuevoError(tipo *errors.Error, formato string, args ...interface{}) error {
	return errors.WrapPrefix(errors.New(tipo), fmt.Sprintf(formato, args...), 1)
}

// TipoError devuelve el nombre corto del tipo de error, el mismo que usa la
// MMU en el campo "tipo_error" de sus respuestas.
func TipoError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPaginaYaMapeada):
		return "ya_mapeada"
	case errors.Is(err, ErrPaginaNoMapeada):
		return "no_mapeada"
	case errors.Is(err, ErrSinMarcos):
		return "sin_marcos"
	case errors.Is(err, ErrFueraDeRango):
		return "fuera_de_rango"
	case errors.Is(err, ErrConfiguracionInvalida):
		return "configuracion"
	case errors.Is(err, ErrProcesoInexistente):
		return "proceso_inexistente"
	default:
		return "desconocido"
	}
}

// Pila devuelve la traza de un error del simulador, o "" si no tiene.
func Pila(err error) string {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.ErrorStack()
	}
	return ""
}
