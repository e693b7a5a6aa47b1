package paginacion

import (
	"fmt"
	"log/slog"
)

// RolMarco indica para qué se usa un marco asignado.
type RolMarco uint8

const (
	RolLibre RolMarco = iota
	RolReservado
	RolRaiz
	RolTabla
	RolHoja
)

func (r RolMarco) String() string {
	switch r {
	case RolLibre:
		return "libre"
	case RolReservado:
		return "reservado"
	case RolRaiz:
		return "raiz"
	case RolTabla:
		return "tabla"
	case RolHoja:
		return "hoja"
	default:
		return fmt.Sprintf("rol(%d)", uint8(r))
	}
}

// EsTabla es verdadero para marcos que contienen una tabla de páginas.
func (r RolMarco) EsTabla() bool {
	return r == RolRaiz || r == RolTabla
}

// RegistroMarco guarda a qué proceso pertenece un marco y su rol. Solo se usa
// para reportes y volcados, nunca durante la traducción.
type RegistroMarco struct {
	Pid int      `json:"pid"`
	Rol RolMarco `json:"rol"`
}

// AsignadorMarcos entrega marcos con un contador creciente. Los marcos nunca
// se liberan. El marco 0 queda reservado: una PTE en 0 significa "ausente".
type AsignadorMarcos struct {
	memoria      *MemoriaFisica
	tamanioMarco uint64
	total        uint64
	registros    []RegistroMarco
	logger       *slog.Logger
}

// NuevoAsignadorMarcos crea un asignador sobre memoria con marcos de
// tamanioMarco bytes.
func NuevoAsignadorMarcos(memoria *MemoriaFisica, tamanioMarco uint64, logger *slog.Logger) *AsignadorMarcos {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsignadorMarcos{
		memoria:      memoria,
		tamanioMarco: tamanioMarco,
		total:        memoria.Tamanio() / tamanioMarco,
		registros:    []RegistroMarco{{Pid: -1, Rol: RolReservado}},
		logger:       logger,
	}
}

// AsignarMarco entrega un marco nuevo para pid, con bytesLimpiar bytes en
// cero desde su inicio. Si no quedan marcos no se asigna nada.
func (a *AsignadorMarcos) AsignarMarco(pid int, rol RolMarco, bytesLimpiar uint64) (uint64, error) {
	marco := uint64(len(a.registros))
	if marco >= a.total {
		a.logger.Error("No hay marcos libres disponibles", "pid", pid, "total_marcos", a.total)
		return 0, nuevoError(ErrSinMarcos, "pid %d: %d marcos de %d bytes en uso", pid, a.total, a.tamanioMarco)
	}
	if bytesLimpiar > a.tamanioMarco {
		bytesLimpiar = a.tamanioMarco
	}

	if err := a.memoria.Limpiar(marco*a.tamanioMarco, bytesLimpiar); err != nil {
		return 0, err
	}
	a.registros = append(a.registros, RegistroMarco{Pid: pid, Rol: rol})

	a.logger.Debug("Marco asignado", "pid", pid, "marco", marco, "rol", rol.String())
	return marco, nil
}

// Asignado indica si marco fue entregado por el asignador. El reservado no
// cuenta.
func (a *AsignadorMarcos) Asignado(marco uint64) bool {
	return marco != 0 && marco < uint64(len(a.registros))
}

// DevolverUltimo deshace la última asignación, que debe ser marco. Solo se
// usa para revertir una operación que falló a mitad de camino.
func (a *AsignadorMarcos) DevolverUltimo(marco uint64) error {
	ultimo := uint64(len(a.registros)) - 1
	if marco == 0 || marco != ultimo {
		return fmt.Errorf("no se puede devolver el marco %d: el último asignado es %d", marco, ultimo)
	}
	a.registros = a.registros[:ultimo]
	a.logger.Debug("Marco devuelto", "marco", marco)
	return nil
}

// MarcosAsignados cuenta los marcos entregados, sin el reservado.
func (a *AsignadorMarcos) MarcosAsignados() uint64 {
	return uint64(len(a.registros)) - 1
}

// MarcosTotales es la cantidad de marcos que entran en la memoria física.
func (a *AsignadorMarcos) MarcosTotales() uint64 {
	return a.total
}

// MarcosLibres cuenta los marcos que todavía se pueden entregar.
func (a *AsignadorMarcos) MarcosLibres() uint64 {
	usados := uint64(len(a.registros))
	if usados >= a.total {
		return 0
	}
	return a.total - usados
}

// Registro devuelve el registro de un marco; los no asignados son RolLibre.
func (a *AsignadorMarcos) Registro(marco uint64) RegistroMarco {
	if marco >= uint64(len(a.registros)) {
		return RegistroMarco{Pid: -1, Rol: RolLibre}
	}
	return a.registros[marco]
}

// Registros devuelve una copia de los registros de todos los marcos
// entregados, indexada por número de marco.
func (a *AsignadorMarcos) Registros() []RegistroMarco {
	copia := make([]RegistroMarco, len(a.registros))
	copy(copia, a.registros)
	return copia
}

// MarcosDeProceso lista, en orden de asignación, los marcos de pid.
func (a *AsignadorMarcos) MarcosDeProceso(pid int) []uint64 {
	var marcos []uint64
	for i, r := range a.registros {
		if r.Pid == pid && r.Rol != RolReservado {
			marcos = append(marcos, uint64(i))
		}
	}
	return marcos
}
