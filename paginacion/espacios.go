package paginacion

import (
	"log/slog"
	"sort"
)

// EspacioDirecciones asocia un proceso con el marco de su tabla raíz.
type EspacioDirecciones struct {
	Pid  int    `json:"pid"`
	Raiz uint64 `json:"raiz"`
}

// EspaciosDirecciones lleva las tablas raíz de cada proceso, el proceso
// activo y el registro base de tablas (el CR3 de x86).
type EspaciosDirecciones struct {
	asignador *AsignadorMarcos
	tlb       *TLB
	raices    map[int]uint64
	activo    int
	hayActivo bool
	cr3       uint64
	logger    *slog.Logger
}

// NuevosEspaciosDirecciones arma el administrador sin proceso activo.
func NuevosEspaciosDirecciones(asignador *AsignadorMarcos, tlb *TLB, logger *slog.Logger) *EspaciosDirecciones {
	if logger == nil {
		logger = slog.Default()
	}
	return &EspaciosDirecciones{
		asignador: asignador,
		tlb:       tlb,
		raices:    make(map[int]uint64),
		logger:    logger,
	}
}

// CambiarContexto activa el espacio de direcciones de pid, creándolo si es
// nuevo, e invalida la TLB. Si pid ya está activo no hace nada y devuelve
// false.
func (e *EspaciosDirecciones) CambiarContexto(pid int) (bool, error) {
	if e.hayActivo && e.activo == pid {
		e.logger.Warn("El proceso ya está activo", "pid", pid)
		return false, nil
	}

	raiz, existe := e.raices[pid]
	if !existe {
		var err error
		raiz, err = e.asignador.AsignarMarco(pid, RolRaiz, BytesTabla)
		if err != nil {
			return false, err
		}
		e.raices[pid] = raiz
		e.logger.Info("Espacio de direcciones creado", "pid", pid, "raiz", raiz)
	}

	anterior := e.activo
	e.activo = pid
	e.hayActivo = true
	e.cr3 = raiz
	e.tlb.InvalidarTodo()

	e.logger.Info("Cambio de contexto", "pid_anterior", anterior, "pid", pid, "cr3", raiz)
	return true, nil
}

// PidActivo devuelve el proceso activo; el bool es falso si todavía no hubo
// ningún cambio de contexto.
func (e *EspaciosDirecciones) PidActivo() (int, bool) {
	return e.activo, e.hayActivo
}

// CR3 devuelve el marco de la tabla raíz activa.
func (e *EspaciosDirecciones) CR3() uint64 {
	return e.cr3
}

// Raiz devuelve el marco raíz de pid, si el proceso existe.
func (e *EspaciosDirecciones) Raiz(pid int) (uint64, bool) {
	raiz, ok := e.raices[pid]
	return raiz, ok
}

// Raices lista los espacios de direcciones ordenados por pid.
func (e *EspaciosDirecciones) Raices() []EspacioDirecciones {
	lista := make([]EspacioDirecciones, 0, len(e.raices))
	for pid, raiz := range e.raices {
		lista = append(lista, EspacioDirecciones{Pid: pid, Raiz: raiz})
	}
	sort.Slice(lista, func(i, j int) bool { return lista[i].Pid < lista[j].Pid })
	return lista
}
