package paginacion

import "log/slog"

// CapacidadTLBPorDefecto es la cantidad de entradas de la TLB si la
// configuración no indica otra.
const CapacidadTLBPorDefecto = 512

type claveTLB struct {
	pid    int
	pagina uint64
}

// EntradaTLB es una traducción cacheada.
type EntradaTLB struct {
	Pid    int    `json:"pid"`
	Pagina uint64 `json:"pagina"`
	Marco  uint64 `json:"marco"`
}

// EstadisticasTLB acumula aciertos y fallos desde la creación de la TLB.
type EstadisticasTLB struct {
	Aciertos uint64 `json:"aciertos"`
	Fallos   uint64 `json:"fallos"`
}

// TLB cachea traducciones (pid, página) -> marco. El reemplazo es FIFO por
// orden de inserción; las búsquedas no cambian el orden. Una TLB de
// capacidad 0 está deshabilitada.
type TLB struct {
	capacidad    int
	entradas     map[claveTLB]uint64
	orden        []claveTLB
	estadisticas EstadisticasTLB
	logger       *slog.Logger
}

// NuevaTLB crea una TLB vacía de capacidad entradas.
func NuevaTLB(capacidad int, logger *slog.Logger) *TLB {
	if capacidad < 0 {
		capacidad = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TLB{
		capacidad: capacidad,
		entradas:  make(map[claveTLB]uint64, capacidad),
		orden:     make([]claveTLB, 0, capacidad),
		logger:    logger,
	}
}

// Buscar devuelve el marco cacheado para (pid, pagina).
func (t *TLB) Buscar(pid int, pagina uint64) (uint64, bool) {
	marco, ok := t.entradas[claveTLB{pid, pagina}]
	if ok {
		t.estadisticas.Aciertos++
		t.logger.Debug("TLB HIT", "pid", pid, "pagina", pagina, "marco", marco)
	} else {
		t.estadisticas.Fallos++
		t.logger.Debug("TLB MISS", "pid", pid, "pagina", pagina)
	}
	return marco, ok
}

// Insertar agrega una traducción. Si la clave ya estaba se actualiza el marco
// y conserva su lugar en la cola; si no, y la TLB está llena, se desaloja la
// entrada insertada hace más tiempo.
func (t *TLB) Insertar(pid int, pagina, marco uint64) {
	if t.capacidad == 0 {
		return
	}

	clave := claveTLB{pid, pagina}
	if _, ok := t.entradas[clave]; ok {
		t.entradas[clave] = marco
		return
	}

	if len(t.orden) >= t.capacidad {
		victima := t.orden[0]
		t.orden = t.orden[1:]
		delete(t.entradas, victima)
		t.logger.Debug("TLB reemplazo FIFO", "pid", victima.pid, "pagina", victima.pagina)
	}

	t.entradas[clave] = marco
	t.orden = append(t.orden, clave)
}

// InvalidarTodo vacía la TLB.
func (t *TLB) InvalidarTodo() {
	clear(t.entradas)
	t.orden = t.orden[:0]
	t.logger.Debug("TLB invalidada")
}

// Len devuelve la cantidad de entradas válidas.
func (t *TLB) Len() int {
	return len(t.orden)
}

// Capacidad devuelve la cantidad máxima de entradas.
func (t *TLB) Capacidad() int {
	return t.capacidad
}

// Estadisticas devuelve los contadores de aciertos y fallos.
func (t *TLB) Estadisticas() EstadisticasTLB {
	return t.estadisticas
}

// Entradas devuelve las entradas en orden FIFO, la más antigua primero.
func (t *TLB) Entradas() []EntradaTLB {
	lista := make([]EntradaTLB, 0, len(t.orden))
	for _, clave := range t.orden {
		lista = append(lista, EntradaTLB{Pid: clave.pid, Pagina: clave.pagina, Marco: t.entradas[clave]})
	}
	return lista
}
