package paginacion

import "log/slog"

const (
	// BitsPorNivel es el ancho de cada índice de tabla.
	BitsPorNivel = 9
	// EntradasPorTabla es la cantidad de PTEs de una tabla.
	EntradasPorTabla = 1 << BitsPorNivel
	// BytesTabla es lo que ocupa una tabla completa dentro de su marco.
	BytesTabla = EntradasPorTabla * TamanioPalabra
	// BitsDireccionVirtual es el ancho de las direcciones virtuales.
	BitsDireccionVirtual = 48

	mascaraNivel   = EntradasPorTabla - 1
	entradaAusente = 0
)

// NivelesPara devuelve la cantidad de niveles de tabla para un ancho de
// offset: 12 -> 4, 21 -> 3, 30 -> 2.
func NivelesPara(bitsOffset uint) (int, error) {
	switch bitsOffset {
	case 12, 21, 30:
		return int((BitsDireccionVirtual - bitsOffset) / BitsPorNivel), nil
	default:
		return 0, nuevoError(ErrConfiguracionInvalida, "bits de offset %d (se admiten 12, 21 o 30)", bitsOffset)
	}
}

// Caminante recorre y extiende el árbol de tablas de páginas guardado en la
// memoria física. Cada nodo del árbol ocupa un marco.
type Caminante struct {
	memoria       *MemoriaFisica
	asignador     *AsignadorMarcos
	tamanioPagina uint64
	niveles       int
	accesos       uint64
	logger        *slog.Logger
}

// NuevoCaminante arma un caminante de niveles niveles.
func NuevoCaminante(memoria *MemoriaFisica, asignador *AsignadorMarcos, tamanioPagina uint64, niveles int, logger *slog.Logger) *Caminante {
	if logger == nil {
		logger = slog.Default()
	}
	return &Caminante{
		memoria:       memoria,
		asignador:     asignador,
		tamanioPagina: tamanioPagina,
		niveles:       niveles,
		logger:        logger,
	}
}

// Niveles devuelve la profundidad del árbol.
func (c *Caminante) Niveles() int {
	return c.niveles
}

// AccesosTablas cuenta las PTEs leídas desde que se creó el caminante.
func (c *Caminante) AccesosTablas() uint64 {
	return c.accesos
}

// Indices descompone un número de página en un índice por nivel, el más
// significativo primero. Los bits por encima de los niveles se ignoran.
func (c *Caminante) Indices(pagina uint64) []uint64 {
	return indicesDe(pagina, c.niveles)
}

func indicesDe(pagina uint64, niveles int) []uint64 {
	indices := make([]uint64, niveles)
	for nivel := 0; nivel < niveles; nivel++ {
		desplazamiento := uint(BitsPorNivel * (niveles - nivel - 1))
		indices[nivel] = (pagina >> desplazamiento) & mascaraNivel
	}
	return indices
}

func (c *Caminante) direccionEntrada(marco, indice uint64) uint64 {
	return marco*c.tamanioPagina + indice*TamanioPalabra
}

func (c *Caminante) leerEntrada(marco, indice uint64) (uint64, error) {
	c.accesos++
	return c.memoria.Leer8(c.direccionEntrada(marco, indice))
}

// entradaEnlazada es una PTE que Mapear escribió durante la llamada actual.
type entradaEnlazada struct {
	tabla, indice, marco uint64
}

// verificarEntrada falla si una PTE presente apunta a un marco que el
// asignador nunca entregó.
func (c *Caminante) verificarEntrada(tabla, indice, valor uint64) error {
	if c.asignador != nil && !c.asignador.Asignado(valor) {
		return nuevoError(ErrFueraDeRango, "PTE %d de la tabla en el marco %d apunta al marco %d, que no fue asignado",
			indice, tabla, valor)
	}
	return nil
}

// enlazar asigna un marco nuevo y lo escribe en la PTE indice de tabla.
func (c *Caminante) enlazar(pid int, tabla, indice uint64, rol RolMarco, bytesLimpiar uint64) (uint64, error) {
	marco, err := c.asignador.AsignarMarco(pid, rol, bytesLimpiar)
	if err != nil {
		return 0, err
	}
	if err := c.memoria.Escribir8(c.direccionEntrada(tabla, indice), marco); err != nil {
		_ = c.asignador.DevolverUltimo(marco)
		return 0, err
	}
	return marco, nil
}

// deshacer borra las PTEs enlazadas y devuelve sus marcos, del último al
// primero, para que un Mapear fallido no deje nada asignado.
func (c *Caminante) deshacer(enlazadas []entradaEnlazada) {
	for i := len(enlazadas) - 1; i >= 0; i-- {
		e := enlazadas[i]
		if err := c.memoria.Escribir8(c.direccionEntrada(e.tabla, e.indice), entradaAusente); err != nil {
			c.logger.Error("No se pudo borrar la PTE", "tabla", e.tabla, "indice", e.indice, "error", err)
		}
		if err := c.asignador.DevolverUltimo(e.marco); err != nil {
			c.logger.Error("No se pudo devolver el marco", "marco", e.marco, "error", err)
		}
	}
}

// Mapear agrega la página al árbol de pid con raíz en raiz, creando las
// tablas intermedias que falten, y devuelve el marco hoja asignado. Si falla
// no queda ninguna tabla nueva ni marco asignado.
func (c *Caminante) Mapear(pid int, raiz, pagina uint64) (hoja uint64, err error) {
	indices := c.Indices(pagina)
	actual := raiz

	var enlazadas []entradaEnlazada
	defer func() {
		if err != nil && len(enlazadas) > 0 {
			c.logger.Debug("Mapeo revertido", "pid", pid, "pagina", pagina, "tablas", len(enlazadas))
			c.deshacer(enlazadas)
		}
	}()

	for nivel := 0; nivel < c.niveles-1; nivel++ {
		siguiente, err := c.leerEntrada(actual, indices[nivel])
		if err != nil {
			return 0, err
		}

		if siguiente == entradaAusente {
			siguiente, err = c.enlazar(pid, actual, indices[nivel], RolTabla, BytesTabla)
			if err != nil {
				return 0, err
			}
			enlazadas = append(enlazadas, entradaEnlazada{tabla: actual, indice: indices[nivel], marco: siguiente})
			c.logger.Debug("Tabla creada", "pid", pid, "nivel", nivel+1, "indice", indices[nivel], "marco", siguiente)
		} else if err := c.verificarEntrada(actual, indices[nivel], siguiente); err != nil {
			return 0, err
		}
		actual = siguiente
	}

	ultimo := indices[c.niveles-1]
	presente, err := c.leerEntrada(actual, ultimo)
	if err != nil {
		return 0, err
	}
	if presente != entradaAusente {
		c.logger.Warn("Página ya mapeada", "pid", pid, "pagina", pagina, "marco", presente)
		return 0, nuevoError(ErrPaginaYaMapeada, "pid %d página %#x (marco %d)", pid, pagina, presente)
	}

	return c.enlazar(pid, actual, ultimo, RolHoja, c.tamanioPagina)
}

// Recorrer busca el marco hoja de la página sin modificar nada. Una entrada
// ausente en cualquier nivel es ErrPaginaNoMapeada.
func (c *Caminante) Recorrer(raiz, pagina uint64) (uint64, error) {
	actual := raiz
	for nivel, indice := range c.Indices(pagina) {
		siguiente, err := c.leerEntrada(actual, indice)
		if err != nil {
			return 0, err
		}
		if siguiente == entradaAusente {
			c.logger.Debug("Entrada ausente", "pagina", pagina, "nivel", nivel+1, "indice", indice)
			return 0, nuevoError(ErrPaginaNoMapeada, "página %#x: entrada %d del nivel %d ausente", pagina, indice, nivel+1)
		}
		if err := c.verificarEntrada(actual, indice, siguiente); err != nil {
			return 0, err
		}
		actual = siguiente
	}
	return actual, nil
}
