package paginacion

import "log/slog"

// Config describe la máquina simulada.
type Config struct {
	// TamanioMemoria es la RAM en bytes.
	TamanioMemoria uint64
	// BitsOffset define el tamaño de página (2^BitsOffset): 12, 21 o 30.
	BitsOffset uint
	// EntradasTLB es la capacidad de la TLB; 0 usa CapacidadTLBPorDefecto y
	// un valor negativo la deshabilita.
	EntradasTLB int
	Logger      *slog.Logger
}

// MetricasProceso son los contadores de uso de memoria de un proceso.
type MetricasProceso struct {
	AccesosTablasPaginas uint64 `json:"accesos_tablas_paginas"`
	PaginasMapeadas      uint64 `json:"paginas_mapeadas"`
	Traducciones         uint64 `json:"traducciones"`
	AciertosTLB          uint64 `json:"aciertos_tlb"`
	FallosTLB            uint64 `json:"fallos_tlb"`
	FallosTraduccion     uint64 `json:"fallos_traduccion"`
	Lecturas             uint64 `json:"lecturas"`
	Escrituras           uint64 `json:"escrituras"`
}

// Simulador junta la memoria física, los marcos, las tablas de páginas, la
// TLB y los espacios de direcciones. No es seguro para uso concurrente:
// quien lo comparta entre goroutines debe serializar todos los accesos.
type Simulador struct {
	bitsOffset    uint
	tamanioPagina uint64
	mascaraOffset uint64

	memoria   *MemoriaFisica
	asignador *AsignadorMarcos
	caminante *Caminante
	tlb       *TLB
	espacios  *EspaciosDirecciones

	metricas map[int]*MetricasProceso
	logger   *slog.Logger
}

// Nuevo crea el simulador con el proceso 0 activo.
func Nuevo(cfg Config) (*Simulador, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	niveles, err := NivelesPara(cfg.BitsOffset)
	if err != nil {
		return nil, err
	}
	tamanioPagina := uint64(1) << cfg.BitsOffset
	if cfg.TamanioMemoria < 2*tamanioPagina {
		return nil, nuevoError(ErrConfiguracionInvalida,
			"memoria de %d bytes: hacen falta al menos dos marcos de %d bytes", cfg.TamanioMemoria, tamanioPagina)
	}

	entradasTLB := cfg.EntradasTLB
	if entradasTLB == 0 {
		entradasTLB = CapacidadTLBPorDefecto
	}

	memoria := NuevaMemoriaFisica(cfg.TamanioMemoria)
	asignador := NuevoAsignadorMarcos(memoria, tamanioPagina, logger)
	tlb := NuevaTLB(entradasTLB, logger)

	s := &Simulador{
		bitsOffset:    cfg.BitsOffset,
		tamanioPagina: tamanioPagina,
		mascaraOffset: tamanioPagina - 1,
		memoria:       memoria,
		asignador:     asignador,
		caminante:     NuevoCaminante(memoria, asignador, tamanioPagina, niveles, logger),
		tlb:           tlb,
		espacios:      NuevosEspaciosDirecciones(asignador, tlb, logger),
		metricas:      make(map[int]*MetricasProceso),
		logger:        logger,
	}

	logger.Info("Inicializando memoria",
		"tamaño_total", cfg.TamanioMemoria,
		"tamaño_página", tamanioPagina,
		"niveles_tabla", niveles,
		"entradas_tlb", tlb.Capacidad(),
		"total_marcos", asignador.MarcosTotales())

	if _, err := s.CambiarContexto(0); err != nil {
		return nil, err
	}
	return s, nil
}

// TamanioPagina devuelve el tamaño de página y de marco en bytes.
func (s *Simulador) TamanioPagina() uint64 {
	return s.tamanioPagina
}

// BitsOffset devuelve la cantidad de bits de offset de una dirección.
func (s *Simulador) BitsOffset() uint {
	return s.bitsOffset
}

// Niveles devuelve la cantidad de niveles de tablas de páginas.
func (s *Simulador) Niveles() int {
	return s.caminante.Niveles()
}

// CapacidadTLB devuelve la cantidad máxima de entradas de la TLB.
func (s *Simulador) CapacidadTLB() int {
	return s.tlb.Capacidad()
}

// TLB expone la TLB para inspección.
func (s *Simulador) TLB() *TLB {
	return s.tlb
}

// PidActivo devuelve el proceso cuyo espacio de direcciones está activo.
func (s *Simulador) PidActivo() int {
	pid, _ := s.espacios.PidActivo()
	return pid
}

// CR3 devuelve el marco de la tabla raíz activa.
func (s *Simulador) CR3() uint64 {
	return s.espacios.CR3()
}

func (s *Simulador) metricasDe(pid int) *MetricasProceso {
	m, ok := s.metricas[pid]
	if !ok {
		m = &MetricasProceso{}
		s.metricas[pid] = m
	}
	return m
}

// CambiarContexto activa el espacio de direcciones de pid. Devuelve false si
// pid ya estaba activo, caso que no es un error.
func (s *Simulador) CambiarContexto(pid int) (bool, error) {
	cambio, err := s.espacios.CambiarContexto(pid)
	if err != nil {
		s.logger.Error("Error en cambio de contexto", "pid", pid, "error", err)
		return false, err
	}
	s.metricasDe(pid)
	return cambio, nil
}

// MapearPagina agrega la página al espacio de direcciones activo y devuelve
// el marco asignado.
func (s *Simulador) MapearPagina(pagina uint64) (uint64, error) {
	pid, _ := s.espacios.PidActivo()
	metricas := s.metricasDe(pid)

	antes := s.caminante.AccesosTablas()
	marco, err := s.caminante.Mapear(pid, s.espacios.CR3(), pagina)
	metricas.AccesosTablasPaginas += s.caminante.AccesosTablas() - antes
	if err != nil {
		return 0, err
	}
	metricas.PaginasMapeadas++

	s.logger.Info("Página mapeada", "pid", pid, "pagina", pagina, "marco", marco)
	return marco, nil
}

// LeerFisica8 lee 8 bytes de una dirección física.
func (s *Simulador) LeerFisica8(fisica uint64) (uint64, error) {
	return s.memoria.Leer8(fisica)
}

// EscribirFisica8 escribe 8 bytes en una dirección física.
func (s *Simulador) EscribirFisica8(fisica, valor uint64) error {
	return s.memoria.Escribir8(fisica, valor)
}

// VolcarProceso devuelve el contenido de todos los marcos de pid (raíz,
// tablas y hojas) en orden de asignación.
func (s *Simulador) VolcarProceso(pid int) ([]byte, error) {
	if _, ok := s.espacios.Raiz(pid); !ok {
		return nil, nuevoError(ErrProcesoInexistente, "pid %d", pid)
	}

	marcos := s.asignador.MarcosDeProceso(pid)
	contenido := make([]byte, 0, uint64(len(marcos))*s.tamanioPagina)
	for _, marco := range marcos {
		datos, err := s.memoria.Leer(marco*s.tamanioPagina, s.tamanioPagina)
		if err != nil {
			return nil, err
		}
		contenido = append(contenido, datos...)
	}

	s.logger.Info("Volcado de proceso", "pid", pid, "marcos", len(marcos), "bytes", len(contenido))
	return contenido, nil
}

// MapaMarcos devuelve el registro de cada marco asignado, indexado por
// número de marco (el 0 es el reservado).
func (s *Simulador) MapaMarcos() []RegistroMarco {
	return s.asignador.Registros()
}

// EstadoTLB resume la ocupación de la TLB.
type EstadoTLB struct {
	Entradas  int    `json:"entradas"`
	Capacidad int    `json:"capacidad"`
	Aciertos  uint64 `json:"aciertos"`
	Fallos    uint64 `json:"fallos"`
}

// EstadoEspacio es un espacio de direcciones con la dirección física de su
// tabla raíz.
type EstadoEspacio struct {
	Pid           int    `json:"pid"`
	MarcoRaiz     uint64 `json:"marco_raiz"`
	DireccionRaiz uint64 `json:"direccion_raiz"`
}

// Estado es una foto de solo lectura del simulador, para reportes.
type Estado struct {
	BitsOffset        uint                    `json:"bits_offset"`
	TamanioPagina     uint64                  `json:"tamanio_pagina"`
	Niveles           int                     `json:"niveles"`
	TamanioMemoria    uint64                  `json:"tamanio_memoria"`
	MarcosTotales     uint64                  `json:"marcos_totales"`
	MarcosAsignados   uint64                  `json:"marcos_asignados"`
	MarcosTablas      uint64                  `json:"marcos_tablas"`
	MarcosHojas       uint64                  `json:"marcos_hojas"`
	BytesTablas       uint64                  `json:"bytes_tablas"`
	BytesHojas        uint64                  `json:"bytes_hojas"`
	BytesTablaUnNivel uint64                  `json:"bytes_tabla_un_nivel"`
	PidActivo         int                     `json:"pid_activo"`
	CR3               uint64                  `json:"cr3"`
	Espacios          []EstadoEspacio         `json:"espacios"`
	TLB               EstadoTLB               `json:"tlb"`
	Metricas          map[int]MetricasProceso `json:"metricas"`
}

// Estado arma la foto actual del simulador sin modificarlo.
func (s *Simulador) Estado() Estado {
	estado := Estado{
		BitsOffset:      s.bitsOffset,
		TamanioPagina:   s.tamanioPagina,
		Niveles:         s.caminante.Niveles(),
		TamanioMemoria:  s.memoria.Tamanio(),
		MarcosTotales:   s.asignador.MarcosTotales(),
		MarcosAsignados: s.asignador.MarcosAsignados(),
		// Una tabla de un solo nivel necesita una PTE por página virtual posible.
		BytesTablaUnNivel: (uint64(1) << (BitsPorNivel * uint(s.caminante.Niveles()))) * TamanioPalabra,
		PidActivo:         s.PidActivo(),
		CR3:               s.espacios.CR3(),
		Metricas:          make(map[int]MetricasProceso, len(s.metricas)),
	}

	for _, registro := range s.asignador.Registros() {
		switch {
		case registro.Rol.EsTabla():
			estado.MarcosTablas++
		case registro.Rol == RolHoja:
			estado.MarcosHojas++
		}
	}
	estado.BytesTablas = estado.MarcosTablas * s.tamanioPagina
	estado.BytesHojas = estado.MarcosHojas * s.tamanioPagina

	for _, espacio := range s.espacios.Raices() {
		estado.Espacios = append(estado.Espacios, EstadoEspacio{
			Pid:           espacio.Pid,
			MarcoRaiz:     espacio.Raiz,
			DireccionRaiz: espacio.Raiz * s.tamanioPagina,
		})
	}

	estadisticas := s.tlb.Estadisticas()
	estado.TLB = EstadoTLB{
		Entradas:  s.tlb.Len(),
		Capacidad: s.tlb.Capacidad(),
		Aciertos:  estadisticas.Aciertos,
		Fallos:    estadisticas.Fallos,
	}

	for pid, m := range s.metricas {
		estado.Metricas[pid] = *m
	}
	return estado
}
