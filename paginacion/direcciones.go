package paginacion

import (
	"fmt"
	"strings"
)

// Direccion es una dirección virtual separada en sus partes.
type Direccion struct {
	Virtual uint64   `json:"virtual"`
	Pagina  uint64   `json:"pagina"`
	Offset  uint64   `json:"offset"`
	Indices []uint64 `json:"indices"`
}

func (d Direccion) String() string {
	partes := make([]string, len(d.Indices))
	for i, indice := range d.Indices {
		partes[i] = fmt.Sprintf("%d", indice)
	}
	return fmt.Sprintf("%#x = página %d (índices %s) + offset %d",
		d.Virtual, d.Pagina, strings.Join(partes, "|"), d.Offset)
}

// Descomponer separa una dirección virtual en número de página, offset e
// índices de tabla según la configuración del simulador.
func (s *Simulador) Descomponer(virtual uint64) Direccion {
	pagina := virtual >> s.bitsOffset
	return Direccion{
		Virtual: virtual,
		Pagina:  pagina,
		Offset:  virtual & s.mascaraOffset,
		Indices: s.caminante.Indices(pagina),
	}
}

// DescomponerDireccion es Descomponer para una configuración de bitsOffset,
// sin un simulador de por medio.
func DescomponerDireccion(virtual uint64, bitsOffset uint) (Direccion, error) {
	niveles, err := NivelesPara(bitsOffset)
	if err != nil {
		return Direccion{}, err
	}
	pagina := virtual >> bitsOffset
	return Direccion{
		Virtual: virtual,
		Pagina:  pagina,
		Offset:  virtual & (uint64(1)<<bitsOffset - 1),
		Indices: indicesDe(pagina, niveles),
	}, nil
}

// ComponerPagina arma un número de página a partir de sus índices, el más
// significativo primero. Es la inversa de Caminante.Indices.
func ComponerPagina(indices ...uint64) uint64 {
	var pagina uint64
	for _, indice := range indices {
		pagina = pagina<<BitsPorNivel | indice&mascaraNivel
	}
	return pagina
}

// Traducir convierte una dirección virtual del proceso activo en física.
// Primero consulta la TLB; si falla recorre las tablas y cachea el marco.
func (s *Simulador) Traducir(virtual uint64) (uint64, error) {
	pagina := virtual >> s.bitsOffset
	offset := virtual & s.mascaraOffset
	pid, _ := s.espacios.PidActivo()
	metricas := s.metricasDe(pid)
	metricas.Traducciones++

	if marco, ok := s.tlb.Buscar(pid, pagina); ok {
		metricas.AciertosTLB++
		return marco*s.tamanioPagina + offset, nil
	}
	metricas.FallosTLB++

	antes := s.caminante.AccesosTablas()
	marco, err := s.caminante.Recorrer(s.espacios.CR3(), pagina)
	metricas.AccesosTablasPaginas += s.caminante.AccesosTablas() - antes
	if err != nil {
		metricas.FallosTraduccion++
		s.logger.Warn("Traducción fallida", "pid", pid, "direccion", virtual, "pagina", pagina, "error", err)
		return 0, err
	}

	s.tlb.Insertar(pid, pagina, marco)

	fisica := marco*s.tamanioPagina + offset
	s.logger.Debug("Dirección traducida", "pid", pid, "dir_logica", virtual, "dir_fisica", fisica, "marco", marco)
	return fisica, nil
}

// verificarPalabra falla si los 8 bytes desde virtual no caen en una misma
// página: el resto quedaría en otro marco físico.
func (s *Simulador) verificarPalabra(virtual uint64) error {
	offset := virtual & s.mascaraOffset
	if offset+TamanioPalabra > s.tamanioPagina {
		return nuevoError(ErrFueraDeRango, "dirección virtual %#x: la palabra cruza el fin de la página %d (offset %d)",
			virtual, virtual>>s.bitsOffset, offset)
	}
	return nil
}

// EscribirVirtual8 escribe 8 bytes en una dirección virtual del proceso activo.
func (s *Simulador) EscribirVirtual8(virtual, valor uint64) error {
	if err := s.verificarPalabra(virtual); err != nil {
		return err
	}
	fisica, err := s.Traducir(virtual)
	if err != nil {
		return err
	}
	if err := s.memoria.Escribir8(fisica, valor); err != nil {
		return err
	}
	pid, _ := s.espacios.PidActivo()
	s.metricasDe(pid).Escrituras++
	s.logger.Info("Escritura", "pid", pid, "dir_logica", virtual, "dir_fisica", fisica, "valor", valor)
	return nil
}

// LeerVirtual8 lee 8 bytes de una dirección virtual del proceso activo.
func (s *Simulador) LeerVirtual8(virtual uint64) (uint64, error) {
	if err := s.verificarPalabra(virtual); err != nil {
		return 0, err
	}
	fisica, err := s.Traducir(virtual)
	if err != nil {
		return 0, err
	}
	valor, err := s.memoria.Leer8(fisica)
	if err != nil {
		return 0, err
	}
	pid, _ := s.espacios.PidActivo()
	s.metricasDe(pid).Lecturas++
	s.logger.Info("Lectura", "pid", pid, "dir_logica", virtual, "dir_fisica", fisica, "valor", valor)
	return valor, nil
}
