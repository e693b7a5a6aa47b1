package paginacion

import "encoding/binary"

// TamanioPalabra es el ancho en bytes de una entrada de tabla y de las
// lecturas/escrituras de la memoria física.
const TamanioPalabra = 8

// MemoriaFisica simula la RAM: un buffer de bytes de tamaño fijo.
type MemoriaFisica struct {
	datos []byte
}

// NuevaMemoriaFisica crea una memoria de tamanio bytes, toda en cero.
func NuevaMemoriaFisica(tamanio uint64) *MemoriaFisica {
	return &MemoriaFisica{datos: make([]byte, tamanio)}
}

// Tamanio devuelve la cantidad de bytes de la memoria.
func (m *MemoriaFisica) Tamanio() uint64 {
	return uint64(len(m.datos))
}

// verificarRango falla si [dir, dir+n) no entra en la memoria.
func (m *MemoriaFisica) verificarRango(dir, n uint64) error {
	total := uint64(len(m.datos))
	if n > total || dir > total-n {
		return nuevoError(ErrFueraDeRango, "dirección %#x tamaño %d (memoria %d bytes)", dir, n, total)
	}
	return nil
}

// Leer8 lee un entero de 64 bits little-endian desde dir.
func (m *MemoriaFisica) Leer8(dir uint64) (uint64, error) {
	if err := m.verificarRango(dir, TamanioPalabra); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.datos[dir : dir+TamanioPalabra]), nil
}

// Escribir8 escribe valor como entero de 64 bits little-endian en dir.
func (m *MemoriaFisica) Escribir8(dir, valor uint64) error {
	if err := m.verificarRango(dir, TamanioPalabra); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.datos[dir:dir+TamanioPalabra], valor)
	return nil
}

// Limpiar pone en cero n bytes a partir de dir.
func (m *MemoriaFisica) Limpiar(dir, n uint64) error {
	if err := m.verificarRango(dir, n); err != nil {
		return err
	}
	clear(m.datos[dir : dir+n])
	return nil
}

// Leer devuelve una copia de n bytes a partir de dir.
func (m *MemoriaFisica) Leer(dir, n uint64) ([]byte, error) {
	if err := m.verificarRango(dir, n); err != nil {
		return nil, err
	}
	copia := make([]byte, n)
	copy(copia, m.datos[dir:dir+n])
	return copia, nil
}
