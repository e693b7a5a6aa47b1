package main

import (
	"fmt"
	"io"
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"
)

var variableGlobal uint64

// paginaHost devuelve el tamaño de página del sistema y cuántos bits de
// offset implica.
func paginaHost() (tamanio int, bits uint) {
	tamanio = unix.Getpagesize()
	for p := tamanio - 1; p != 0; p /= 2 {
		bits++
	}
	return tamanio, bits
}

// escribirDescomposicion muestra dir como página * tamaño + offset.
func escribirDescomposicion(w io.Writer, dir uint64, bits uint) {
	tamanio := uint64(1) << bits
	fmt.Fprintf(w, "hexadecimal: %#x\n", dir)
	fmt.Fprintf(w, "decimal: %d * %d + %d = %d\n", dir>>bits, tamanio, dir&(tamanio-1), dir)
}

// describirHost muestra la página del sistema y descompone direcciones
// virtuales reales de este proceso.
func describirHost(w io.Writer) {
	tamanio, bits := paginaHost()
	fmt.Fprintf(w, "este sistema usa %d bits de offset en cada dirección virtual\n", bits)
	fmt.Fprintf(w, "el tamaño de página es 2^%d = %d bytes\n", bits, tamanio)

	enPila := [2]int64{12, 23}
	enHeap := make([]int64, 4)
	direcciones := []struct {
		nombre string
		dir    uintptr
	}{
		{"la variable global", uintptr(unsafe.Pointer(&variableGlobal))},
		{"la función describirHost", reflect.ValueOf(describirHost).Pointer()},
		{"un arreglo local", uintptr(unsafe.Pointer(&enPila))},
		{"un arreglo en el heap", uintptr(unsafe.Pointer(&enHeap[0]))},
	}
	for _, d := range direcciones {
		fmt.Fprintf(w, "\ndirección virtual del primer byte de %s:\n", d.nombre)
		escribirDescomposicion(w, uint64(d.dir), bits)
	}
}
