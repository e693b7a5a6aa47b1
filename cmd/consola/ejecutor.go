package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
	"github.com/sisoputnfrba/tp-simulador-paginacion/reporte"
)

// Geometria es la forma de las direcciones de la MMU con la que se trabaja.
type Geometria struct {
	BitsOffset    uint
	TamanioPagina uint64
	Niveles       int
	EntradasTLB   int
}

// Traduccion es el resultado de traducir una dirección virtual.
type Traduccion struct {
	Fisica uint64
	Marco  uint64
	Pagina uint64
	Offset uint64
}

// Ejecutor realiza las operaciones de memoria que pide la consola, sea
// sobre un simulador propio o contra el módulo MMU.
type Ejecutor interface {
	Geometria() (Geometria, error)
	CambiarContexto(pid int) (cambio bool, cr3 uint64, err error)
	MapearPagina(pagina uint64) (uint64, error)
	Traducir(direccion uint64) (Traduccion, error)
	Leer(direccion uint64) (uint64, error)
	Escribir(direccion, valor uint64) error
	Estado() (paginacion.Estado, error)
	Volcar(pid int) (string, error)
	Mapa(archivo string) (string, error)
}

// ejecutorLocal trabaja sobre un simulador dentro del mismo proceso.
type ejecutorLocal struct {
	sim      *paginacion.Simulador
	dumpPath string
}

func nuevoEjecutorLocal(sim *paginacion.Simulador, dumpPath string) *ejecutorLocal {
	return &ejecutorLocal{sim: sim, dumpPath: dumpPath}
}

func (e *ejecutorLocal) Geometria() (Geometria, error) {
	return Geometria{
		BitsOffset:    e.sim.BitsOffset(),
		TamanioPagina: e.sim.TamanioPagina(),
		Niveles:       e.sim.Niveles(),
		EntradasTLB:   e.sim.CapacidadTLB(),
	}, nil
}

func (e *ejecutorLocal) CambiarContexto(pid int) (bool, uint64, error) {
	cambio, err := e.sim.CambiarContexto(pid)
	return cambio, e.sim.CR3(), err
}

func (e *ejecutorLocal) MapearPagina(pagina uint64) (uint64, error) {
	return e.sim.MapearPagina(pagina)
}

func (e *ejecutorLocal) Traducir(direccion uint64) (Traduccion, error) {
	fisica, err := e.sim.Traducir(direccion)
	if err != nil {
		return Traduccion{}, err
	}
	d := e.sim.Descomponer(direccion)
	return Traduccion{
		Fisica: fisica,
		Marco:  fisica / e.sim.TamanioPagina(),
		Pagina: d.Pagina,
		Offset: d.Offset,
	}, nil
}

func (e *ejecutorLocal) Leer(direccion uint64) (uint64, error) {
	return e.sim.LeerVirtual8(direccion)
}

func (e *ejecutorLocal) Escribir(direccion, valor uint64) error {
	return e.sim.EscribirVirtual8(direccion, valor)
}

func (e *ejecutorLocal) Estado() (paginacion.Estado, error) {
	return e.sim.Estado(), nil
}

func (e *ejecutorLocal) Volcar(pid int) (string, error) {
	contenido, err := e.sim.VolcarProceso(pid)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dumpPath, 0755); err != nil {
		return "", fmt.Errorf("error al crear directorio para dumps: %v", err)
	}
	ruta := filepath.Join(e.dumpPath, fmt.Sprintf("%d-%s.dmp", pid, time.Now().Format("20060102-150405")))
	if err := os.WriteFile(ruta, contenido, 0644); err != nil {
		return "", fmt.Errorf("error al escribir en archivo de dump: %v", err)
	}
	return ruta, nil
}

func (e *ejecutorLocal) Mapa(archivo string) (string, error) {
	if archivo == "" {
		if err := os.MkdirAll(e.dumpPath, 0755); err != nil {
			return "", fmt.Errorf("error al crear directorio para mapas: %v", err)
		}
		archivo = filepath.Join(e.dumpPath, fmt.Sprintf("marcos-%s.png", time.Now().Format("20060102-150405")))
	}
	if err := reporte.GuardarMapa(archivo, e.sim.MapaMarcos(), reporte.ColumnasPorDefecto); err != nil {
		return "", err
	}
	return archivo, nil
}
