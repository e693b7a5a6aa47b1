package reporte

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
)

// ColumnasPorDefecto es el ancho del mapa en celdas.
const ColumnasPorDefecto = 32

const (
	LadoCelda   = 14
	Margen      = 8
	altoLeyenda = 20
)

var (
	colorFondo     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorReservado = color.RGBA{0x80, 0x80, 0x80, 0xff}
	colorRaiz      = color.RGBA{0xb0, 0x1c, 0x1c, 0xff}
	colorTabla     = color.RGBA{0xf0, 0x8c, 0x1a, 0xff}
	colorLibre     = color.RGBA{0xe6, 0xe6, 0xe6, 0xff}

	// las hojas toman un color por pid
	paletaHojas = []color.RGBA{
		{0x1f, 0x77, 0xb4, 0xff},
		{0x2c, 0xa0, 0x2c, 0xff},
		{0x94, 0x67, 0xbd, 0xff},
		{0x17, 0xbe, 0xcf, 0xff},
		{0x8c, 0x56, 0x4b, 0xff},
		{0xbc, 0xbd, 0x22, 0xff},
	}
)

// ColorMarco devuelve el color de la celda de un marco según su rol.
func ColorMarco(r paginacion.RegistroMarco) color.RGBA {
	switch r.Rol {
	case paginacion.RolReservado:
		return colorReservado
	case paginacion.RolRaiz:
		return colorRaiz
	case paginacion.RolTabla:
		return colorTabla
	case paginacion.RolHoja:
		pid := r.Pid
		if pid < 0 {
			pid = -pid
		}
		return paletaHojas[pid%len(paletaHojas)]
	default:
		return colorLibre
	}
}

// PosicionCelda devuelve la esquina superior izquierda de la celda del marco.
func PosicionCelda(marco, columnas int) (x, y int) {
	return Margen + (marco%columnas)*LadoCelda, Margen + (marco/columnas)*LadoCelda
}

func dibujar(marcos []paginacion.RegistroMarco, columnas int) *gg.Context {
	if columnas <= 0 {
		columnas = ColumnasPorDefecto
	}
	filas := (len(marcos) + columnas - 1) / columnas
	if filas == 0 {
		filas = 1
	}

	ancho := 2*Margen + columnas*LadoCelda
	alto := 2*Margen + filas*LadoCelda + altoLeyenda

	dc := gg.NewContext(ancho, alto)
	dc.SetColor(colorFondo)
	dc.Clear()

	for marco, registro := range marcos {
		x, y := PosicionCelda(marco, columnas)
		dc.DrawRectangle(float64(x), float64(y), LadoCelda-1, LadoCelda-1)
		dc.SetColor(ColorMarco(registro))
		dc.Fill()
	}

	dc.SetColor(color.Black)
	dc.DrawString(fmt.Sprintf("%d marcos: gris reservado, rojo raíz, naranja tabla", len(marcos)),
		Margen, float64(alto-Margen))
	return dc
}

// DibujarMapa arma una imagen con una celda por marco asignado, en orden de
// número de marco y de a columnas celdas por fila.
func DibujarMapa(marcos []paginacion.RegistroMarco, columnas int) image.Image {
	return dibujar(marcos, columnas).Image()
}

// GuardarMapa dibuja el mapa y lo guarda como PNG en ruta.
func GuardarMapa(ruta string, marcos []paginacion.RegistroMarco, columnas int) error {
	if err := dibujar(marcos, columnas).SavePNG(ruta); err != nil {
		return fmt.Errorf("error guardando mapa de marcos en %s: %w", ruta, err)
	}
	return nil
}
