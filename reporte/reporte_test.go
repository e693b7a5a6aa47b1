package reporte

import (
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
)

func simuladorGuia(t *testing.T) *paginacion.Simulador {
	t.Helper()
	s, err := paginacion.Nuevo(paginacion.Config{
		TamanioMemoria: 128 << 20,
		BitsOffset:     12,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Nuevo: %v", err)
	}
	if _, err := s.CambiarContexto(123); err != nil {
		t.Fatalf("CambiarContexto: %v", err)
	}
	for _, p := range []uint64{
		1<<27 + 2<<18 + 3<<9 + 4,
		123<<27 + 456<<18 + 2<<9 + 457,
		123<<27 + 456<<18 + 379<<9 + 457,
		123<<27 + 456<<18 + 379<<9 + 500,
	} {
		if _, err := s.MapearPagina(p); err != nil {
			t.Fatalf("MapearPagina: %v", err)
		}
	}
	if err := s.EscribirVirtual8(0x3df22f7c9315, 51); err != nil {
		t.Fatalf("EscribirVirtual8: %v", err)
	}
	return s
}

func TestTexto(t *testing.T) {
	texto := Texto(simuladorGuia(t).Estado())

	for _, parte := range []string{
		"Páginas de 4096 bytes (12 bits de offset), 4 niveles",
		"Marcos usados: 13 de 32768",
		"Memoria usada por tablas de páginas: 36864 bytes (9 marcos)",
		"Proceso 0 -> tabla de páginas en la dirección física 0x1000 (marco 1)\n",
		"Proceso 123 -> tabla de páginas en la dirección física 0x2000 (marco 2) [activo, CR3]",
		"Tabla de páginas de un solo nivel: 512.00 GB",
		"Entradas: 1 de 512",
		"Aciertos: 0, fallos: 1, tasa de aciertos: 0.0%",
		"PID 123: páginas mapeadas 4, traducciones 1",
	} {
		if !strings.Contains(texto, parte) {
			t.Errorf("falta %q en:\n%s", parte, texto)
		}
	}
}

func TestTextoSinTraducciones(t *testing.T) {
	texto := Texto(paginacion.Estado{TLB: paginacion.EstadoTLB{Capacidad: 512}})
	if !strings.Contains(texto, "tasa de aciertos: -") {
		t.Errorf("sin traducciones la tasa no se calcula:\n%s", texto)
	}
	if strings.Contains(texto, "Métricas por proceso") {
		t.Error("sin métricas no debería haber sección de métricas")
	}
}

func TestColorMarco(t *testing.T) {
	hoja1 := ColorMarco(paginacion.RegistroMarco{Pid: 1, Rol: paginacion.RolHoja})
	hoja2 := ColorMarco(paginacion.RegistroMarco{Pid: 2, Rol: paginacion.RolHoja})
	if hoja1 == hoja2 {
		t.Error("hojas de procesos distintos deberían tener colores distintos")
	}
	if ColorMarco(paginacion.RegistroMarco{Pid: -1, Rol: paginacion.RolHoja}) != hoja1 {
		t.Error("un pid negativo no debería romper la paleta")
	}
	if ColorMarco(paginacion.RegistroMarco{Rol: paginacion.RolRaiz}) == ColorMarco(paginacion.RegistroMarco{Rol: paginacion.RolTabla}) {
		t.Error("raíz y tabla deberían distinguirse")
	}
}

func TestDibujarMapa(t *testing.T) {
	marcos := simuladorGuia(t).MapaMarcos()
	const columnas = 4
	img := DibujarMapa(marcos, columnas)

	// 14 marcos en 4 columnas: 4 filas
	b := img.Bounds()
	if b.Dx() != 2*Margen+columnas*LadoCelda || b.Dy() != 2*Margen+4*LadoCelda+altoLeyenda {
		t.Fatalf("tamaño = %v", b)
	}

	for marco, registro := range marcos {
		x, y := PosicionCelda(marco, columnas)
		r, g, bl, _ := img.At(x+LadoCelda/2, y+LadoCelda/2).RGBA()
		esperado := ColorMarco(registro)
		if uint8(r>>8) != esperado.R || uint8(g>>8) != esperado.G || uint8(bl>>8) != esperado.B {
			t.Errorf("marco %d (%v) tiene color (%d,%d,%d), se esperaba %v", marco, registro.Rol, r>>8, g>>8, bl>>8, esperado)
		}
	}
}

func TestGuardarMapa(t *testing.T) {
	ruta := filepath.Join(t.TempDir(), "marcos.png")
	marcos := []paginacion.RegistroMarco{{Pid: -1, Rol: paginacion.RolReservado}, {Pid: 0, Rol: paginacion.RolRaiz}}
	if err := GuardarMapa(ruta, marcos, 0); err != nil {
		t.Fatalf("GuardarMapa: %v", err)
	}

	archivo, err := os.Open(ruta)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer archivo.Close()
	img, err := png.Decode(archivo)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if img.Bounds().Dx() != 2*Margen+ColumnasPorDefecto*LadoCelda {
		t.Errorf("ancho = %d", img.Bounds().Dx())
	}

	if err := GuardarMapa(filepath.Join(t.TempDir(), "no", "existe", "x.png"), marcos, 0); err == nil {
		t.Error("se esperaba error al guardar en un directorio inexistente")
	}
}
