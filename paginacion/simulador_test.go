package paginacion

import (
	"errors"
	"testing"
)

func nuevoSimulador(t *testing.T, cfg Config) *Simulador {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = loggerSilencioso()
	}
	s, err := Nuevo(cfg)
	if err != nil {
		t.Fatalf("Nuevo(%+v): %v", cfg, err)
	}
	return s
}

// Figura 3 de la guía: proceso 123, memoria de 128 MB y páginas de 4 KB.
func TestEscenarioGuia(t *testing.T) {
	s := nuevoSimulador(t, Config{TamanioMemoria: 128 << 20, BitsOffset: 12})

	if s.PidActivo() != 0 {
		t.Fatalf("PidActivo inicial = %d, se esperaba 0", s.PidActivo())
	}

	if cambio, err := s.CambiarContexto(123); err != nil || !cambio {
		t.Fatalf("CambiarContexto(123) = %v, %v", cambio, err)
	}

	pagina := uint64(123<<27 + 456<<18 + 379<<9 + 457)
	if pagina != 16628512713 {
		t.Fatalf("pagina = %d", pagina)
	}
	const va = 0x3df22f7c9315
	if va != 68110388073237 || va != pagina<<12+789 {
		t.Fatalf("va = %d", uint64(va))
	}

	for _, p := range []uint64{
		1<<27 + 2<<18 + 3<<9 + 4,
		123<<27 + 456<<18 + 2<<9 + 457,
		pagina,
		123<<27 + 456<<18 + 379<<9 + 500,
	} {
		if _, err := s.MapearPagina(p); err != nil {
			t.Fatalf("MapearPagina(%d): %v", p, err)
		}
	}

	d := s.Descomponer(va)
	if d.Pagina != pagina || d.Offset != 789 {
		t.Errorf("Descomponer = %+v", d)
	}

	fisica, err := s.Traducir(va)
	if err != nil {
		t.Fatalf("Traducir: %v", err)
	}
	// raíces 1 (pid 0) y 2 (pid 123); la tercera página usa la tabla nueva 11 y la hoja 12
	if fisica != 12*4096+789 {
		t.Errorf("Traducir = %d, se esperaba %d", fisica, 12*4096+789)
	}

	if err := s.EscribirVirtual8(va, 51); err != nil {
		t.Fatalf("EscribirVirtual8: %v", err)
	}
	valor, err := s.LeerVirtual8(va)
	if err != nil || valor != 51 {
		t.Errorf("LeerVirtual8 = %d, %v; se esperaba 51", valor, err)
	}
	if fisico, _ := s.LeerFisica8(fisica); fisico != 51 {
		t.Errorf("LeerFisica8 = %d", fisico)
	}

	estado := s.Estado()
	if estado.MarcosAsignados != 13 {
		t.Errorf("MarcosAsignados = %d, se esperaban 13", estado.MarcosAsignados)
	}
	if estado.MarcosTablas != 9 || estado.MarcosHojas != 4 {
		t.Errorf("tablas = %d hojas = %d", estado.MarcosTablas, estado.MarcosHojas)
	}
	if estado.BytesTablas != 9*4096 {
		t.Errorf("BytesTablas = %d", estado.BytesTablas)
	}
	if estado.BytesTablaUnNivel != (1<<36)*8 {
		t.Errorf("BytesTablaUnNivel = %d", estado.BytesTablaUnNivel)
	}
	if len(estado.Espacios) != 2 || estado.Espacios[1].Pid != 123 || estado.Espacios[1].DireccionRaiz != 2*4096 {
		t.Errorf("Espacios = %+v", estado.Espacios)
	}
}

func TestIdaYVuelta(t *testing.T) {
	for _, bits := range []uint{12, 21} {
		s := nuevoSimulador(t, Config{TamanioMemoria: 64 << bits, BitsOffset: bits})
		paginas := []uint64{0, 1, 511, 512, ComponerPagina(7, 300, 2), 1 << 20}
		for _, p := range paginas {
			if _, err := s.MapearPagina(p); err != nil {
				t.Fatalf("bits %d MapearPagina(%d): %v", bits, p, err)
			}
		}

		tamanio := s.TamanioPagina()
		for i, p := range paginas {
			for _, offset := range []uint64{0, 8, tamanio - 8} {
				va := p<<bits + offset
				valor := uint64(i)<<32 | offset
				if err := s.EscribirVirtual8(va, valor); err != nil {
					t.Fatalf("bits %d EscribirVirtual8(%#x): %v", bits, va, err)
				}
				leido, err := s.LeerVirtual8(va)
				if err != nil || leido != valor {
					t.Errorf("bits %d LeerVirtual8(%#x) = %#x, %v; se esperaba %#x", bits, va, leido, err, valor)
				}
			}
		}
	}
}

func TestDosNiveles(t *testing.T) {
	if _, err := Nuevo(Config{TamanioMemoria: 1 << 30, BitsOffset: 30, Logger: loggerSilencioso()}); !errors.Is(err, ErrConfiguracionInvalida) {
		t.Errorf("una memoria de un solo marco debería rechazarse: %v", err)
	}

	c := NuevoCaminante(nil, nil, 1<<30, 2, loggerSilencioso())
	va := ComponerPagina(200, 17)<<30 | 12345
	indices := c.Indices(va >> 30)
	if indices[0] != 200 || indices[1] != 17 || va&(1<<30-1) != 12345 {
		t.Errorf("Indices = %v", indices)
	}
}

// Con marcos de 1 GB la memoria de tres marcos alcanza para la raíz del
// proceso 0 y una tabla, pero no para la hoja.
func TestDosNivelesMarcosDeUnGiga(t *testing.T) {
	if testing.Short() {
		t.Skip("reserva 3 GB de memoria simulada")
	}
	s := nuevoSimulador(t, Config{TamanioMemoria: 3 << 30, BitsOffset: 30})
	if s.Niveles() != 2 || s.TamanioPagina() != 1<<30 {
		t.Fatalf("niveles = %d tamaño de página = %d", s.Niveles(), s.TamanioPagina())
	}

	pagina := ComponerPagina(200, 17)
	if _, err := s.MapearPagina(pagina); !errors.Is(err, ErrSinMarcos) {
		t.Fatalf("MapearPagina error = %v, se esperaba ErrSinMarcos", err)
	}
	if e := s.Estado(); e.MarcosAsignados != 1 || e.MarcosTablas != 1 {
		t.Errorf("asignados = %d tablas = %d: solo debería estar la raíz", e.MarcosAsignados, e.MarcosTablas)
	}
	if _, err := s.Traducir(pagina << 30); !errors.Is(err, ErrPaginaNoMapeada) {
		t.Errorf("Traducir error = %v", err)
	}
}

func TestPalabraQueCruzaLaPagina(t *testing.T) {
	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12})
	if _, err := s.MapearPagina(0); err != nil {
		t.Fatalf("MapearPagina(0): %v", err)
	}
	otra := ComponerPagina(0, 0, 1, 0)
	marco, err := s.MapearPagina(otra)
	if err != nil {
		t.Fatalf("MapearPagina(otra): %v", err)
	}
	asignados := s.Estado().MarcosAsignados

	for _, offset := range []uint64{4089, 4094, 4095} {
		if err := s.EscribirVirtual8(offset, 0xdeadbeef00); !errors.Is(err, ErrFueraDeRango) {
			t.Errorf("EscribirVirtual8(%d) error = %v, se esperaba ErrFueraDeRango", offset, err)
		}
		if _, err := s.LeerVirtual8(offset); !errors.Is(err, ErrFueraDeRango) {
			t.Errorf("LeerVirtual8(%d) error = %v, se esperaba ErrFueraDeRango", offset, err)
		}
	}
	if err := s.EscribirVirtual8(4088, 1); err != nil {
		t.Errorf("la última palabra de la página debería poder escribirse: %v", err)
	}

	// sin la TLB la traducción sale de las tablas, que siguen intactas
	s.TLB().InvalidarTodo()
	fisica, err := s.Traducir(otra << 12)
	if err != nil || fisica != marco*4096 {
		t.Errorf("Traducir(otra) = %#x, %v; se esperaba %#x", fisica, err, marco*4096)
	}
	if s.Estado().MarcosAsignados != asignados {
		t.Errorf("marcos asignados = %d, se esperaban %d", s.Estado().MarcosAsignados, asignados)
	}
}

func TestMapearSinMarcosNoDejaTablas(t *testing.T) {
	// marco reservado, raíz del proceso 0 y tres libres: faltan uno para la hoja
	s := nuevoSimulador(t, Config{TamanioMemoria: 5 * 4096, BitsOffset: 12})
	antes := s.Estado()

	if _, err := s.MapearPagina(ComponerPagina(1, 1, 1, 1)); !errors.Is(err, ErrSinMarcos) {
		t.Fatalf("error = %v, se esperaba ErrSinMarcos", err)
	}
	despues := s.Estado()
	if despues.MarcosAsignados != antes.MarcosAsignados || despues.BytesTablas != antes.BytesTablas {
		t.Errorf("asignados %d -> %d, bytes de tablas %d -> %d",
			antes.MarcosAsignados, despues.MarcosAsignados, antes.BytesTablas, despues.BytesTablas)
	}

	// los marcos siguen libres para otro proceso
	if _, err := s.CambiarContexto(1); err != nil {
		t.Errorf("CambiarContexto(1): %v", err)
	}
}

func TestTraduccionFriaYCaliente(t *testing.T) {
	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12})
	pagina := ComponerPagina(1, 2, 3, 4)
	_, _ = s.MapearPagina(pagina)
	va := pagina<<12 | 0x123

	fria, err := s.Traducir(va)
	if err != nil {
		t.Fatalf("Traducir en frío: %v", err)
	}
	if s.TLB().Len() != 1 {
		t.Fatalf("la TLB debería tener la traducción")
	}

	accesos := s.caminante.AccesosTablas()
	caliente, err := s.Traducir(va)
	if err != nil {
		t.Fatalf("Traducir en caliente: %v", err)
	}
	if fria != caliente {
		t.Errorf("frío = %#x caliente = %#x", fria, caliente)
	}
	if s.caminante.AccesosTablas() != accesos {
		t.Error("un acierto de TLB no debería recorrer tablas")
	}

	s.TLB().InvalidarTodo()
	otraVez, _ := s.Traducir(va)
	if otraVez != fria {
		t.Errorf("tras invalidar = %#x, se esperaba %#x", otraVez, fria)
	}

	m := s.Estado().Metricas[0]
	if m.AciertosTLB != 1 || m.FallosTLB != 2 || m.AccesosTablasPaginas == 0 {
		t.Errorf("métricas = %+v", m)
	}
}

func TestCambioDeContextoInvalidaTLB(t *testing.T) {
	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12})
	pagina := uint64(42)
	_, _ = s.MapearPagina(pagina)
	_, _ = s.Traducir(pagina << 12)
	if _, ok := s.TLB().Buscar(0, pagina); !ok {
		t.Fatal("la traducción debería estar cacheada")
	}

	_, _ = s.CambiarContexto(1)
	if s.TLB().Len() != 0 {
		t.Errorf("Len = %d tras cambiar de contexto", s.TLB().Len())
	}

	// al volver al proceso 0 la traducción es un fallo de TLB
	_, _ = s.CambiarContexto(0)
	fallos := s.TLB().Estadisticas().Fallos
	if _, err := s.Traducir(pagina << 12); err != nil {
		t.Fatalf("Traducir: %v", err)
	}
	if s.TLB().Estadisticas().Fallos != fallos+1 {
		t.Error("la traducción debería haber fallado en la TLB")
	}
}

func TestCambioDeContextoRedundante(t *testing.T) {
	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12})
	_, _ = s.MapearPagina(1)
	_, _ = s.Traducir(1 << 12)
	marcos := s.Estado().MarcosAsignados
	raiz := s.CR3()

	cambio, err := s.CambiarContexto(0)
	if err != nil || cambio {
		t.Fatalf("CambiarContexto(0) = %v, %v; se esperaba false, nil", cambio, err)
	}
	if s.TLB().Len() != 1 {
		t.Error("un cambio redundante no debería invalidar la TLB")
	}
	if s.Estado().MarcosAsignados != marcos || s.CR3() != raiz {
		t.Error("un cambio redundante no debería asignar ni mover la raíz")
	}
}

func TestCadaProcesoTieneSuEspacio(t *testing.T) {
	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12})
	_, _ = s.MapearPagina(7)
	_ = s.EscribirVirtual8(7<<12, 1111)

	_, _ = s.CambiarContexto(9)
	if _, err := s.Traducir(7 << 12); !errors.Is(err, ErrPaginaNoMapeada) {
		t.Fatalf("la página 7 no existe en el pid 9: %v", err)
	}
	_, _ = s.MapearPagina(7)
	_ = s.EscribirVirtual8(7<<12, 9999)

	_, _ = s.CambiarContexto(0)
	if v, _ := s.LeerVirtual8(7 << 12); v != 1111 {
		t.Errorf("pid 0 lee %d, se esperaba 1111", v)
	}
	raiz0, _ := s.espacios.Raiz(0)
	if s.CR3() != raiz0 {
		t.Errorf("CR3 = %d, raíz del pid 0 = %d", s.CR3(), raiz0)
	}
}

func TestMapearPaginaDosVeces(t *testing.T) {
	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12})
	if _, err := s.MapearPagina(1234); err != nil {
		t.Fatalf("primer MapearPagina: %v", err)
	}
	_, err := s.MapearPagina(1234)
	if !errors.Is(err, ErrPaginaYaMapeada) {
		t.Fatalf("segundo MapearPagina error = %v", err)
	}
	if TipoError(err) != "ya_mapeada" {
		t.Errorf("TipoError = %q", TipoError(err))
	}

	// en otro proceso la misma página se puede mapear
	_, _ = s.CambiarContexto(2)
	if _, err := s.MapearPagina(1234); err != nil {
		t.Errorf("MapearPagina en pid 2: %v", err)
	}
}

func TestTraducirPaginaNoMapeada(t *testing.T) {
	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12})
	_, _ = s.MapearPagina(ComponerPagina(0, 0, 0, 1))

	for _, va := range []uint64{0, 2 << 12, 0x3df22f7c9315} {
		fisica, err := s.Traducir(va)
		if !errors.Is(err, ErrPaginaNoMapeada) {
			t.Errorf("Traducir(%#x) = %#x, %v; se esperaba ErrPaginaNoMapeada", va, fisica, err)
		}
		if err := s.EscribirVirtual8(va, 1); !errors.Is(err, ErrPaginaNoMapeada) {
			t.Errorf("EscribirVirtual8(%#x) error = %v", va, err)
		}
		if _, err := s.LeerVirtual8(va); !errors.Is(err, ErrPaginaNoMapeada) {
			t.Errorf("LeerVirtual8(%#x) error = %v", va, err)
		}
	}

	if v, _ := s.LeerFisica8(0); v != 0 {
		t.Errorf("el marco 0 no debería tocarse: %d", v)
	}
	if s.TLB().Len() != 0 {
		t.Error("un fallo de traducción no debería cachearse")
	}
}

func TestCapacidadTLB(t *testing.T) {
	const capacidad = 8
	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12, EntradasTLB: capacidad})

	for p := uint64(0); p < 3*capacidad; p++ {
		if _, err := s.MapearPagina(p); err != nil {
			t.Fatalf("MapearPagina(%d): %v", p, err)
		}
		if _, err := s.Traducir(p << 12); err != nil {
			t.Fatalf("Traducir: %v", err)
		}
		if s.TLB().Len() > capacidad {
			t.Fatalf("Len = %d supera la capacidad", s.TLB().Len())
		}
	}

	entradas := s.TLB().Entradas()
	if len(entradas) != capacidad || entradas[0].Pagina != 2*capacidad {
		t.Errorf("entradas = %+v", entradas)
	}
}

func TestCapacidadTLBPorDefecto(t *testing.T) {
	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12})
	if s.CapacidadTLB() != 512 {
		t.Errorf("CapacidadTLB = %d", s.CapacidadTLB())
	}
	sinTLB := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12, EntradasTLB: -1})
	_, _ = sinTLB.MapearPagina(3)
	_, _ = sinTLB.Traducir(3 << 12)
	if sinTLB.CapacidadTLB() != 0 || sinTLB.TLB().Len() != 0 {
		t.Errorf("TLB deshabilitada: capacidad = %d len = %d", sinTLB.CapacidadTLB(), sinTLB.TLB().Len())
	}
}

func TestSinMarcosAlCambiarContexto(t *testing.T) {
	// marco 0 reservado y marco 1 para la raíz del pid 0
	s := nuevoSimulador(t, Config{TamanioMemoria: 2 * 4096, BitsOffset: 12})
	cambio, err := s.CambiarContexto(5)
	if !errors.Is(err, ErrSinMarcos) || cambio {
		t.Fatalf("CambiarContexto(5) = %v, %v", cambio, err)
	}
	if s.PidActivo() != 0 {
		t.Errorf("el pid activo no debería cambiar: %d", s.PidActivo())
	}
}

func TestVolcarProceso(t *testing.T) {
	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 20, BitsOffset: 12})
	_, _ = s.CambiarContexto(3)
	_, _ = s.MapearPagina(0)
	_ = s.EscribirVirtual8(16, 0xabcdef)

	volcado, err := s.VolcarProceso(3)
	if err != nil {
		t.Fatalf("VolcarProceso: %v", err)
	}
	// raíz + 3 tablas + hoja
	if len(volcado) != 5*4096 {
		t.Fatalf("len = %d", len(volcado))
	}
	hoja := volcado[4*4096:]
	if hoja[16] != 0xef || hoja[17] != 0xcd || hoja[18] != 0xab {
		t.Errorf("hoja = %x", hoja[16:24])
	}

	if _, err := s.VolcarProceso(77); !errors.Is(err, ErrProcesoInexistente) {
		t.Errorf("VolcarProceso(77) error = %v", err)
	}
}

func TestDescomponerDireccion(t *testing.T) {
	d, err := DescomponerDireccion(0x3df22f7c9315, 12)
	if err != nil {
		t.Fatalf("DescomponerDireccion: %v", err)
	}
	if d.Pagina != 16628512713 || d.Offset != 789 || len(d.Indices) != 4 ||
		d.Indices[0] != 123 || d.Indices[1] != 456 || d.Indices[2] != 379 || d.Indices[3] != 457 {
		t.Errorf("Direccion = %+v", d)
	}
	if d.String() != "0x3df22f7c9315 = página 16628512713 (índices 123|456|379|457) + offset 789" {
		t.Errorf("String() = %q", d.String())
	}

	s := nuevoSimulador(t, Config{TamanioMemoria: 1 << 24, BitsOffset: 21})
	va := ComponerPagina(3, 4, 5)<<21 | 77
	if got, _ := DescomponerDireccion(va, 21); got.String() != s.Descomponer(va).String() {
		t.Errorf("DescomponerDireccion = %v, Descomponer = %v", got, s.Descomponer(va))
	}

	if _, err := DescomponerDireccion(1, 13); !errors.Is(err, ErrConfiguracionInvalida) {
		t.Errorf("error = %v", err)
	}
}
