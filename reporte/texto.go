// Package reporte arma las salidas para personas del simulador: el resumen
// de estado en texto y el mapa de marcos en PNG.
package reporte

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
)

const gigabyte = 1 << 30

// Texto resume el estado de la memoria: marcos usados, memoria ocupada por
// tablas, tablas raíz de cada proceso y lo que ocuparía una tabla de un solo
// nivel con el mismo espacio virtual.
func Texto(e paginacion.Estado) string {
	var sb strings.Builder

	sb.WriteString("=== ESTADO DE MEMORIA ===\n")
	fmt.Fprintf(&sb, "Páginas de %d bytes (%d bits de offset), %d niveles de tablas\n",
		e.TamanioPagina, e.BitsOffset, e.Niveles)
	fmt.Fprintf(&sb, "Marcos usados: %d de %d (memoria de %d bytes)\n",
		e.MarcosAsignados, e.MarcosTotales, e.TamanioMemoria)
	fmt.Fprintf(&sb, "Memoria usada por tablas de páginas: %d bytes (%d marcos)\n", e.BytesTablas, e.MarcosTablas)
	fmt.Fprintf(&sb, "Memoria usada por páginas de datos: %d bytes (%d marcos)\n", e.BytesHojas, e.MarcosHojas)

	sb.WriteString("\n=== Tablas raíz ===\n")
	for _, espacio := range e.Espacios {
		activo := ""
		if espacio.Pid == e.PidActivo {
			activo = " [activo, CR3]"
		}
		fmt.Fprintf(&sb, "Proceso %d -> tabla de páginas en la dirección física %#x (marco %d)%s\n",
			espacio.Pid, espacio.DireccionRaiz, espacio.MarcoRaiz, activo)
	}

	fmt.Fprintf(&sb, "\nTabla de páginas de un solo nivel: %.2f GB\n", float64(e.BytesTablaUnNivel)/gigabyte)

	sb.WriteString("\n=== TLB ===\n")
	fmt.Fprintf(&sb, "Entradas: %d de %d\n", e.TLB.Entradas, e.TLB.Capacidad)
	fmt.Fprintf(&sb, "Aciertos: %d, fallos: %d, tasa de aciertos: %s\n",
		e.TLB.Aciertos, e.TLB.Fallos, tasa(e.TLB.Aciertos, e.TLB.Fallos))

	if len(e.Metricas) > 0 {
		sb.WriteString("\n=== Métricas por proceso ===\n")
		pids := make([]int, 0, len(e.Metricas))
		for pid := range e.Metricas {
			pids = append(pids, pid)
		}
		sort.Ints(pids)
		for _, pid := range pids {
			m := e.Metricas[pid]
			fmt.Fprintf(&sb, "PID %d: páginas mapeadas %d, traducciones %d (TLB %d/%d, fallidas %d), accesos a tablas %d, lecturas %d, escrituras %d\n",
				pid, m.PaginasMapeadas, m.Traducciones, m.AciertosTLB, m.FallosTLB, m.FallosTraduccion,
				m.AccesosTablasPaginas, m.Lecturas, m.Escrituras)
		}
	}

	return sb.String()
}

func tasa(aciertos, fallos uint64) string {
	total := aciertos + fallos
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(aciertos)/float64(total))
}
