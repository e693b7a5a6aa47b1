package main

import (
	"fmt"
	"strings"
)

// escenarioGuia reproduce la figura 3 de la guía: proceso 123, memoria de
// 128 MB y páginas de 4 KB. Es el mismo contenido que scripts/escenario.txt.
var escenarioGuia = []string{
	"cambiar 123",
	"mapear (1<<27)+(2<<18)+(3<<9)+4",
	"mapear (123<<27)+(456<<18)+(2<<9)+457",
	"mapear (123<<27)+(456<<18)+(379<<9)+457",
	"mapear (123<<27)+(456<<18)+(379<<9)+500",
	"direccion 0x3df22f7c9315",
	"traducir 0x3df22f7c9315",
	"escribir 0x3df22f7c9315 51",
	"leer 0x3df22f7c9315",
	"estado",
}

func (c *Consola) escenario([]string) error {
	g, err := c.ejecutor.Geometria()
	if err != nil {
		return err
	}
	if g.BitsOffset != 12 {
		fmt.Fprintf(c.salida, "aviso: la guía usa páginas de 4096 bytes y la MMU usa %d\n", g.TamanioPagina)
	}

	fallos, err := c.EjecutarLineas(strings.NewReader(strings.Join(escenarioGuia, "\n")), true)
	if err != nil {
		return err
	}
	if fallos > 0 {
		return fmt.Errorf("el escenario terminó con %d errores", fallos)
	}
	return nil
}
