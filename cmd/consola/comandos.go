package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
	"github.com/sisoputnfrba/tp-simulador-paginacion/reporte"
	"github.com/sisoputnfrba/tp-simulador-paginacion/utils"
)

// errSalir lo devuelve el comando salir para cortar la lectura.
var errSalir = errors.New("salir")

// Consola interpreta comandos de texto y los ejecuta sobre un Ejecutor.
type Consola struct {
	ejecutor Ejecutor
	salida   io.Writer
}

func NuevaConsola(ejecutor Ejecutor, salida io.Writer) *Consola {
	return &Consola{ejecutor: ejecutor, salida: salida}
}

type comando struct {
	uso         string
	descripcion string
	argumentos  int
	ejecutar    func(c *Consola, args []string) error
}

var comandos map[string]comando

func init() {
	comandos = map[string]comando{
		"cambiar":   {"cambiar <pid>", "activa el espacio de direcciones de pid", 1, (*Consola).cambiar},
		"mapear":    {"mapear <página>", "mapea una página virtual del proceso activo", 1, (*Consola).mapear},
		"traducir":  {"traducir <dirección>", "traduce una dirección virtual a física", 1, (*Consola).traducir},
		"escribir":  {"escribir <dirección> <valor>", "escribe 8 bytes en una dirección virtual", 2, (*Consola).escribir},
		"leer":      {"leer <dirección>", "lee 8 bytes de una dirección virtual", 1, (*Consola).leer},
		"estado":    {"estado", "muestra el estado de la memoria", 0, (*Consola).estado},
		"volcar":    {"volcar <pid>", "guarda un dump con los marcos de pid", 1, (*Consola).volcar},
		"mapa":      {"mapa [archivo.png]", "dibuja el mapa de marcos", 0, (*Consola).mapa},
		"direccion": {"direccion <dirección>", "descompone una dirección en página, índices y offset", 1, (*Consola).direccion},
		"host":      {"host", "muestra la página del sistema y direcciones reales", 0, (*Consola).host},
		"escenario": {"escenario", "ejecuta el ejemplo de la figura 3 de la guía", 0, (*Consola).escenario},
		"ayuda":     {"ayuda", "lista los comandos", 0, (*Consola).ayuda},
		"salir":     {"salir", "termina la consola", 0, func(*Consola, []string) error { return errSalir }},
	}
}

// Ejecutar interpreta una línea. Las líneas vacías y las que empiezan con
// # se ignoran. Devuelve errSalir si la línea pide terminar.
func (c *Consola) Ejecutar(linea string) error {
	linea = strings.TrimSpace(linea)
	if linea == "" || strings.HasPrefix(linea, "#") {
		return nil
	}

	partes := strings.Fields(linea)
	nombre, args := strings.ToLower(partes[0]), partes[1:]
	cmd, existe := comandos[nombre]
	if !existe {
		return fmt.Errorf("comando desconocido %q (ver ayuda)", nombre)
	}
	if len(args) < cmd.argumentos {
		return fmt.Errorf("uso: %s", cmd.uso)
	}
	// con un solo argumento numérico se admiten espacios dentro de la expresión
	if cmd.argumentos == 1 && len(args) > 1 {
		args = []string{strings.Join(args, "")}
	}

	utils.InfoLog.Debug("Comando", "linea", linea)
	return cmd.ejecutar(c, args)
}

// EjecutarLineas ejecuta cada línea de r. Los errores se muestran y no
// cortan la ejecución; devuelve cuántas líneas fallaron. Con eco cada línea
// se muestra antes de ejecutarla.
func (c *Consola) EjecutarLineas(r io.Reader, eco bool) (int, error) {
	fallos := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		linea := scanner.Text()
		if eco && strings.TrimSpace(linea) != "" && !strings.HasPrefix(strings.TrimSpace(linea), "#") {
			fmt.Fprintf(c.salida, "> %s\n", linea)
		}
		err := c.Ejecutar(linea)
		if errors.Is(err, errSalir) {
			break
		}
		if err != nil {
			fallos++
			c.mostrarError(err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fallos, fmt.Errorf("error leyendo comandos: %w", err)
	}
	return fallos, nil
}

func (c *Consola) mostrarError(err error) {
	fmt.Fprintf(c.salida, "error: %v\n", err)
	if pila := paginacion.Pila(err); pila != "" {
		utils.ErrorLog.Debug("Traza", "pila", pila)
	}
}

func pid(texto string) (int, error) {
	n, err := evaluarNumero(texto)
	if err != nil {
		return 0, err
	}
	if n > 1<<31-1 {
		return 0, fmt.Errorf("pid %d fuera de rango", n)
	}
	return int(n), nil
}

func (c *Consola) cambiar(args []string) error {
	p, err := pid(args[0])
	if err != nil {
		return err
	}
	cambio, cr3, err := c.ejecutor.CambiarContexto(p)
	if err != nil {
		return err
	}
	if !cambio {
		fmt.Fprintf(c.salida, "aviso: el proceso %d ya estaba activo\n", p)
		return nil
	}
	fmt.Fprintf(c.salida, "proceso %d activo, CR3 = marco %d\n", p, cr3)
	return nil
}

func (c *Consola) mapear(args []string) error {
	pagina, err := evaluarNumero(args[0])
	if err != nil {
		return err
	}
	marco, err := c.ejecutor.MapearPagina(pagina)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.salida, "página %d -> marco %d\n", pagina, marco)
	return nil
}

func (c *Consola) traducir(args []string) error {
	dir, err := evaluarNumero(args[0])
	if err != nil {
		return err
	}
	t, err := c.ejecutor.Traducir(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.salida, "%#x -> %#x (página %d en marco %d, offset %d)\n", dir, t.Fisica, t.Pagina, t.Marco, t.Offset)
	return nil
}

func (c *Consola) escribir(args []string) error {
	dir, err := evaluarNumero(args[0])
	if err != nil {
		return err
	}
	valor, err := evaluarNumero(args[1])
	if err != nil {
		return err
	}
	if err := c.ejecutor.Escribir(dir, valor); err != nil {
		return err
	}
	fmt.Fprintf(c.salida, "[%#x] <- %d\n", dir, valor)
	return nil
}

func (c *Consola) leer(args []string) error {
	dir, err := evaluarNumero(args[0])
	if err != nil {
		return err
	}
	valor, err := c.ejecutor.Leer(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.salida, "[%#x] = %d\n", dir, valor)
	return nil
}

func (c *Consola) estado([]string) error {
	e, err := c.ejecutor.Estado()
	if err != nil {
		return err
	}
	fmt.Fprint(c.salida, reporte.Texto(e))
	return nil
}

func (c *Consola) volcar(args []string) error {
	p, err := pid(args[0])
	if err != nil {
		return err
	}
	ruta, err := c.ejecutor.Volcar(p)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.salida, "dump del proceso %d en %s\n", p, ruta)
	return nil
}

func (c *Consola) mapa(args []string) error {
	archivo := ""
	if len(args) > 0 {
		archivo = args[0]
	}
	ruta, err := c.ejecutor.Mapa(archivo)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.salida, "mapa de marcos en %s\n", ruta)
	return nil
}

func (c *Consola) direccion(args []string) error {
	dir, err := evaluarNumero(args[0])
	if err != nil {
		return err
	}
	g, err := c.ejecutor.Geometria()
	if err != nil {
		return err
	}
	d, err := paginacion.DescomponerDireccion(dir, g.BitsOffset)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.salida, d)
	escribirDescomposicion(c.salida, dir, g.BitsOffset)
	return nil
}

func (c *Consola) host([]string) error {
	describirHost(c.salida)
	return nil
}

func (c *Consola) ayuda([]string) error {
	nombres := make([]string, 0, len(comandos))
	for nombre := range comandos {
		nombres = append(nombres, nombre)
	}
	sort.Strings(nombres)
	for _, nombre := range nombres {
		fmt.Fprintf(c.salida, "  %-30s %s\n", comandos[nombre].uso, comandos[nombre].descripcion)
	}
	fmt.Fprintln(c.salida, "los números admiten 0x, 0b, _ y expresiones como (123<<27)+(456<<18)+(379<<9)+457")
	return nil
}
