package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/sisoputnfrba/tp-simulador-paginacion/utils"
)

const prompt = "mmu> "

// terminalOriginal guarda la configuración de la terminal para restaurarla
// al salir.
var terminalOriginal unix.Termios

// activarModoCrudo apaga el modo canónico y el eco; el eco y la edición de
// línea los hace term.Terminal.
func activarModoCrudo(fd uintptr) error {
	if err := termios.Tcgetattr(fd, &terminalOriginal); err != nil {
		return err
	}
	crudo := terminalOriginal
	crudo.Lflag &^= unix.ICANON | unix.ECHO
	return termios.Tcsetattr(fd, termios.TCSANOW, &crudo)
}

func restaurarTerminal(fd uintptr) {
	if err := termios.Tcsetattr(fd, termios.TCSANOW, &terminalOriginal); err != nil {
		utils.ErrorLog.Error("No se pudo restaurar la terminal", "error", err)
	}
}

// ejecutarInteractivo lee comandos de la entrada estándar hasta salir o EOF.
// Si la entrada no es una terminal las líneas se leen tal cual.
func ejecutarInteractivo(c *Consola) error {
	fd := os.Stdin.Fd()
	if !term.IsTerminal(int(fd)) {
		_, err := c.EjecutarLineas(os.Stdin, false)
		return err
	}

	if err := activarModoCrudo(fd); err != nil {
		return fmt.Errorf("error configurando la terminal: %w", err)
	}
	defer restaurarTerminal(fd)

	senales := make(chan os.Signal, 1)
	signal.Notify(senales, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(senales)
	go func() {
		if _, ok := <-senales; ok {
			restaurarTerminal(fd)
			os.Exit(130)
		}
	}()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, prompt)
	c.salida = t

	fmt.Fprintln(t, "consola del simulador de paginación, escribí ayuda para ver los comandos")
	for {
		linea, err := t.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		err = c.Ejecutar(linea)
		if errors.Is(err, errSalir) {
			return nil
		}
		if err != nil {
			c.mostrarError(err)
		}
	}
}
