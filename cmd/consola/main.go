package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
	"github.com/sisoputnfrba/tp-simulador-paginacion/utils"
)

var mmuClient *utils.HTTPClient

// esperaReintento separa los intentos de conexión con la MMU.
var esperaReintento = 2 * time.Second

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Uso: %s <archivo_configuracion> [script]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ejemplo: %s configs/consola-config.json scripts/escenario.txt\n", os.Args[0])
		os.Exit(1)
	}

	utils.InicializarLogger("INFO", "Consola")

	rutaConfig := os.Args[1]
	if _, err := os.Stat(rutaConfig); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: El archivo de configuración no existe: %s\n", rutaConfig)
		os.Exit(1)
	}
	config = utils.CargarConfiguracion[ConsolaConfig](rutaConfig)

	utils.InicializarLoggerEn(os.Stdout, config.LogLevel, config.LogFormato, "Consola")
	utils.InfoLog.Info("Configuración cargada", "nivel_log", config.LogLevel, "modo", config.Modo, "config_path", rutaConfig)

	ejecutor, err := crearEjecutor()
	if err != nil {
		utils.ErrorLog.Error("No se pudo preparar la consola", "modo", config.Modo, "error", err)
		os.Exit(1)
	}
	consola := NuevaConsola(ejecutor, os.Stdout)

	if len(os.Args) >= 3 {
		os.Exit(ejecutarScript(consola, os.Args[2]))
	}

	if err := ejecutarInteractivo(consola); err != nil {
		utils.ErrorLog.Error("Error en la consola", "error", err)
		os.Exit(1)
	}
}

func crearEjecutor() (Ejecutor, error) {
	switch config.Modo {
	case ModoLocal, "":
		sim, err := paginacion.Nuevo(config.configSimulador(utils.InfoLog))
		if err != nil {
			return nil, err
		}
		return nuevoEjecutorLocal(sim, config.DumpPath), nil

	case ModoRemoto:
		mmuClient = utils.NewHTTPClient(config.IPMMU, config.PuertoMMU, "Consola->MMU")
		if err := conectarConReintentos(mmuClient, 5); err != nil {
			return nil, err
		}
		return nuevoEjecutorRemoto(mmuClient), nil

	default:
		return nil, fmt.Errorf("MODO %q desconocido (se admite %q o %q)", config.Modo, ModoLocal, ModoRemoto)
	}
}

func conectarConReintentos(c *utils.HTTPClient, intentos int) error {
	utils.InfoLog.Info("Iniciando conexión", "destino", "MMU")

	var err error
	for i := 1; i <= intentos; i++ {
		if err = c.VerificarConexion(); err == nil {
			utils.InfoLog.Info("Conexión establecida", "destino", "MMU")
			return nil
		}
		if i == intentos {
			break
		}

		utils.InfoLog.Warn("Reintentando conexión",
			"destino", "MMU",
			"intento", i,
			"próximo_en", esperaReintento.String())
		time.Sleep(esperaReintento)
	}
	return err
}

// ejecutarScript corre los comandos del archivo y devuelve el código de
// salida del proceso.
func ejecutarScript(c *Consola, ruta string) int {
	archivo, err := os.Open(ruta)
	if err != nil {
		utils.ErrorLog.Error("Error abriendo script", "archivo", ruta, "error", err)
		return 1
	}
	defer archivo.Close()

	fallos, err := c.EjecutarLineas(archivo, true)
	if err != nil {
		utils.ErrorLog.Error("Error leyendo script", "archivo", ruta, "error", err)
		return 1
	}
	if fallos > 0 {
		utils.InfoLog.Warn("Script terminado con errores", "archivo", ruta, "errores", fallos)
		return 1
	}
	return 0
}
