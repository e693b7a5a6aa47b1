package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
	"github.com/sisoputnfrba/tp-simulador-paginacion/reporte"
	"github.com/sisoputnfrba/tp-simulador-paginacion/utils"
)

// crearVolcado guarda en DUMP_PATH el contenido de todos los marcos del
// proceso (raíz, tablas y hojas) en orden de asignación.
func crearVolcado(pid int) (string, error) {
	utils.InfoLog.Info("Iniciando memory dump", "pid", pid)

	contenido, err := simulador.VolcarProceso(pid)
	if err != nil {
		return "", err
	}

	timestamp := time.Now().Format("20060102-150405")
	nombreArchivo := fmt.Sprintf("%d-%s.dmp", pid, timestamp)
	rutaCompleta := filepath.Join(config.DumpPath, nombreArchivo)

	if err := os.MkdirAll(config.DumpPath, 0755); err != nil {
		utils.ErrorLog.Error("Error creando directorio dump", "error", err)
		return "", fmt.Errorf("error al crear directorio para dumps: %v", err)
	}

	if err := os.WriteFile(rutaCompleta, contenido, 0644); err != nil {
		utils.ErrorLog.Error("Error escribiendo dump", "archivo", rutaCompleta, "error", err)
		return "", fmt.Errorf("error al escribir en archivo de dump: %v", err)
	}

	// Log obligatorio
	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Memory Dump solicitado", pid))
	utils.InfoLog.Info("Memory dump completado", "pid", pid, "archivo", rutaCompleta, "tamanio_bytes", len(contenido))

	return rutaCompleta, nil
}

// handlerVolcarProceso crea un volcado de memoria para un proceso
func handlerVolcarProceso(msg *utils.Mensaje) (interface{}, error) {
	pid, err := utils.ExtraerEntero(utils.DatosMensaje(msg), "pid")
	if err != nil {
		return errorParametro("volcar", err), nil
	}

	utils.InfoLog.Info("Solicitud de memory dump recibida", "pid", pid)

	ruta, err := crearVolcado(pid)
	if err != nil {
		if paginacion.TipoError(err) == "desconocido" {
			utils.ErrorLog.Error("Error al crear memory dump", "pid", pid, "error", err)
			return utils.RespuestaError(err, utils.TipoErrorArchivo), nil
		}
		return respuestaError("volcar", err), nil
	}

	return map[string]interface{}{
		"status":  "OK",
		"archivo": ruta,
	}, nil
}

// rutaMapa ubica el PNG pedido dentro de DUMP_PATH. Del nombre recibido solo
// se usa la última parte, así el cliente no elige el directorio.
func rutaMapa(archivo string) (string, error) {
	if archivo == "" {
		archivo = fmt.Sprintf("marcos-%s.png", time.Now().Format("20060102-150405"))
	}
	nombre := filepath.Base(archivo)
	if nombre == "." || nombre == ".." || nombre == string(filepath.Separator) {
		return "", fmt.Errorf("nombre de archivo inválido %q", archivo)
	}
	return filepath.Join(config.DumpPath, nombre), nil
}

// handlerMapaMarcos dibuja el mapa de marcos en un PNG dentro de DUMP_PATH.
// Sin "archivo" el nombre lleva la hora.
func handlerMapaMarcos(msg *utils.Mensaje) (interface{}, error) {
	ruta, err := rutaMapa(utils.ExtraerTexto(utils.DatosMensaje(msg), "archivo", ""))
	if err != nil {
		return errorParametro("mapa", err), nil
	}

	marcos := simulador.MapaMarcos()
	if err := reporte.GuardarMapa(ruta, marcos, reporte.ColumnasPorDefecto); err != nil {
		utils.ErrorLog.Error("Error al guardar mapa de marcos", "archivo", ruta, "error", err)
		return utils.RespuestaError(err, utils.TipoErrorArchivo), nil
	}

	utils.InfoLog.Info("Mapa de marcos generado", "archivo", ruta, "marcos", len(marcos))
	return map[string]interface{}{
		"status":  "OK",
		"archivo": ruta,
		"marcos":  len(marcos),
	}, nil
}
