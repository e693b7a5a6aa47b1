package main

import (
	"fmt"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
	"github.com/sisoputnfrba/tp-simulador-paginacion/reporte"
	"github.com/sisoputnfrba/tp-simulador-paginacion/utils"
)

// respuestaError registra el error del simulador y arma la respuesta con su
// tipo_error.
func respuestaError(operacion string, err error) map[string]interface{} {
	utils.ErrorLog.Error("Error en operación", "operacion", operacion, "error", err)
	if pila := paginacion.Pila(err); pila != "" {
		utils.ErrorLog.Debug("Traza", "operacion", operacion, "pila", pila)
	}
	return utils.RespuestaError(err, paginacion.TipoError(err))
}

// errorParametro arma la respuesta para datos faltantes o mal formados.
func errorParametro(operacion string, err error) map[string]interface{} {
	utils.ErrorLog.Error("Parámetro inválido", "operacion", operacion, "error", err)
	return utils.RespuestaError(err, utils.TipoErrorParametro)
}

func handlerHandshake(msg *utils.Mensaje) (interface{}, error) {
	utils.InfoLog.Info("Handshake recibido", "origen", msg.Origen)

	return map[string]interface{}{
		"status":       "OK",
		"offset_bits":  simulador.BitsOffset(),
		"tam_pagina":   simulador.TamanioPagina(),
		"niveles":      simulador.Niveles(),
		"entradas_tlb": simulador.CapacidadTLB(),
	}, nil
}

func handlerCambioContexto(msg *utils.Mensaje) (interface{}, error) {
	pid, err := utils.ExtraerEntero(utils.DatosMensaje(msg), "pid")
	if err != nil {
		return errorParametro("cambio_contexto", err), nil
	}

	cambio, err := simulador.CambiarContexto(pid)
	if err != nil {
		return respuestaError("cambio_contexto", err), nil
	}

	// Log obligatorio
	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Cambio de contexto - CR3: %d", pid, simulador.CR3()))

	return map[string]interface{}{
		"status": "OK",
		"cambio": cambio,
		"pid":    pid,
		"cr3":    simulador.CR3(),
	}, nil
}

func handlerMapearPagina(msg *utils.Mensaje) (interface{}, error) {
	pagina, err := utils.ExtraerUint64(utils.DatosMensaje(msg), "pagina")
	if err != nil {
		return errorParametro("mapear_pagina", err), nil
	}

	marco, err := simulador.MapearPagina(pagina)
	if err != nil {
		return respuestaError("mapear_pagina", err), nil
	}

	return map[string]interface{}{
		"status": "OK",
		"pagina": pagina,
		"marco":  marco,
	}, nil
}

func handlerTraducir(msg *utils.Mensaje) (interface{}, error) {
	direccion, err := utils.ExtraerUint64(utils.DatosMensaje(msg), "direccion")
	if err != nil {
		return errorParametro("traducir", err), nil
	}

	fisica, err := simulador.Traducir(direccion)
	if err != nil {
		return respuestaError("traducir", err), nil
	}

	d := simulador.Descomponer(direccion)
	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Traducción - Dir. Lógica: %d - Dir. Física: %d",
		simulador.PidActivo(), direccion, fisica))

	return map[string]interface{}{
		"status":           "OK",
		"direccion_fisica": fisica,
		"marco":            fisica / simulador.TamanioPagina(),
		"pagina":           d.Pagina,
		"offset":           d.Offset,
	}, nil
}

func handlerLeerVirtual(msg *utils.Mensaje) (interface{}, error) {
	direccion, err := utils.ExtraerUint64(utils.DatosMensaje(msg), "direccion")
	if err != nil {
		return errorParametro("leer", err), nil
	}

	valor, err := simulador.LeerVirtual8(direccion)
	if err != nil {
		return respuestaError("leer", err), nil
	}

	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Lectura - Dir. Lógica: %d - Valor: %d",
		simulador.PidActivo(), direccion, valor))

	return map[string]interface{}{
		"status": "OK",
		"valor":  valor,
	}, nil
}

func handlerEscribirVirtual(msg *utils.Mensaje) (interface{}, error) {
	datos := utils.DatosMensaje(msg)
	direccion, err := utils.ExtraerUint64(datos, "direccion")
	if err != nil {
		return errorParametro("escribir", err), nil
	}
	valor, err := utils.ExtraerUint64(datos, "valor")
	if err != nil {
		return errorParametro("escribir", err), nil
	}

	if err := simulador.EscribirVirtual8(direccion, valor); err != nil {
		return respuestaError("escribir", err), nil
	}

	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Escritura - Dir. Lógica: %d - Valor: %d",
		simulador.PidActivo(), direccion, valor))

	return map[string]interface{}{
		"status": "OK",
	}, nil
}

func handlerEstadoMemoria(msg *utils.Mensaje) (interface{}, error) {
	estado := simulador.Estado()

	utils.InfoLog.Info("Estado de memoria solicitado", "origen", msg.Origen,
		"marcos_asignados", estado.MarcosAsignados, "bytes_tablas", estado.BytesTablas)

	return map[string]interface{}{
		"status":  "OK",
		"estado":  estado,
		"reporte": reporte.Texto(estado),
	}, nil
}
