package main

import (
	"encoding/json"
	"fmt"

	"github.com/sisoputnfrba/tp-simulador-paginacion/paginacion"
	"github.com/sisoputnfrba/tp-simulador-paginacion/utils"
)

// ejecutorRemoto manda cada operación al módulo MMU por HTTP.
type ejecutorRemoto struct {
	mmu       *utils.HTTPClient
	geometria *Geometria
}

func nuevoEjecutorRemoto(mmu *utils.HTTPClient) *ejecutorRemoto {
	return &ejecutorRemoto{mmu: mmu}
}

func (e *ejecutorRemoto) solicitar(tipo int, datos map[string]interface{}) (map[string]interface{}, error) {
	respuesta, err := e.mmu.Solicitar(tipo, datos)
	if err != nil {
		utils.ErrorLog.Debug("Error en solicitud a MMU", "tipo", tipo, "datos", datos, "error", err)
		return nil, err
	}
	return respuesta, nil
}

// campoUint64 lee un número de la respuesta.
func campoUint64(respuesta map[string]interface{}, clave string) (uint64, error) {
	n, err := utils.ExtraerUint64(respuesta, clave)
	if err != nil {
		return 0, fmt.Errorf("respuesta de MMU inválida: %w", err)
	}
	return n, nil
}

func (e *ejecutorRemoto) Geometria() (Geometria, error) {
	if e.geometria != nil {
		return *e.geometria, nil
	}

	r, err := e.solicitar(utils.MensajeHandshake, map[string]interface{}{"nombre": "Consola"})
	if err != nil {
		return Geometria{}, err
	}
	var g Geometria
	var bits, niveles, entradas uint64
	if bits, err = campoUint64(r, "offset_bits"); err != nil {
		return Geometria{}, err
	}
	if g.TamanioPagina, err = campoUint64(r, "tam_pagina"); err != nil {
		return Geometria{}, err
	}
	if niveles, err = campoUint64(r, "niveles"); err != nil {
		return Geometria{}, err
	}
	// entradas_tlb puede faltar en una MMU sin TLB
	entradas, _ = utils.ExtraerUint64(r, "entradas_tlb")
	g.BitsOffset, g.Niveles, g.EntradasTLB = uint(bits), int(niveles), int(entradas)

	utils.InfoLog.Info("Handshake con MMU", "tam_pagina", g.TamanioPagina, "niveles", g.Niveles, "entradas_tlb", g.EntradasTLB)
	e.geometria = &g
	return g, nil
}

func (e *ejecutorRemoto) CambiarContexto(pid int) (bool, uint64, error) {
	r, err := e.solicitar(utils.MensajeCambioContexto, map[string]interface{}{"pid": pid})
	if err != nil {
		return false, 0, err
	}
	cr3, err := campoUint64(r, "cr3")
	if err != nil {
		return false, 0, err
	}
	cambio, _ := r["cambio"].(bool)
	return cambio, cr3, nil
}

func (e *ejecutorRemoto) MapearPagina(pagina uint64) (uint64, error) {
	r, err := e.solicitar(utils.MensajeMapearPagina, map[string]interface{}{"pagina": pagina})
	if err != nil {
		return 0, err
	}
	return campoUint64(r, "marco")
}

func (e *ejecutorRemoto) Traducir(direccion uint64) (Traduccion, error) {
	r, err := e.solicitar(utils.MensajeTraducir, map[string]interface{}{"direccion": direccion})
	if err != nil {
		return Traduccion{}, err
	}
	var t Traduccion
	for clave, destino := range map[string]*uint64{
		"direccion_fisica": &t.Fisica,
		"marco":            &t.Marco,
		"pagina":           &t.Pagina,
		"offset":           &t.Offset,
	} {
		if *destino, err = campoUint64(r, clave); err != nil {
			return Traduccion{}, err
		}
	}
	return t, nil
}

func (e *ejecutorRemoto) Leer(direccion uint64) (uint64, error) {
	r, err := e.solicitar(utils.MensajeLeerVirtual, map[string]interface{}{"direccion": direccion})
	if err != nil {
		return 0, err
	}
	return campoUint64(r, "valor")
}

func (e *ejecutorRemoto) Escribir(direccion, valor uint64) error {
	_, err := e.solicitar(utils.MensajeEscribirVirtual, map[string]interface{}{
		"direccion": direccion,
		"valor":     valor,
	})
	return err
}

func (e *ejecutorRemoto) Estado() (paginacion.Estado, error) {
	r, err := e.solicitar(utils.MensajeEstadoMemoria, nil)
	if err != nil {
		return paginacion.Estado{}, err
	}

	// el estado llega como mapa genérico: se vuelve a pasar por JSON
	crudo, err := json.Marshal(r["estado"])
	if err != nil {
		return paginacion.Estado{}, fmt.Errorf("error al serializar estado: %v", err)
	}
	var estado paginacion.Estado
	if err := json.Unmarshal(crudo, &estado); err != nil {
		return paginacion.Estado{}, fmt.Errorf("respuesta de MMU inválida: %v", err)
	}
	return estado, nil
}

func (e *ejecutorRemoto) Volcar(pid int) (string, error) {
	r, err := e.solicitar(utils.MensajeVolcarProceso, map[string]interface{}{"pid": pid})
	if err != nil {
		return "", err
	}
	return utils.ExtraerTexto(r, "archivo", ""), nil
}

func (e *ejecutorRemoto) Mapa(archivo string) (string, error) {
	datos := map[string]interface{}{}
	if archivo != "" {
		datos["archivo"] = archivo
	}
	r, err := e.solicitar(utils.MensajeMapaMarcos, datos)
	if err != nil {
		return "", err
	}
	return utils.ExtraerTexto(r, "archivo", ""), nil
}
