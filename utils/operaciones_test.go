package utils

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestConvertirUint64(t *testing.T) {
	casos := []struct {
		nombre   string
		valor    interface{}
		esperado uint64
		falla    bool
	}{
		{"json decimal", json.Number("68110388073237"), 68110388073237, false},
		{"json grande", json.Number("18446744073709551615"), 1<<64 - 1, false},
		{"texto hexa", "0x3df22f7c9315", 0x3df22f7c9315, false},
		{"texto con guiones", "1_000", 1000, false},
		{"float entero", float64(4096), 4096, false},
		{"float con decimales", 1.5, 0, true},
		{"negativo", json.Number("-1"), 0, true},
		{"texto invalido", "doce", 0, true},
		{"booleano", true, 0, true},
		{"nil", nil, 0, true},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			n, err := ConvertirUint64(c.valor)
			if c.falla {
				if err == nil {
					t.Errorf("ConvertirUint64(%v) = %d, se esperaba error", c.valor, n)
				}
				return
			}
			if err != nil || n != c.esperado {
				t.Errorf("ConvertirUint64(%v) = %d, %v; se esperaba %d", c.valor, n, err, c.esperado)
			}
		})
	}
}

func TestExtraerCampos(t *testing.T) {
	datos := map[string]interface{}{
		"pid":       json.Number("123"),
		"direccion": "0x10",
		"archivo":   "mapa.png",
	}

	if pid, err := ExtraerEntero(datos, "pid"); err != nil || pid != 123 {
		t.Errorf("ExtraerEntero(pid) = %d, %v", pid, err)
	}
	if dir, err := ExtraerUint64(datos, "direccion"); err != nil || dir != 16 {
		t.Errorf("ExtraerUint64(direccion) = %d, %v", dir, err)
	}
	if _, err := ExtraerUint64(datos, "valor"); err == nil {
		t.Error("se esperaba error por campo ausente")
	}
	if _, err := ExtraerEntero(map[string]interface{}{"pid": json.Number("99999999999")}, "pid"); err == nil {
		t.Error("se esperaba error por pid fuera de rango")
	}
	if ExtraerTexto(datos, "archivo", "x") != "mapa.png" || ExtraerTexto(datos, "otro", "x") != "x" {
		t.Error("ExtraerTexto no respeta el valor por defecto")
	}
}

func TestDatosMensaje(t *testing.T) {
	if len(DatosMensaje(&Mensaje{})) != 0 {
		t.Error("sin datos debería devolver un mapa vacío")
	}
	msg := &Mensaje{Datos: map[string]interface{}{"pid": 1}}
	if DatosMensaje(msg)["pid"] != 1 {
		t.Error("DatosMensaje perdió los datos")
	}
}

func TestRespuestaError(t *testing.T) {
	r := RespuestaError(errors.New("página no mapeada"), "no_mapeada")
	if r["error"] != "página no mapeada" || r["tipo_error"] != "no_mapeada" {
		t.Errorf("respuesta = %v", r)
	}
}

func TestSemaforoExclusivo(t *testing.T) {
	sem := NewSemaforo(1)
	if !sem.WaitTimeout(time.Second) {
		t.Fatal("el semáforo recién creado debería estar libre")
	}
	if sem.WaitTimeout(10 * time.Millisecond) {
		t.Fatal("WaitTimeout debería vencer con el semáforo tomado")
	}

	sem.Signal()
	sem.Signal()
	if !sem.WaitTimeout(time.Second) {
		t.Fatal("WaitTimeout debería tomar un semáforo libre")
	}
	// un Signal de más no deja lugar para dos
	if sem.WaitTimeout(10 * time.Millisecond) {
		t.Error("con capacidad 1 no debería tomarse dos veces")
	}
}

func TestHandlerExclusivo(t *testing.T) {
	sem := NewSemaforo(1)
	var tomadoDurante bool
	handler := HandlerExclusivo(sem, time.Second, func(msg *Mensaje) (interface{}, error) {
		tomadoDurante = !sem.WaitTimeout(time.Millisecond)
		return "ok", nil
	})

	respuesta, err := handler(&Mensaje{Tipo: MensajeTraducir})
	if err != nil || respuesta != "ok" {
		t.Fatalf("handler = %v, %v", respuesta, err)
	}
	if !tomadoDurante {
		t.Errorf("el handler debería correr con el semáforo tomado")
	}
	if !sem.WaitTimeout(time.Millisecond) {
		t.Errorf("el semáforo debería liberarse al terminar")
	}
}

func TestHandlerExclusivoOcupado(t *testing.T) {
	sem := NewSemaforo(1)
	sem.Wait()

	ejecutado := false
	handler := HandlerExclusivo(sem, 10*time.Millisecond, func(msg *Mensaje) (interface{}, error) {
		ejecutado = true
		return "ok", nil
	})

	respuesta, err := handler(&Mensaje{Tipo: MensajeTraducir, Origen: "Consola"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	datos, _ := respuesta.(map[string]interface{})
	if datos["tipo_error"] != TipoErrorOcupado || ejecutado {
		t.Errorf("respuesta = %v, ejecutado = %v", respuesta, ejecutado)
	}

	// al liberarse el semáforo la solicitud se atiende
	sem.Signal()
	if respuesta, _ := handler(&Mensaje{Tipo: MensajeTraducir}); respuesta != "ok" {
		t.Errorf("respuesta = %v tras liberar", respuesta)
	}
}
