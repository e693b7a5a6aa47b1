package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mensaje es el sobre de todo lo que viaja entre módulos. Datos suele ser un
// objeto con los parámetros de la operación.
type Mensaje struct {
	Tipo      int         `json:"tipo"`
	Operacion string      `json:"operacion"`
	Origen    string      `json:"origen"`
	Datos     interface{} `json:"datos"`
}

// ErrorRemoto es un error que el otro módulo devolvió en el campo "error"
// de su respuesta.
type ErrorRemoto struct {
	Mensaje string
	Tipo    string
}

func (e *ErrorRemoto) Error() string {
	if e.Tipo == "" {
		return e.Mensaje
	}
	return fmt.Sprintf("%s (%s)", e.Mensaje, e.Tipo)
}

// HTTPClient habla con un único módulo remoto.
type HTTPClient struct {
	BaseURL string
	Nombre  string
	client  *http.Client
}

// NewHTTPClient apunta a http://ip:puerto con un timeout de 10 segundos.
func NewHTTPClient(ip string, puerto int, nombre string) *HTTPClient {
	return &HTTPClient{
		BaseURL: fmt.Sprintf("http://%s:%d", ip, puerto),
		Nombre:  nombre,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) url(ruta string) string {
	return c.BaseURL + ruta
}

// leerJSON decodifica el cuerpo de resp conservando los enteros de 64 bits.
func leerJSON(resp *http.Response, destino interface{}) error {
	if resp.StatusCode != http.StatusOK {
		cuerpo, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("respuesta HTTP %d de %s: %s", resp.StatusCode, resp.Request.URL, bytes.TrimSpace(cuerpo))
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(destino); err != nil {
		return fmt.Errorf("respuesta ilegible de %s: %w", resp.Request.URL, err)
	}
	return nil
}

// EnviarHTTPMensaje manda un Mensaje a /mensaje y devuelve la respuesta
// decodificada tal cual.
func (c *HTTPClient) EnviarHTTPMensaje(tipo int, operacion string, datos interface{}) (interface{}, error) {
	var cuerpo bytes.Buffer
	mensaje := Mensaje{Tipo: tipo, Operacion: operacion, Origen: c.Nombre, Datos: datos}
	if err := json.NewEncoder(&cuerpo).Encode(mensaje); err != nil {
		return nil, fmt.Errorf("no se pudo serializar el mensaje %d: %w", tipo, err)
	}

	resp, err := c.client.Post(c.url("/mensaje"), "application/json", &cuerpo)
	if err != nil {
		return nil, fmt.Errorf("no se pudo enviar el mensaje %d: %w", tipo, err)
	}
	defer resp.Body.Close()

	var resultado interface{}
	if err := leerJSON(resp, &resultado); err != nil {
		return nil, err
	}
	return resultado, nil
}

// Solicitar envía un mensaje y devuelve la respuesta como mapa. Si el otro
// módulo contestó con un campo "error" lo devuelve como *ErrorRemoto.
func (c *HTTPClient) Solicitar(tipo int, datos map[string]interface{}) (map[string]interface{}, error) {
	resultado, err := c.EnviarHTTPMensaje(tipo, "default", datos)
	if err != nil {
		return nil, err
	}

	respuesta, ok := resultado.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("respuesta inesperada para el mensaje %d: %v", tipo, resultado)
	}

	if mensajeError, hayError := respuesta["error"]; hayError {
		tipoError, _ := respuesta["tipo_error"].(string)
		return respuesta, &ErrorRemoto{Mensaje: fmt.Sprint(mensajeError), Tipo: tipoError}
	}
	return respuesta, nil
}

// VerificarConexion consulta /health del módulo remoto.
func (c *HTTPClient) VerificarConexion() error {
	resp, err := c.client.Get(c.url("/health"))
	if err != nil {
		return fmt.Errorf("%s no responde: %w", c.BaseURL, err)
	}
	defer resp.Body.Close()

	var estado map[string]string
	if err := leerJSON(resp, &estado); err != nil {
		return err
	}

	InfoLog.Info("Conexión verificada", "destino", c.BaseURL, "módulo", estado["module"])
	return nil
}
