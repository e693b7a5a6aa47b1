package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrettyWriter recibe entradas JSON de slog y las escribe en una línea
// legible: [hora] (NIVEL) mensaje | clave: valor |
type PrettyWriter struct {
	output io.Writer
}

func NewPrettyWriter(output io.Writer) *PrettyWriter {
	return &PrettyWriter{output: output}
}

func (pw *PrettyWriter) Write(p []byte) (n int, err error) {
	var entrada map[string]interface{}
	decoder := json.NewDecoder(strings.NewReader(string(p)))
	decoder.UseNumber()
	if err := decoder.Decode(&entrada); err != nil {
		return 0, fmt.Errorf("error al parsear entrada de log: %w", err)
	}

	if _, err := io.WriteString(pw.output, embellecer(entrada)); err != nil {
		return 0, fmt.Errorf("error al escribir log: %w", err)
	}

	// slog espera la cantidad de bytes original
	return len(p), nil
}

func embellecer(entrada map[string]interface{}) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%v] (%v) %v", entrada["time"], entrada["level"], entrada["msg"])
	delete(entrada, "time")
	delete(entrada, "level")
	delete(entrada, "msg")

	if len(entrada) > 0 {
		claves := make([]string, 0, len(entrada))
		for clave := range entrada {
			claves = append(claves, clave)
		}
		sort.Strings(claves)

		sb.WriteString(" |")
		for _, clave := range claves {
			fmt.Fprintf(&sb, " %s: %v |", clave, entrada[clave])
		}
	}
	sb.WriteString("\n")
	return sb.String()
}
