// Package inventory contiene lógica de dominio pura del inventario.
package inventory

import (
	"strconv"
	"strings"
)

// sensorIDModulo acota el identificador numérico que acepta el canal de
// telemetría (solo admite enteros pequeños como campo).
const sensorIDModulo = 1_000_000

// NumericSensorID pliega el UUID de un producto a un entero acotado para
// etiquetar la telemetría: toma los últimos 8 caracteres hex (sin guiones)
// y aplica módulo 1.000.000. Las colisiones se toleran: la telemetría es
// solo informativa y este valor no reemplaza al identificador real.
func NumericSensorID(productID string) int {
	clean := strings.ReplaceAll(productID, "-", "")
	if clean == "" {
		return 0
	}
	if len(clean) > 8 {
		clean = clean[len(clean)-8:]
	}
	n, err := strconv.ParseUint(clean, 16, 64)
	if err != nil {
		return 0
	}
	return int(n % sensorIDModulo)
}
