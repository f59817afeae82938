// Package thingspeak adapta el puerto TelemetrySink al API HTTP de ThingSpeak.
package thingspeak

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/ports"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/config"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/logger"
)

var _ ports.TelemetrySink = (*Client)(nil)

// Campos del canal: field1/field2 = (sensor, stock), field3/field4 =
// (temperatura, humedad), field5/field6 = (sensor, peso), field7/field8 =
// (zona, movimiento).
const (
	FieldSensorID    = "field1"
	FieldStock       = "field2"
	FieldTemperature = "field3"
	FieldHumidity    = "field4"
	FieldWeightID    = "field5"
	FieldWeight      = "field6"
	FieldMotionZone  = "field7"
	FieldMotion      = "field8"
)

// Client cliente HTTP del canal de telemetría de ThingSpeak.
type Client struct {
	apiURL    string
	apiKey    string
	channelID string
	http      *http.Client
	log       *logger.Logger
}

// NewClient construye el cliente a partir de la configuración.
func NewClient(cfg config.ThingspeakConfig, log *logger.Logger) *Client {
	return &Client{
		apiURL:    strings.TrimRight(cfg.APIURL, "/"),
		apiKey:    cfg.APIKey,
		channelID: cfg.ChannelID,
		http:      &http.Client{Timeout: cfg.Timeout},
		log:       log.Component("thingspeak"),
	}
}

// PushInventory publica (id numérico del sensor, stock) en field1/field2.
func (c *Client) PushInventory(ctx context.Context, sensorID, stock int) error {
	return c.UpdateChannel(ctx, map[string]string{
		FieldSensorID: strconv.Itoa(sensorID),
		FieldStock:    strconv.Itoa(stock),
	})
}

// PushEnvironment publica temperatura y humedad en field3/field4.
func (c *Client) PushEnvironment(ctx context.Context, temperature, humidity float64) error {
	return c.UpdateChannel(ctx, map[string]string{
		FieldTemperature: strconv.FormatFloat(temperature, 'f', 2, 64),
		FieldHumidity:    strconv.FormatFloat(humidity, 'f', 2, 64),
	})
}

// UpdateChannel publica un conjunto arbitrario de campos fieldN en el canal.
// ThingSpeak responde el número de entrada creado, o "0" cuando rechaza la
// actualización (API key inválida o límite de tasa).
func (c *Client) UpdateChannel(ctx context.Context, fields map[string]string) error {
	form := url.Values{"api_key": {c.apiKey}}
	for field, value := range fields {
		form.Set(field, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/update", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("crear request de telemetría: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("enviar telemetría: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("leer respuesta de telemetría: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telemetría rechazada: status %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) == "0" {
		return fmt.Errorf("telemetría rechazada por el canal (entrada 0)")
	}
	return nil
}

// ChannelFeed recupera las últimas `results` entradas del canal en JSON crudo.
func (c *Client) ChannelFeed(ctx context.Context, results int) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/feeds.json?results=%d",
		c.apiURL, c.channelID, results)
	if c.apiKey != "" {
		endpoint += "&api_key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("crear request de feed: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("consultar feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("consultar feed: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("leer feed: %w", err)
	}
	return body, nil
}
