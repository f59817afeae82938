// Package mqtt adapta el puerto EventPublisher al broker MQTT usando paho.
package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/ports"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/config"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/logger"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher publica y suscribe eventos de dominio sobre MQTT (QoS 0,
// at-most-once). Mantiene su propio registro de handlers por tópico para
// poder resuscribir tras una reconexión.
type Publisher struct {
	client  pahomqtt.Client
	log     *logger.Logger
	timeout time.Duration

	mu       sync.Mutex
	handlers map[string][]*subscription
	nextID   int
}

type subscription struct {
	id      int
	topic   string
	handler ports.MessageHandler
	pub     *Publisher
}

// Unsubscribe retira el handler; al retirar el último de un tópico se
// libera también la suscripción en el broker.
func (s *subscription) Unsubscribe() {
	s.pub.unsubscribe(s)
}

// NewPublisher construye el adaptador; llamar Connect antes de usarlo.
func NewPublisher(cfg config.MQTTConfig, log *logger.Logger) *Publisher {
	p := &Publisher{
		log:      log.Component("mqtt"),
		timeout:  cfg.Timeout,
		handlers: make(map[string][]*subscription),
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			p.log.Warn().Err(err).Msg("conexión MQTT perdida")
		})

	p.client = pahomqtt.NewClient(opts)
	return p
}

// Connect abre la conexión con el broker.
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("conectar a broker MQTT: timeout tras %s", p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("conectar a broker MQTT: %w", err)
	}
	p.log.Info().Msg("conectado al broker MQTT")
	return nil
}

// Close cierra la conexión de forma ordenada.
func (p *Publisher) Close() {
	p.client.Disconnect(uint(p.timeout.Milliseconds()))
	p.log.Info().Msg("desconectado del broker MQTT")
}

// Publish serializa payload como JSON y lo publica en topic con QoS 0.
// Si el cliente está desconectado, el mensaje se descarta y se fuerza
// el reintento de conexión; no hay buffering.
func (p *Publisher) Publish(topic string, payload map[string]any) error {
	if !p.client.IsConnected() {
		go p.reconnect()
		return fmt.Errorf("publicar en %s: cliente MQTT desconectado", topic)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serializar payload para %s: %w", topic, err)
	}

	token := p.client.Publish(topic, 0, false, data)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publicar en %s: timeout tras %s", topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publicar en %s: %w", topic, err)
	}
	return nil
}

// Subscribe registra un handler para el tópico. El primer handler de un
// tópico abre la suscripción en el broker; los siguientes la comparten.
func (p *Publisher) Subscribe(topic string, handler ports.MessageHandler) (ports.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	sub := &subscription{id: p.nextID, topic: topic, handler: handler, pub: p}
	first := len(p.handlers[topic]) == 0
	p.handlers[topic] = append(p.handlers[topic], sub)

	if first && p.client.IsConnected() {
		if err := p.subscribeBroker(topic); err != nil {
			// Sin la clave: una entrada vacía haría que onConnect resuscriba
			// un tópico sin handlers vivos.
			delete(p.handlers, topic)
			return nil, err
		}
	}
	return sub, nil
}

func (p *Publisher) subscribeBroker(topic string) error {
	token := p.client.Subscribe(topic, 0, p.dispatch)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("suscribir a %s: timeout tras %s", topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("suscribir a %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) dispatch(_ pahomqtt.Client, msg pahomqtt.Message) {
	p.mu.Lock()
	subs := make([]*subscription, len(p.handlers[msg.Topic()]))
	copy(subs, p.handlers[msg.Topic()])
	p.mu.Unlock()

	for _, s := range subs {
		s.handler(msg.Topic(), msg.Payload())
	}
}

func (p *Publisher) unsubscribe(target *subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.handlers[target.topic]
	for i, s := range subs {
		if s.id == target.id {
			p.handlers[target.topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(p.handlers[target.topic]) == 0 {
		delete(p.handlers, target.topic)
		if p.client.IsConnected() {
			p.client.Unsubscribe(target.topic)
		}
	}
}

// onConnect resuscribe todos los tópicos registrados tras cada (re)conexión.
func (p *Publisher) onConnect(_ pahomqtt.Client) {
	p.mu.Lock()
	topics := make([]string, 0, len(p.handlers))
	for topic := range p.handlers {
		topics = append(topics, topic)
	}
	p.mu.Unlock()

	for _, topic := range topics {
		if err := p.subscribeBroker(topic); err != nil {
			p.log.Warn().Err(err).Str("topic", topic).Msg("no se pudo resuscribir el tópico")
		}
	}
}

func (p *Publisher) reconnect() {
	token := p.client.Connect()
	if token.WaitTimeout(p.timeout) && token.Error() == nil {
		return
	}
	p.log.Warn().Err(token.Error()).Msg("reintento de conexión MQTT fallido")
}
