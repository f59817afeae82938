package ports

import "context"

// MessageHandler procesa un mensaje entregado a un tópico suscrito.
type MessageHandler func(topic string, payload []byte)

// Subscription es el handle devuelto al suscribirse a un tópico.
// Unsubscribe del último handler de un tópico libera la suscripción en el broker.
type Subscription interface {
	Unsubscribe()
}

// EventPublisher define el puerto de salida para eventos de dominio
// (pub/sub por tópico). La entrega es at-most-once: publicar desconectado
// dispara el reintento de conexión y el mensaje se descarta, sin buffering.
// Cualquier adaptador (MQTT, bus en memoria para tests) debe implementar
// esta interfaz; aplicación y dominio solo conocen este contrato.
type EventPublisher interface {
	// Publish serializa payload como JSON y lo publica en topic.
	// El error es transitorio: el caller lo registra y continúa, nunca
	// revierte la transacción ya confirmada.
	Publish(topic string, payload map[string]any) error
	Subscribe(topic string, handler MessageHandler) (Subscription, error)
}

// TelemetrySink define el puerto de salida hacia el canal externo de métricas
// (ThingSpeak). Es telemetría informativa: sus fallas jamás afectan el estado
// del núcleo. El contexto debe llevar timeout para acotar la llamada externa.
type TelemetrySink interface {
	// PushInventory publica (id numérico del sensor, stock) del producto.
	PushInventory(ctx context.Context, sensorID, stock int) error
	// PushEnvironment publica temperatura (°C) y humedad relativa (%).
	PushEnvironment(ctx context.Context, temperature, humidity float64) error
}
