package checkout_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/ports"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
)

// memStore almacena el estado compartido de los repositorios en memoria.
// Las transacciones simuladas (memTx) llevan un registro de deshacer y
// candados de fila por producto, imitando el rollback y el FOR UPDATE de
// PostgreSQL también bajo transacciones concurrentes.
type memStore struct {
	mu        sync.Mutex
	products  map[string]*entity.Product
	lines     map[string]*entity.CartItem
	orders    map[string]*entity.Order
	inventory map[string]*entity.Inventory // clave: productID
	rowLocks  map[string]*sync.Mutex       // clave: productID
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[string]*entity.Product),
		lines:     make(map[string]*entity.CartItem),
		orders:    make(map[string]*entity.Order),
		inventory: make(map[string]*entity.Inventory),
		rowLocks:  make(map[string]*sync.Mutex),
	}
}

func copyLine(l *entity.CartItem) *entity.CartItem {
	c := *l
	if l.OrderID != nil {
		id := *l.OrderID
		c.OrderID = &id
	}
	return &c
}

func copyInventory(inv *entity.Inventory) *entity.Inventory {
	c := *inv
	if inv.LastReplenishedAt != nil {
		t := *inv.LastReplenishedAt
		c.LastReplenishedAt = &t
	}
	if inv.MaxStockCapacity != nil {
		m := *inv.MaxStockCapacity
		c.MaxStockCapacity = &m
	}
	return &c
}

// ── Transacción simulada ─────────────────────────────────────────────────────

// memTx acumula las acciones de deshacer y los candados de fila tomados por
// una transacción. El rollback aplica el deshacer en orden inverso; los
// candados se sueltan recién al terminar la transacción, como FOR UPDATE.
type memTx struct {
	s     *memStore
	undo  []func()
	held  map[string]bool
	locks []*sync.Mutex
}

func newMemTx(s *memStore) *memTx {
	return &memTx{s: s, held: make(map[string]bool)}
}

// record registra una acción de deshacer; llamar con s.mu tomado.
func (tx *memTx) record(fn func()) {
	tx.undo = append(tx.undo, fn)
}

// lockProduct toma el candado de fila del producto y lo retiene hasta el fin
// de la transacción. Reentrante dentro de la misma transacción.
func (tx *memTx) lockProduct(productID string) {
	if tx.held[productID] {
		return
	}
	tx.s.mu.Lock()
	mu, ok := tx.s.rowLocks[productID]
	if !ok {
		mu = &sync.Mutex{}
		tx.s.rowLocks[productID] = mu
	}
	tx.s.mu.Unlock()

	mu.Lock()
	tx.held[productID] = true
	tx.locks = append(tx.locks, mu)
}

func (tx *memTx) rollback() {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *memTx) release() {
	for i := len(tx.locks) - 1; i >= 0; i-- {
		tx.locks[i].Unlock()
	}
	tx.locks = nil
}

// ── Productos ────────────────────────────────────────────────────────────────

type memProductRepo struct {
	s  *memStore
	tx *memTx
}

var _ repository.ProductRepository = (*memProductRepo)(nil)

func (r *memProductRepo) Create(p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *p
	r.s.products[p.ID] = &c
	if r.tx != nil {
		id := p.ID
		r.tx.record(func() { delete(r.s.products, id) })
	}
	return nil
}

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *memProductRepo) GetByBarcode(barcode string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Barcode == barcode {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) GetByRFIDTag(tag string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.RFIDTag == tag {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) List(category string, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.s.products {
		if category != "" && p.Category != category {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProductRepo) Categories() ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range r.s.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memProductRepo) Update(p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.tx != nil {
		if prev, ok := r.s.products[p.ID]; ok {
			pre := *prev
			r.tx.record(func() { r.s.products[pre.ID] = &pre })
		}
	}
	c := *p
	r.s.products[p.ID] = &c
	return nil
}

func (r *memProductRepo) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.tx != nil {
		if prev, ok := r.s.products[id]; ok {
			pre := *prev
			r.tx.record(func() { r.s.products[pre.ID] = &pre })
		}
	}
	delete(r.s.products, id)
	return nil
}

// ── Carrito ──────────────────────────────────────────────────────────────────

type memCartRepo struct {
	s  *memStore
	tx *memTx
}

var _ repository.CartRepository = (*memCartRepo)(nil)

func (r *memCartRepo) Upsert(item *entity.CartItem) (*entity.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lines {
		if l.UserID == item.UserID && l.ProductID == item.ProductID && l.OrderID == nil {
			if r.tx != nil {
				pre := copyLine(l)
				r.tx.record(func() { r.s.lines[pre.ID] = pre })
			}
			l.Quantity += item.Quantity
			l.UpdatedAt = item.UpdatedAt
			return copyLine(l), nil
		}
	}
	r.s.lines[item.ID] = copyLine(item)
	if r.tx != nil {
		id := item.ID
		r.tx.record(func() { delete(r.s.lines, id) })
	}
	return copyLine(item), nil
}

func (r *memCartRepo) Create(item *entity.CartItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lines[item.ID] = copyLine(item)
	if r.tx != nil {
		id := item.ID
		r.tx.record(func() { delete(r.s.lines, id) })
	}
	return nil
}

func (r *memCartRepo) GetByIDAndUser(id, userID string) (*entity.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lines[id]
	if !ok || l.UserID != userID {
		return nil, nil
	}
	return copyLine(l), nil
}

func (r *memCartRepo) ListUnattached(userID string) ([]*entity.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CartItem
	for _, l := range r.s.lines {
		if l.UserID == userID && l.OrderID == nil {
			out = append(out, copyLine(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListUnattachedForUpdate no modela candados por línea: lo que cubren los
// tests es el traspaso por ID, que deja fuera de la orden cualquier línea
// agregada después del listado.
func (r *memCartRepo) ListUnattachedForUpdate(userID string) ([]*entity.CartItem, error) {
	return r.ListUnattached(userID)
}

func (r *memCartRepo) AttachToOrder(orderID string, itemIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	attached := 0
	for _, id := range itemIDs {
		l, ok := r.s.lines[id]
		if !ok || l.OrderID != nil {
			continue
		}
		if r.tx != nil {
			pre := copyLine(l)
			r.tx.record(func() { r.s.lines[pre.ID] = pre })
		}
		oid := orderID
		l.OrderID = &oid
		attached++
	}
	if attached != len(itemIDs) {
		return fmt.Errorf("attach cart items to order: %d de %d líneas disponibles", attached, len(itemIDs))
	}
	return nil
}

func (r *memCartRepo) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.tx != nil {
		if prev, ok := r.s.lines[id]; ok {
			pre := copyLine(prev)
			r.tx.record(func() { r.s.lines[pre.ID] = pre })
		}
	}
	delete(r.s.lines, id)
	return nil
}

func (r *memCartRepo) DeleteUnattached(userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.lines {
		if l.UserID == userID && l.OrderID == nil {
			if r.tx != nil {
				pre := copyLine(l)
				r.tx.record(func() { r.s.lines[pre.ID] = pre })
			}
			delete(r.s.lines, id)
		}
	}
	return nil
}

func (r *memCartRepo) DeleteByOrder(orderID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.lines {
		if l.OrderID != nil && *l.OrderID == orderID {
			if r.tx != nil {
				pre := copyLine(l)
				r.tx.record(func() { r.s.lines[pre.ID] = pre })
			}
			delete(r.s.lines, id)
		}
	}
	return nil
}

// ── Órdenes ──────────────────────────────────────────────────────────────────

type memOrderRepo struct {
	s  *memStore
	tx *memTx
}

var _ repository.OrderRepository = (*memOrderRepo)(nil)

func (r *memOrderRepo) Create(order *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *order
	c.Items = nil // las líneas viven en el store de carrito
	r.s.orders[order.ID] = &c
	if r.tx != nil {
		id := order.ID
		r.tx.record(func() { delete(r.s.orders, id) })
	}
	return nil
}

func (r *memOrderRepo) UpdateStatus(id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.orders[id]; ok {
		if r.tx != nil {
			prev := o.Status
			r.tx.record(func() {
				if cur, ok := r.s.orders[id]; ok {
					cur.Status = prev
				}
			})
		}
		o.Status = status
	}
	return nil
}

func (r *memOrderRepo) GetByIDAndUser(id, userID string) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.UserID != userID {
		return nil, nil
	}
	c := *o
	c.Items = r.itemsLocked(id)
	return &c, nil
}

func (r *memOrderRepo) ListByUser(userID string) ([]*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.s.orders {
		if o.UserID != userID {
			continue
		}
		c := *o
		c.Items = r.itemsLocked(o.ID)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memOrderRepo) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.tx != nil {
		if prev, ok := r.s.orders[id]; ok {
			pre := *prev
			r.tx.record(func() { r.s.orders[pre.ID] = &pre })
		}
	}
	delete(r.s.orders, id)
	return nil
}

func (r *memOrderRepo) itemsLocked(orderID string) []*entity.CartItem {
	var items []*entity.CartItem
	for _, l := range r.s.lines {
		if l.OrderID != nil && *l.OrderID == orderID {
			items = append(items, copyLine(l))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// ── Inventario ───────────────────────────────────────────────────────────────

type memInventoryRepo struct {
	s  *memStore
	tx *memTx
}

var _ repository.InventoryRepository = (*memInventoryRepo)(nil)

func (r *memInventoryRepo) Create(inv *entity.Inventory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.inventory[inv.ProductID] = copyInventory(inv)
	if r.tx != nil {
		id := inv.ProductID
		r.tx.record(func() { delete(r.s.inventory, id) })
	}
	return nil
}

func (r *memInventoryRepo) GetByID(id string) (*entity.Inventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.inventory {
		if inv.ID == id {
			return copyInventory(inv), nil
		}
	}
	return nil, nil
}

func (r *memInventoryRepo) GetByProduct(productID string) (*entity.Inventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.inventory[productID]
	if !ok {
		return nil, nil
	}
	return copyInventory(inv), nil
}

// GetByProductForUpdate toma el candado de fila del producto y lo retiene
// hasta el fin de la transacción: dos ajustes concurrentes sobre el mismo
// producto se serializan, como con FOR UPDATE real.
func (r *memInventoryRepo) GetByProductForUpdate(productID string) (*entity.Inventory, error) {
	if r.tx != nil {
		r.tx.lockProduct(productID)
	}
	return r.GetByProduct(productID)
}

func (r *memInventoryRepo) Update(inv *entity.Inventory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.tx != nil {
		if prev, ok := r.s.inventory[inv.ProductID]; ok {
			pre := copyInventory(prev)
			r.tx.record(func() { r.s.inventory[pre.ProductID] = pre })
		}
	}
	r.s.inventory[inv.ProductID] = copyInventory(inv)
	return nil
}

func (r *memInventoryRepo) List() ([]*entity.Inventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Inventory
	for _, inv := range r.s.inventory {
		out = append(out, copyInventory(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// ── TxRunner ─────────────────────────────────────────────────────────────────

// fakeTxRunner sirve tanto al checkout como al inventario. Cada invocación
// corre sobre una memTx propia: deshacer registrado en cada mutación, rollback
// en orden inverso si la función falla, y candados de fila retenidos hasta el
// final, de modo que transacciones concurrentes quedan bien modeladas.
type fakeTxRunner struct{ s *memStore }

func (r *fakeTxRunner) RunCheckout(ctx context.Context, fn func(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	invRepo repository.InventoryRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx := newMemTx(r.s)
	defer tx.release()
	err := fn(
		&memCartRepo{s: r.s, tx: tx},
		&memOrderRepo{s: r.s, tx: tx},
		&memInventoryRepo{s: r.s, tx: tx},
		&memProductRepo{s: r.s, tx: tx},
	)
	if err != nil {
		tx.rollback()
	}
	return err
}

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	invRepo repository.InventoryRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx := newMemTx(r.s)
	defer tx.release()
	err := fn(&memInventoryRepo{s: r.s, tx: tx}, &memProductRepo{s: r.s, tx: tx})
	if err != nil {
		tx.rollback()
	}
	return err
}

// ── Puertos de salida ────────────────────────────────────────────────────────

type publishedEvent struct {
	topic   string
	payload map[string]any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	fail   error
}

func (p *fakePublisher) Publish(topic string, payload map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, publishedEvent{topic: topic, payload: payload})
	return nil
}

func (p *fakePublisher) Subscribe(topic string, handler ports.MessageHandler) (ports.Subscription, error) {
	return nil, nil
}

func (p *fakePublisher) byTopic(topic string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e)
		}
	}
	return out
}

type fakeTelemetry struct {
	mu        sync.Mutex
	pushes    int
	lastStock int
	fail      error
}

func (t *fakeTelemetry) PushInventory(ctx context.Context, sensorID, stock int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return t.fail
	}
	t.pushes++
	t.lastStock = stock
	return nil
}

func (t *fakeTelemetry) PushEnvironment(ctx context.Context, temperature, humidity float64) error {
	return nil
}
