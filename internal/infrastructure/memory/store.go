// Package memory implementa los repositorios en memoria. Sirve para APP_STORAGE=memory
// (desarrollo sin Postgres) y para las pruebas de casos de uso.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// state es una foto completa de los datos. Las transacciones trabajan sobre una copia y
// la publican al confirmar.
type state struct {
	products     map[string]entity.Product
	warehouses   map[string]entity.Warehouse
	customers    map[string]entity.Customer
	suppliers    map[string]entity.Supplier
	users        map[string]entity.User
	cashBoxes    map[string]entity.CashBox
	stock        map[entity.StockKey]entity.Stock
	movements    []entity.InventoryMovement
	reservations map[string]entity.Reservation
	serials      map[string]entity.SerialUnit
	orders       map[string]entity.Order
	sales        map[string]entity.Sale
	purchases    map[string]entity.Purchase
	payments     []entity.Payment
	agreements   map[string]entity.PaymentAgreement
	installments map[string]entity.Installment
	cashMoves    []entity.CashMovement
}

func newState() *state {
	return &state{
		products:     map[string]entity.Product{},
		warehouses:   map[string]entity.Warehouse{},
		customers:    map[string]entity.Customer{},
		suppliers:    map[string]entity.Supplier{},
		users:        map[string]entity.User{},
		cashBoxes:    map[string]entity.CashBox{},
		stock:        map[entity.StockKey]entity.Stock{},
		reservations: map[string]entity.Reservation{},
		serials:      map[string]entity.SerialUnit{},
		orders:       map[string]entity.Order{},
		sales:        map[string]entity.Sale{},
		purchases:    map[string]entity.Purchase{},
		agreements:   map[string]entity.PaymentAgreement{},
		installments: map[string]entity.Installment{},
	}
}

// clone copia los contenedores. Los valores guardados nunca se mutan en sitio (los
// repositorios copian al leer y al escribir), así que compartir sus slices es seguro.
func (s *state) clone() *state {
	return &state{
		products:     maps.Clone(s.products),
		warehouses:   maps.Clone(s.warehouses),
		customers:    maps.Clone(s.customers),
		suppliers:    maps.Clone(s.suppliers),
		users:        maps.Clone(s.users),
		cashBoxes:    maps.Clone(s.cashBoxes),
		stock:        maps.Clone(s.stock),
		movements:    append([]entity.InventoryMovement(nil), s.movements...),
		reservations: maps.Clone(s.reservations),
		serials:      maps.Clone(s.serials),
		orders:       maps.Clone(s.orders),
		sales:        maps.Clone(s.sales),
		purchases:    maps.Clone(s.purchases),
		payments:     append([]entity.Payment(nil), s.payments...),
		agreements:   maps.Clone(s.agreements),
		installments: maps.Clone(s.installments),
		cashMoves:    append([]entity.CashMovement(nil), s.cashMoves...),
	}
}

// Store guarda el estado confirmado. Un único mutex serializa las transacciones, lo que
// equivale a bloquear todas las filas: el orden canónico se respeta trivialmente.
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{state: newState()}
}

// accessor abstrae si un repositorio opera dentro de una transacción o contra el estado
// confirmado (una transacción implícita por llamada).
type accessor interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
}

type txAccessor struct{ st *state }

func (a txAccessor) read(fn func(st *state) error) error  { return fn(a.st) }
func (a txAccessor) write(fn func(st *state) error) error { return fn(a.st) }

type poolAccessor struct{ s *Store }

func (a poolAccessor) read(fn func(st *state) error) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return fn(a.s.state)
}

func (a poolAccessor) write(fn func(st *state) error) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	draft := a.s.state.clone()
	if err := fn(draft); err != nil {
		return err
	}
	a.s.state = draft
	return nil
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn no devuelve error.
// Los repositorios de pool (Repos) no deben usarse dentro de fn: el mutex no es reentrante.
func (s *Store) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.state.clone()
	if err := fn(bundle(txAccessor{st: draft})); err != nil {
		return err
	}
	s.state = draft
	return nil
}

// Repos devuelve los repositorios fuera de transacción.
func (s *Store) Repos() repository.TxRepos {
	return bundle(poolAccessor{s: s})
}

// Users devuelve el repositorio de usuarios (no participa de TxRepos).
func (s *Store) Users() repository.UserRepository {
	return userRepo{a: poolAccessor{s: s}}
}

func bundle(a accessor) repository.TxRepos {
	return repository.TxRepos{
		Stock:        stockRepo{a: a},
		Movements:    movementRepo{a: a},
		Reservations: reservationRepo{a: a},
		Serials:      serialRepo{a: a},
		Orders:       orderRepo{a: a},
		Sales:        saleRepo{a: a},
		Purchases:    purchaseRepo{a: a},
		Payments:     paymentRepo{a: a},
		Installments: installmentRepo{a: a},
		Cash:         cashRepo{a: a},
		Products:     productRepo{a: a},
		Warehouses:   warehouseRepo{a: a},
		Customers:    customerRepo{a: a},
		Suppliers:    supplierRepo{a: a},
	}
}
