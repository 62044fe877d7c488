package service

import (
	"context"
	"testing"

	"merchcrm/internal/errlog"
	"merchcrm/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inventoryFixture struct {
	inventory *fakeInventoryRepo
	audits    *fakeAuditRepo
	security  *fakeSecurityRepo
	tx        *fakeTxManager
	svc       InventoryService
	actorID   uuid.UUID
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	t.Helper()

	inventory := newFakeInventoryRepo()
	audits := &fakeAuditRepo{}
	security := &fakeSecurityRepo{}
	tx := &fakeTxManager{}

	svc := NewInventoryService(inventory, audits, tx, nil, errlog.NewRecorder(security))
	return &inventoryFixture{
		inventory: inventory,
		audits:    audits,
		security:  security,
		tx:        tx,
		svc:       svc,
		actorID:   uuid.New(),
	}
}

func TestRecordMovementIn(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()

	item := f.inventory.addItem(&model.InventoryItem{Name: "Футболка", Quantity: 5})

	tx, err := f.svc.RecordMovement(ctx, f.actorID, MovementRequest{
		ItemID:       item.ID.String(),
		Type:         model.TxTypeIn,
		ChangeAmount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, tx.ChangeAmount)

	stored, err := f.inventory.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.Quantity)

	require.Len(t, f.audits.entries, 1)
	assert.Equal(t, model.ActionInventoryChange, f.audits.entries[0].Action)
}

func TestRecordMovementOutNormalizesSign(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()

	item := f.inventory.addItem(&model.InventoryItem{Name: "Футболка", Quantity: 5})

	// Positive amount on an outbound movement still subtracts
	tx, err := f.svc.RecordMovement(ctx, f.actorID, MovementRequest{
		ItemID:       item.ID.String(),
		Type:         model.TxTypeOut,
		ChangeAmount: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, -3, tx.ChangeAmount)

	stored, err := f.inventory.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Quantity)
}

func TestRecordMovementRejectsNegativeStock(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()

	item := f.inventory.addItem(&model.InventoryItem{Name: "Футболка", Quantity: 2})

	_, err := f.svc.RecordMovement(ctx, f.actorID, MovementRequest{
		ItemID:       item.ID.String(),
		Type:         model.TxTypeOut,
		ChangeAmount: 5,
	})
	require.Error(t, err)
	assert.Equal(t, "Недостаточно товара на складе", err.Error())

	stored, err := f.inventory.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Quantity)
	assert.Empty(t, f.inventory.txs)
}

func TestRecordMovementUnknownType(t *testing.T) {
	f := newInventoryFixture(t)
	item := f.inventory.addItem(&model.InventoryItem{Name: "Футболка", Quantity: 2})

	_, err := f.svc.RecordMovement(context.Background(), f.actorID, MovementRequest{
		ItemID:       item.ID.String(),
		Type:         "teleport",
		ChangeAmount: 1,
	})
	require.Error(t, err)
	assert.Equal(t, "Неизвестный тип движения", err.Error())
}

func TestRecordMovementSnapshotsCostPrice(t *testing.T) {
	f := newInventoryFixture(t)

	item := f.inventory.addItem(&model.InventoryItem{
		Name:      "Футболка",
		Quantity:  5,
		CostPrice: requireDecimal(t, "120.50"),
	})

	tx, err := f.svc.RecordMovement(context.Background(), f.actorID, MovementRequest{
		ItemID:       item.ID.String(),
		Type:         model.TxTypeOut,
		ChangeAmount: 2,
	})
	require.NoError(t, err)
	assert.True(t, tx.CostPrice.Equal(item.CostPrice), "movement must carry the cost at the time it happened")
}

func TestBulkMovementsAtomic(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()

	a := f.inventory.addItem(&model.InventoryItem{Name: "Футболка", Quantity: 10})
	b := f.inventory.addItem(&model.InventoryItem{Name: "Кружка", Quantity: 1})

	// Snapshot hook mirrors a database rollback for the in-memory store
	f.tx.snapshot = func() func() {
		items := make(map[uuid.UUID]*model.InventoryItem, len(f.inventory.items))
		for k, v := range f.inventory.items {
			copied := *v
			items[k] = &copied
		}
		txs := append([]*model.InventoryTransaction(nil), f.inventory.txs...)
		return func() {
			f.inventory.items = items
			f.inventory.txs = txs
		}
	}

	_, err := f.svc.RecordMovements(ctx, f.actorID, BulkMovementRequest{
		Movements: []MovementRequest{
			{ItemID: a.ID.String(), Type: model.TxTypeOut, ChangeAmount: 5},
			{ItemID: b.ID.String(), Type: model.TxTypeOut, ChangeAmount: 3}, // Not enough stock
		},
	})
	require.Error(t, err)
	assert.Equal(t, "Недостаточно товара на складе", err.Error())

	// The first movement must have been rolled back with the second
	storedA, err := f.inventory.GetItem(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, storedA.Quantity)
	assert.Empty(t, f.inventory.txs)
}

func TestBulkMovementsEmpty(t *testing.T) {
	f := newInventoryFixture(t)

	_, err := f.svc.RecordMovements(context.Background(), f.actorID, BulkMovementRequest{})
	require.Error(t, err)
	assert.Equal(t, "Список движений пуст", err.Error())
}
