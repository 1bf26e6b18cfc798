package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/entity"
)

// CreateInventoryItemRequest wraps parameters for creating an inventory item.
type CreateInventoryItemRequest struct {
	OwnerID   uuid.UUID
	Name      string // canonical name
	Unit      string
	Quantity  float64
	UnitPrice float64
}

// InventoryRepository stores the products each trader deals in. It satisfies
// normalize.Catalog.
type InventoryRepository interface {
	FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*entity.InventoryItem, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.InventoryItem, error)
	Create(ctx context.Context, req CreateInventoryItemRequest) (*entity.InventoryItem, error)
	FindOrCreate(ctx context.Context, req CreateInventoryItemRequest) (*entity.InventoryItem, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta float64, unitPrice *float64) error
}

type inventoryRepository struct {
	db     *DB
	now    func() time.Time
	logger *slog.Logger
}

func NewInventoryRepository(db *DB, logger *slog.Logger) InventoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &inventoryRepository{db: db, now: time.Now, logger: logger}
}

var inventoryColumns = []string{"id", "owner_id", "name", "unit", "quantity", "unit_price", "created_at", "updated_at"}

func (r *inventoryRepository) FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*entity.InventoryItem, error) {
	q, args := r.db.builder().
		Select(inventoryColumns...).
		From(entsql.Table(tableInventoryItems)).
		Where(entsql.And(
			entsql.EQ("owner_id", ownerID.String()),
			entsql.EQ("name", name),
		)).
		Limit(1).
		Query()

	item, err := scanInventoryItem(r.db.conn(ctx).QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inventory item %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to find inventory item", "owner_id", ownerID, "name", name, "error", err)
		return nil, common.DatabaseError("find inventory item", err)
	}
	return item, nil
}

func (r *inventoryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.InventoryItem, error) {
	q, args := r.db.builder().
		Select(inventoryColumns...).
		From(entsql.Table(tableInventoryItems)).
		Where(entsql.EQ("owner_id", ownerID.String())).
		OrderBy("name").
		Query()

	rows, err := r.db.conn(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list inventory", "owner_id", ownerID, "error", err)
		return nil, common.DatabaseError("list inventory", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, common.DatabaseError("scan inventory item", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError("list inventory", err)
	}
	return out, nil
}

func (r *inventoryRepository) newItem(req CreateInventoryItemRequest) (*entity.InventoryItem, *entsql.InsertBuilder) {
	now := r.now().UTC()
	item := &entity.InventoryItem{
		ID:        uuid.New(),
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Unit:      req.Unit,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ins := r.db.builder().
		Insert(tableInventoryItems).
		Columns(inventoryColumns...).
		Values(
			item.ID.String(), item.OwnerID.String(), item.Name, item.Unit,
			item.Quantity, item.UnitPrice, now.Format(timeLayout), now.Format(timeLayout),
		)
	return item, ins
}

func (r *inventoryRepository) Create(ctx context.Context, req CreateInventoryItemRequest) (*entity.InventoryItem, error) {
	item, ins := r.newItem(req)
	q, args := ins.Query()
	if _, err := r.db.conn(ctx).ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to create inventory item", "owner_id", req.OwnerID, "name", req.Name, "error", err)
		return nil, common.DatabaseError("create inventory item", err)
	}
	r.logger.Debug("inventory item created", "id", item.ID, "owner_id", item.OwnerID, "name", item.Name)
	return item, nil
}

// FindOrCreate inserts the item unless the owner already stocks that name, then
// returns the stored row. Concurrent callers for one name all get the same row.
func (r *inventoryRepository) FindOrCreate(ctx context.Context, req CreateInventoryItemRequest) (*entity.InventoryItem, error) {
	item, ins := r.newItem(req)
	q, args := ins.
		OnConflict(entsql.ConflictColumns("owner_id", "name"), entsql.DoNothing()).
		Query()

	res, err := r.db.conn(ctx).ExecContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to create inventory item", "owner_id", req.OwnerID, "name", req.Name, "error", err)
		return nil, common.DatabaseError("create inventory item", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		r.logger.Debug("inventory item created", "id", item.ID, "owner_id", item.OwnerID, "name", item.Name)
		return item, nil
	}
	return r.FindByOwnerAndName(ctx, req.OwnerID, req.Name)
}

// AdjustStock adds delta to the stocked quantity and, when given, records the latest unit price.
func (r *inventoryRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta float64, unitPrice *float64) error {
	u := r.db.builder().
		Update(tableInventoryItems).
		Add("quantity", delta).
		Set("updated_at", r.now().UTC().Format(timeLayout))
	if unitPrice != nil && *unitPrice > 0 {
		u = u.Set("unit_price", *unitPrice)
	}
	q, args := u.Where(entsql.EQ("id", id.String())).Query()

	res, err := r.db.conn(ctx).ExecContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to adjust stock", "id", id, "delta", delta, "error", err)
		return common.DatabaseError("adjust stock", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("inventory item %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventoryItem(row rowScanner) (*entity.InventoryItem, error) {
	var (
		item                 entity.InventoryItem
		id, ownerID          string
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &ownerID, &item.Name, &item.Unit, &item.Quantity, &item.UnitPrice, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if item.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("parse owner_id: %w", err)
	}
	item.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	item.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &item, nil
}
