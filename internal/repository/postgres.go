package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PgxPool is the subset of *pgxpool.Pool used by PostgresRepo
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxExecutor is an interface that matches both the pool and pgx.Tx
type PgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepo is the PostgreSQL implementation of Store
type PostgresRepo struct {
	db PgxPool
}

// NewPostgresRepo creates a repository on top of a pgx pool
func NewPostgresRepo(db PgxPool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

type txKey struct{}

// RunAtomic executes fn within a transaction carried by ctx; nested calls join it
func (r *PostgresRepo) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepo) getExecutor(ctx context.Context) PgxExecutor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.db
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

const itemColumns = `id, name, description, starting_price, current_price, image_url, end_time, status, created_by, winner_bid_id, created_at, updated_at`

func scanItem(row pgx.Row) (model.Item, error) {
	var (
		item   model.Item
		status string
	)
	err := row.Scan(
		&item.ItemID, &item.Name, &item.Description,
		&item.StartingPrice, &item.CurrentPrice, &item.ImageURL,
		&item.EndTime, &status, &item.CreatedBy, &item.WinnerBidID,
		&item.CreatedAt, &item.UpdatedAt,
	)
	item.Status = model.ItemStatus(status)
	return item, err
}

// CreateItem inserts a new item
func (r *PostgresRepo) CreateItem(ctx context.Context, item model.Item) error {
	_, err := r.getExecutor(ctx).Exec(ctx,
		`INSERT INTO items (id, name, description, starting_price, current_price, image_url, end_time, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		item.ItemID, item.Name, item.Description, item.StartingPrice, item.CurrentPrice,
		item.ImageURL, item.EndTime, string(item.Status), item.CreatedBy, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("repository: create item %s: %w", item.ItemID, auctionerrors.ErrUserNotFound)
		}
		return fmt.Errorf("repository: create item %s: %w", item.ItemID, err)
	}
	return nil
}

func (r *PostgresRepo) getItem(ctx context.Context, itemID, suffix string) (model.Item, error) {
	if !utils.IsValidID(itemID) {
		return model.Item{}, fmt.Errorf("repository: get item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	item, err := scanItem(r.getExecutor(ctx).QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`+suffix, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Item{}, fmt.Errorf("repository: get item %s: %w", itemID, auctionerrors.ErrItemNotFound)
		}
		return model.Item{}, fmt.Errorf("repository: get item %s: %w", itemID, err)
	}
	return item, nil
}

// GetItem returns a single item
func (r *PostgresRepo) GetItem(ctx context.Context, itemID string) (model.Item, error) {
	return r.getItem(ctx, itemID, "")
}

// GetItemForUpdate locks the item row until the surrounding transaction ends
func (r *PostgresRepo) GetItemForUpdate(ctx context.Context, itemID string) (model.Item, error) {
	return r.getItem(ctx, itemID, " FOR UPDATE")
}

// ListItems returns all items, newest first
func (r *PostgresRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	rows, err := r.getExecutor(ctx).Query(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("repository: list items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: list items: %w", err)
	}
	return items, nil
}

// DeleteItem removes an item; items referenced by bids are rejected by the schema
func (r *PostgresRepo) DeleteItem(ctx context.Context, itemID string) error {
	if !utils.IsValidID(itemID) {
		return fmt.Errorf("repository: delete item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	tag, err := r.getExecutor(ctx).Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("repository: delete item %s: %w", itemID, auctionerrors.ErrItemHasBids)
		}
		return fmt.Errorf("repository: delete item %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository: delete item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return nil
}

// UpdateItemPrice sets the current price of an item
func (r *PostgresRepo) UpdateItemPrice(ctx context.Context, itemID string, price decimal.Decimal) error {
	if !utils.IsValidID(itemID) {
		return fmt.Errorf("repository: update price of item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE items SET current_price = $1, updated_at = now() WHERE id = $2`, price, itemID)
	if err != nil {
		return fmt.Errorf("repository: update price of item %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository: update price of item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return nil
}

// UpdateItemStatus overwrites the status of an item
func (r *PostgresRepo) UpdateItemStatus(ctx context.Context, itemID string, status model.ItemStatus) error {
	if !utils.IsValidID(itemID) {
		return fmt.Errorf("repository: update status of item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE items SET status = $1, updated_at = now() WHERE id = $2`, string(status), itemID)
	if err != nil {
		return fmt.Errorf("repository: update status of item %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository: update status of item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return nil
}

// CloseExpiredItems closes every open item whose end time is not after now
func (r *PostgresRepo) CloseExpiredItems(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE items SET status = 'closed', updated_at = $1 WHERE status = 'open' AND end_time <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("repository: close expired items: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecordBidForItem inserts a bid
func (r *PostgresRepo) RecordBidForItem(ctx context.Context, bid model.Bid) error {
	if !utils.IsValidID(bid.ItemID) {
		return fmt.Errorf("repository: record bid for item %s: %w", bid.ItemID, auctionerrors.ErrItemNotFound)
	}
	_, err := r.getExecutor(ctx).Exec(ctx,
		`INSERT INTO bids (id, item_id, user_id, amount, created_at) VALUES ($1, $2, $3, $4, $5)`,
		bid.BidID, bid.ItemID, bid.UserID, bid.Amount, bid.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("repository: record bid for item %s: %w", bid.ItemID, auctionerrors.ErrItemNotFound)
		}
		return fmt.Errorf("repository: record bid for item %s: %w", bid.ItemID, err)
	}
	return nil
}

func (r *PostgresRepo) queryBids(ctx context.Context, query string, arg string) ([]model.Bid, error) {
	if !utils.IsValidID(arg) {
		return []model.Bid{}, nil
	}
	rows, err := r.getExecutor(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.BidID, &b.ItemID, &b.UserID, &b.Amount, &b.CreatedAt); err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// GetBidsByItem returns all bids for an item, highest first
func (r *PostgresRepo) GetBidsByItem(ctx context.Context, itemID string) ([]model.Bid, error) {
	bids, err := r.queryBids(ctx,
		`SELECT id, item_id, user_id, amount, created_at FROM bids WHERE item_id = $1 ORDER BY amount DESC, created_at ASC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("repository: get bids for item %s: %w", itemID, err)
	}
	return bids, nil
}

// GetBidsByUser returns all bids placed by a user, newest first
func (r *PostgresRepo) GetBidsByUser(ctx context.Context, userID string) ([]model.Bid, error) {
	bids, err := r.queryBids(ctx,
		`SELECT id, item_id, user_id, amount, created_at FROM bids WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: get bids for user %s: %w", userID, err)
	}
	return bids, nil
}

const userColumns = `id, username, email, password_hash, role, name, address, identity_number, bio, photo_url, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(&u.UserID, &u.Username, &u.Email, &u.PasswordHash, &role,
		&u.Name, &u.Address, &u.IdentityNumber, &u.Bio, &u.PhotoURL, &u.CreatedAt, &u.UpdatedAt)
	u.Role = model.Role(role)
	return u, err
}

// CreateUser inserts a new user
func (r *PostgresRepo) CreateUser(ctx context.Context, user model.User) error {
	_, err := r.getExecutor(ctx).Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.UserID, user.Username, user.Email, user.PasswordHash, string(user.Role),
		user.Name, user.Address, user.IdentityNumber, user.Bio, user.PhotoURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return fmt.Errorf("repository: create user %s: %w", user.Username, auctionerrors.ErrDuplicateUser)
		}
		return fmt.Errorf("repository: create user %s: %w", user.Username, err)
	}
	return nil
}

func (r *PostgresRepo) getUser(ctx context.Context, key, where string) (model.User, error) {
	user, err := scanUser(r.getExecutor(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("repository: get user %s: %w", key, auctionerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("repository: get user %s: %w", key, err)
	}
	return user, nil
}

// GetUserByID returns a user by identifier
func (r *PostgresRepo) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	if !utils.IsValidID(userID) {
		return model.User{}, fmt.Errorf("repository: get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return r.getUser(ctx, userID, `id = $1`)
}

// GetUserByUsername returns a user by login name
func (r *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getUser(ctx, username, `lower(username) = lower($1)`)
}

// UpdateProfile overwrites the profile fields of a user
func (r *PostgresRepo) UpdateProfile(ctx context.Context, userID string, profile model.Profile, updatedAt time.Time) (model.User, error) {
	if !utils.IsValidID(userID) {
		return model.User{}, fmt.Errorf("repository: update profile %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	user, err := scanUser(r.getExecutor(ctx).QueryRow(ctx,
		`UPDATE users SET name = $1, address = $2, identity_number = $3, bio = $4, photo_url = $5, updated_at = $6
		 WHERE id = $7 RETURNING `+userColumns,
		profile.Name, profile.Address, profile.IdentityNumber, profile.Bio, profile.PhotoURL, updatedAt, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("repository: update profile %s: %w", userID, auctionerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("repository: update profile %s: %w", userID, err)
	}
	return user, nil
}
