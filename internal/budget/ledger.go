/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package budget implements the hierarchical budget ledger: an
// append-only transaction journal backing a derived-balance table per
// cell, with allocate/spend/reclaim/topUp mutations applied under
// row-level locking so concurrent descendants never observe or produce a
// negative available balance. It tracks a multi-level hierarchy rather
// than a single root-only rollup.
package budget

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hortator-ai/cellforge/internal/cferrors"
)

// Balance is the derived state of one cell's budget row.
type Balance struct {
	CellID       string  `db:"cell_id"`
	ParentCellID *string `db:"parent_cell_id"`
	Allocated    float64 `db:"allocated"`
	Spent        float64 `db:"spent"`
	Delegated    float64 `db:"delegated"`
}

// Available is allocated − spent − delegated, the amount a cell may still
// spend or delegate to children.
func (b Balance) Available() float64 {
	return b.Allocated - b.Spent - b.Delegated
}

// Entry is one row of the append-only ledger journal.
type Entry struct {
	ID           int64    `db:"id"`
	CellID       string   `db:"cell_id"`
	TxType       string   `db:"tx_type"`
	Amount       float64  `db:"amount"`
	BalanceAfter float64  `db:"balance_after"`
	Counterparty *string  `db:"counterparty"`
	Reason       *string  `db:"reason"`
}

// ErrNotFound is returned when a cell has no budget row.
var ErrNotFound = errors.New("budget: cell has no balance row")

// Ledger is the hierarchical budget store, backed by Postgres.
type Ledger struct {
	db *sqlx.DB
}

// New wraps an already-connected *sqlx.DB. Migrations are applied
// separately via the goose runner in cmd/controller.
func New(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

// InitRoot creates a root cell's balance row (no parent) with the given
// initial allocation. It is a no-op if the row already exists.
func (l *Ledger) InitRoot(ctx context.Context, cellID string, allocated float64) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO budget_balances (cell_id, parent_cell_id, allocated)
		VALUES ($1, NULL, $2)
		ON CONFLICT (cell_id) DO NOTHING`, cellID, allocated)
	if err != nil {
		return cferrors.Transient(err, "init root balance for %s", cellID)
	}
	if allocated > 0 {
		_, err = l.db.ExecContext(ctx, `
			INSERT INTO budget_ledger (cell_id, tx_type, amount, balance_after, reason)
			VALUES ($1, 'allocate', $2, $2, 'initial allocation')`, cellID, allocated)
		if err != nil {
			return cferrors.Transient(err, "journal init root balance for %s", cellID)
		}
	}
	return nil
}

// lockRows locks the budget_balances rows for the given cell IDs, in
// ascending cellID order, to avoid deadlocking against a concurrent
// mutation that touches the same two rows in the opposite order.
func lockRows(ctx context.Context, tx *sqlx.Tx, cellIDs ...string) (map[string]Balance, error) {
	ordered := append([]string(nil), cellIDs...)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j] < ordered[j-1]; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	out := make(map[string]Balance, len(ordered))
	for _, id := range ordered {
		var b Balance
		err := tx.GetContext(ctx, &b, `
			SELECT cell_id, parent_cell_id, allocated, spent, delegated
			FROM budget_balances WHERE cell_id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return nil, cferrors.Transient(err, "lock balance row %s", id)
		}
		out[id] = b
	}
	return out, nil
}

func appendJournal(ctx context.Context, tx *sqlx.Tx, cellID, txType string, amount, balanceAfter float64, counterparty, reason string) error {
	var cp, rs *string
	if counterparty != "" {
		cp = &counterparty
	}
	if reason != "" {
		rs = &reason
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO budget_ledger (cell_id, tx_type, amount, balance_after, counterparty, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`, cellID, txType, amount, balanceAfter, cp, rs)
	if err != nil {
		return cferrors.Transient(err, "append ledger entry for %s", cellID)
	}
	return nil
}

// Allocate delegates amount from parentCellID to childCellID, creating
// childCellID's balance row if it does not already exist. Fails if
// parentCellID's available balance is insufficient.
func (l *Ledger) Allocate(ctx context.Context, parentCellID, childCellID string, amount float64) error {
	if amount <= 0 {
		return cferrors.Validation("allocate amount must be positive, got %v", amount)
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return cferrors.Transient(err, "begin allocate tx")
	}
	defer func() { _ = tx.Rollback() }()

	balances, err := lockRows(ctx, tx, parentCellID)
	if err != nil {
		return err
	}
	parent := balances[parentCellID]
	if parent.Available() < amount {
		return cferrors.BudgetExceeded("cell %s has %.6f available, cannot allocate %.6f", parentCellID, parent.Available(), amount)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO budget_balances (cell_id, parent_cell_id, allocated)
		VALUES ($1, $2, 0)
		ON CONFLICT (cell_id) DO NOTHING`, childCellID, parentCellID); err != nil {
		return cferrors.Transient(err, "create child balance row %s", childCellID)
	}

	childBalances, err := lockRows(ctx, tx, childCellID)
	if err != nil {
		return err
	}
	child := childBalances[childCellID]

	if _, err := tx.ExecContext(ctx, `UPDATE budget_balances SET delegated = delegated + $1, updated_at = now() WHERE cell_id = $2`, amount, parentCellID); err != nil {
		return cferrors.Transient(err, "update parent delegated %s", parentCellID)
	}
	if err := appendJournal(ctx, tx, parentCellID, "delegate", amount, parent.Allocated-parent.Spent-(parent.Delegated+amount), childCellID, ""); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE budget_balances SET allocated = allocated + $1, updated_at = now() WHERE cell_id = $2`, amount, childCellID); err != nil {
		return cferrors.Transient(err, "update child allocated %s", childCellID)
	}
	if err := appendJournal(ctx, tx, childCellID, "allocate", amount, (child.Allocated+amount)-child.Spent-child.Delegated, parentCellID, ""); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return cferrors.Transient(err, "commit allocate tx")
	}
	return nil
}

// Spend debits amount from cellID's available balance.
func (l *Ledger) Spend(ctx context.Context, cellID string, amount float64, reason string) error {
	if amount <= 0 {
		return cferrors.Validation("spend amount must be positive, got %v", amount)
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return cferrors.Transient(err, "begin spend tx")
	}
	defer func() { _ = tx.Rollback() }()

	balances, err := lockRows(ctx, tx, cellID)
	if err != nil {
		return err
	}
	b := balances[cellID]
	if b.Available() < amount {
		return cferrors.BudgetExceeded("cell %s has %.6f available, cannot spend %.6f", cellID, b.Available(), amount)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE budget_balances SET spent = spent + $1, updated_at = now() WHERE cell_id = $2`, amount, cellID); err != nil {
		return cferrors.Transient(err, "update spent %s", cellID)
	}
	if err := appendJournal(ctx, tx, cellID, "spend", amount, b.Allocated-(b.Spent+amount)-b.Delegated, "", reason); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return cferrors.Transient(err, "commit spend tx")
	}
	return nil
}

// Reclaim transfers childCellID's entire available balance back to
// parentCellID: childCellID's allocated and parentCellID's delegated both
// drop by that amount. It returns the amount reclaimed, which is zero (and
// no error) when the child has nothing available to give back.
func (l *Ledger) Reclaim(ctx context.Context, parentCellID, childCellID string) (float64, error) {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, cferrors.Transient(err, "begin reclaim tx")
	}
	defer func() { _ = tx.Rollback() }()

	balances, err := lockRows(ctx, tx, parentCellID, childCellID)
	if err != nil {
		return 0, err
	}
	parent := balances[parentCellID]
	child := balances[childCellID]

	amount := child.Available()
	if amount <= 0 {
		return 0, nil
	}
	if parent.Delegated < amount {
		amount = parent.Delegated
	}
	if amount <= 0 {
		return 0, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE budget_balances SET delegated = delegated - $1, updated_at = now() WHERE cell_id = $2`, amount, parentCellID); err != nil {
		return 0, cferrors.Transient(err, "update parent delegated %s", parentCellID)
	}
	if err := appendJournal(ctx, tx, parentCellID, "reclaim", amount, parent.Allocated-parent.Spent-(parent.Delegated-amount), childCellID, ""); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE budget_balances SET allocated = allocated - $1, updated_at = now() WHERE cell_id = $2`, amount, childCellID); err != nil {
		return 0, cferrors.Transient(err, "update child allocated %s", childCellID)
	}
	if err := appendJournal(ctx, tx, childCellID, "reclaim", amount, (child.Allocated-amount)-child.Spent-child.Delegated, parentCellID, ""); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, cferrors.Transient(err, "commit reclaim tx")
	}
	return amount, nil
}

// TopUp increases a root cell's allocated balance directly, outside the
// parent/child delegation chain (an operator funding the top of a tree).
func (l *Ledger) TopUp(ctx context.Context, cellID string, amount float64) error {
	if amount <= 0 {
		return cferrors.Validation("topup amount must be positive, got %v", amount)
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return cferrors.Transient(err, "begin topup tx")
	}
	defer func() { _ = tx.Rollback() }()

	balances, err := lockRows(ctx, tx, cellID)
	if err != nil {
		return err
	}
	b := balances[cellID]

	if _, err := tx.ExecContext(ctx, `UPDATE budget_balances SET allocated = allocated + $1, updated_at = now() WHERE cell_id = $2`, amount, cellID); err != nil {
		return cferrors.Transient(err, "update allocated %s", cellID)
	}
	if err := appendJournal(ctx, tx, cellID, "topup", amount, (b.Allocated+amount)-b.Spent-b.Delegated, "", ""); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return cferrors.Transient(err, "commit topup tx")
	}
	return nil
}

// GetBalance returns cellID's current derived balance.
func (l *Ledger) GetBalance(ctx context.Context, cellID string) (Balance, error) {
	var b Balance
	err := l.db.GetContext(ctx, &b, `
		SELECT cell_id, parent_cell_id, allocated, spent, delegated
		FROM budget_balances WHERE cell_id = $1`, cellID)
	if errors.Is(err, sql.ErrNoRows) {
		return Balance{}, fmt.Errorf("%w: %s", ErrNotFound, cellID)
	}
	if err != nil {
		return Balance{}, cferrors.Transient(err, "get balance %s", cellID)
	}
	return b, nil
}

// GetHistory returns the most recent ledger entries for cellID, newest
// first, bounded by limit.
func (l *Ledger) GetHistory(ctx context.Context, cellID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []Entry
	err := l.db.SelectContext(ctx, &entries, `
		SELECT id, cell_id, tx_type, amount, balance_after, counterparty, reason
		FROM budget_ledger WHERE cell_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, cellID, limit)
	if err != nil {
		return nil, cferrors.Transient(err, "get history %s", cellID)
	}
	return entries, nil
}

// GetTree returns the balance of rootCellID and every descendant reachable
// through parent_cell_id, via a recursive CTE — independent of the Cell
// resource store, since the ledger's own parent_cell_id column is
// authoritative for delegation relationships.
func (l *Ledger) GetTree(ctx context.Context, rootCellID string) ([]Balance, error) {
	var balances []Balance
	err := l.db.SelectContext(ctx, &balances, `
		WITH RECURSIVE tree AS (
			SELECT cell_id, parent_cell_id, allocated, spent, delegated
			FROM budget_balances WHERE cell_id = $1
			UNION ALL
			SELECT b.cell_id, b.parent_cell_id, b.allocated, b.spent, b.delegated
			FROM budget_balances b
			JOIN tree t ON b.parent_cell_id = t.cell_id
		)
		SELECT cell_id, parent_cell_id, allocated, spent, delegated FROM tree`, rootCellID)
	if err != nil {
		return nil, cferrors.Transient(err, "get tree %s", rootCellID)
	}
	return balances, nil
}
