/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package budget

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/hortator-ai/cellforge/internal/cferrors"
)

func newMockLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func balanceRows(cellID string, parent *string, allocated, spent, delegated float64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"cell_id", "parent_cell_id", "allocated", "spent", "delegated"}).
		AddRow(cellID, parent, allocated, spent, delegated)
}

func TestAllocate_Success(t *testing.T) {
	l, mock := newMockLedger(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT cell_id, parent_cell_id, allocated, spent, delegated\s+FROM budget_balances WHERE cell_id = \$1 FOR UPDATE`).
		WithArgs("parent").
		WillReturnRows(balanceRows("parent", nil, 100, 20, 10))
	mock.ExpectExec(`INSERT INTO budget_balances`).
		WithArgs("child", "parent").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT cell_id, parent_cell_id, allocated, spent, delegated\s+FROM budget_balances WHERE cell_id = \$1 FOR UPDATE`).
		WithArgs("child").
		WillReturnRows(balanceRows("child", strPtr("parent"), 0, 0, 0))
	mock.ExpectExec(`UPDATE budget_balances SET delegated = delegated \+ \$1`).
		WithArgs(30.0, "parent").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO budget_ledger`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE budget_balances SET allocated = allocated \+ \$1`).
		WithArgs(30.0, "child").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO budget_ledger`).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	if err := l.Allocate(ctx, "parent", "child", 30); err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAllocate_InsufficientFunds(t *testing.T) {
	l, mock := newMockLedger(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT cell_id, parent_cell_id, allocated, spent, delegated\s+FROM budget_balances WHERE cell_id = \$1 FOR UPDATE`).
		WithArgs("parent").
		WillReturnRows(balanceRows("parent", nil, 100, 90, 5))
	mock.ExpectRollback()

	err := l.Allocate(ctx, "parent", "child", 30)
	if err == nil {
		t.Fatal("expected insufficient-funds error, got nil")
	}
	if !isBudgetExceeded(err) {
		t.Errorf("expected BudgetExceeded error, got %v", err)
	}
}

func TestSpend_Success(t *testing.T) {
	l, mock := newMockLedger(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT cell_id, parent_cell_id, allocated, spent, delegated\s+FROM budget_balances WHERE cell_id = \$1 FOR UPDATE`).
		WithArgs("cell-1").
		WillReturnRows(balanceRows("cell-1", nil, 50, 10, 0))
	mock.ExpectExec(`UPDATE budget_balances SET spent = spent \+ \$1`).
		WithArgs(15.0, "cell-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO budget_ledger`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := l.Spend(ctx, "cell-1", 15, "tool call"); err != nil {
		t.Fatalf("Spend() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSpend_OverBudget(t *testing.T) {
	l, mock := newMockLedger(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT cell_id, parent_cell_id, allocated, spent, delegated\s+FROM budget_balances WHERE cell_id = \$1 FOR UPDATE`).
		WithArgs("cell-1").
		WillReturnRows(balanceRows("cell-1", nil, 50, 49, 0))
	mock.ExpectRollback()

	err := l.Spend(ctx, "cell-1", 5, "tool call")
	if !isBudgetExceeded(err) {
		t.Errorf("expected BudgetExceeded error, got %v", err)
	}
}

func TestSpend_RejectsNonPositiveAmount(t *testing.T) {
	l, mock := newMockLedger(t)
	if err := l.Spend(context.Background(), "cell-1", 0, "noop"); err == nil {
		t.Error("expected validation error for zero amount")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReclaim_TransfersFullAvailable(t *testing.T) {
	l, mock := newMockLedger(t)
	ctx := context.Background()

	mock.ExpectBegin()
	// lockRows locks in ascending cell-ID order: "child" sorts before "parent".
	mock.ExpectQuery(`SELECT cell_id, parent_cell_id, allocated, spent, delegated\s+FROM budget_balances WHERE cell_id = \$1 FOR UPDATE`).
		WithArgs("child").
		WillReturnRows(balanceRows("child", strPtr("parent"), 30, 5, 0))
	mock.ExpectQuery(`SELECT cell_id, parent_cell_id, allocated, spent, delegated\s+FROM budget_balances WHERE cell_id = \$1 FOR UPDATE`).
		WithArgs("parent").
		WillReturnRows(balanceRows("parent", nil, 100, 20, 30))
	mock.ExpectExec(`UPDATE budget_balances SET delegated = delegated - \$1`).
		WithArgs(25.0, "parent").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO budget_ledger`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE budget_balances SET allocated = allocated - \$1`).
		WithArgs(25.0, "child").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO budget_ledger`).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	got, err := l.Reclaim(ctx, "parent", "child")
	if err != nil {
		t.Fatalf("Reclaim() error: %v", err)
	}
	if got != 25.0 {
		t.Errorf("Reclaim() = %v, want 25 (child's full available balance)", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReclaim_NothingAvailableIsNotAnError(t *testing.T) {
	l, mock := newMockLedger(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT cell_id, parent_cell_id, allocated, spent, delegated\s+FROM budget_balances WHERE cell_id = \$1 FOR UPDATE`).
		WithArgs("child").
		WillReturnRows(balanceRows("child", strPtr("parent"), 30, 30, 0))
	mock.ExpectQuery(`SELECT cell_id, parent_cell_id, allocated, spent, delegated\s+FROM budget_balances WHERE cell_id = \$1 FOR UPDATE`).
		WithArgs("parent").
		WillReturnRows(balanceRows("parent", nil, 100, 20, 30))
	mock.ExpectRollback()

	got, err := l.Reclaim(ctx, "parent", "child")
	if err != nil {
		t.Fatalf("Reclaim() error: %v", err)
	}
	if got != 0 {
		t.Errorf("Reclaim() = %v, want 0", got)
	}
}

func TestBalance_Available(t *testing.T) {
	b := Balance{Allocated: 100, Spent: 40, Delegated: 20}
	if got := b.Available(); got != 40 {
		t.Errorf("Available() = %v, want 40", got)
	}
}

func strPtr(s string) *string { return &s }

func isBudgetExceeded(err error) bool {
	var ce *cferrors.Error
	for err != nil {
		if c, ok := err.(*cferrors.Error); ok {
			ce = c
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ce != nil && ce.Code == cferrors.CodeBudgetExceeded
}
