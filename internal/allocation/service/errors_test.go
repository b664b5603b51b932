package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "railbook/internal/bookings/errors"
	inventoryerrors "railbook/internal/inventory/errors"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/lock"
	"testing"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      string
		retryable bool
	}{
		{"stale inventory revision", fmt.Errorf("%w: 12951:2026-11-02 at revision 1, vehicle at 2", inventoryerrors.ErrRevisionMismatch), apperrors.CodeStorageConflict, true},
		{"lost version race", inventoryerrors.ErrVersionConflict, apperrors.CodeStorageConflict, true},
		{"scope lock busy", fmt.Errorf("scope 12951:2026-11-02: %w", lock.ErrNotAcquired), apperrors.CodeStorageConflict, true},
		{"insufficient capacity", inventoryerrors.ErrInsufficientCapacity, apperrors.CodeInsufficientCapacity, false},
		{"booking not found", bookingserrors.ErrNotFound, apperrors.CodeNotFound, false},
		{"deadline", context.DeadlineExceeded, apperrors.CodeTimeout, false},
		{"unknown", errors.New("disk on fire"), apperrors.CodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var appErr *apperrors.AppError
			if !errors.As(toAppError(tt.err), &appErr) {
				t.Fatalf("expected *AppError, got %T", toAppError(tt.err))
			}
			if appErr.Code != tt.code {
				t.Errorf("code = %s, want %s", appErr.Code, tt.code)
			}
			if appErr.Retryable() != tt.retryable {
				t.Errorf("retryable = %v, want %v", appErr.Retryable(), tt.retryable)
			}
		})
	}
}
