package txn

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	standalone := mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("category not found"), false},
		{"standalone server", standalone, true},
		{"illegal operation code", mongo.CommandError{Code: 51, Message: "Illegal operation"}, true},
		{"not allowed in transaction code", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"unrelated command error", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error collection: categories"}, false},
		// The category cascade wraps driver errors before they reach Run.
		{"wrapped by category delete", fmt.Errorf("pull category from users: %w", standalone), true},
		{"wrapped duplicate", fmt.Errorf("insert category: %w", mongo.CommandError{Code: 11000}), false},
		{"message mentions replica set", errors.New("Transaction failed: not a Replica Set member"), true},
		{"message mentions unsupported sessions", errors.New("session operations are NOT SUPPORTED by this deployment"), true},
		{"message mentions transaction and session", errors.New("cannot start transaction in current session state"), true},
		{"illegal operation text", errors.New("illegal operation during roster update"), true},
		{"transaction alone", errors.New("transaction aborted"), false},
		{"session alone", errors.New("session expired"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
