package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeExecute(t *testing.T) {
	tests := []struct {
		name      string
		fn        func() error
		wantPanic bool
		wantIs    error
		wantMsg   string
	}{
		{
			name:    "returned error passes through",
			fn:      func() error { return ErrEmptyData },
			wantIs:  ErrEmptyData,
			wantMsg: "empty data",
		},
		{
			name: "string panic",
			fn: func() error {
				panic("weights exploded")
			},
			wantPanic: true,
			wantMsg:   "panic in gridsearch.Train: weights exploded",
		},
		{
			name: "error panic unwraps",
			fn: func() error {
				panic(ErrNotFitted)
			},
			wantPanic: true,
			wantIs:    ErrNotFitted,
		},
		{
			name: "runtime error",
			fn: func() error {
				var history map[string][]float64
				history["loss"] = append(history["loss"], 1)
				return nil
			},
			wantPanic: true,
			wantMsg:   "assignment to entry in nil map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("gridsearch.Train", tt.fn)
			require.Error(t, err)

			var panicErr *PanicError
			assert.Equal(t, tt.wantPanic, As(err, &panicErr))
			if tt.wantPanic {
				assert.Equal(t, "gridsearch.Train", panicErr.Operation)
				assert.Contains(t, panicErr.StackTrace, "recovery_test.go")
				assert.True(t, strings.HasPrefix(panicErr.String(), panicErr.Error()))
			}
			if tt.wantIs != nil {
				assert.True(t, Is(err, tt.wantIs))
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestSafeExecuteNoError(t *testing.T) {
	calls := 0
	err := SafeExecute("noop", func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRecoverKeepsExistingError(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "Trainer.Train")
		err = NewValueError("Trainer.Train", "bad setting")
		panic("late panic")
	}

	err := fn()
	require.Error(t, err)

	var valErr *ValueError
	assert.True(t, As(err, &valErr), "the original error stays primary")
	assert.Contains(t, err.Error(), "bad setting")
}

func TestPanicErrorUnwrapNonError(t *testing.T) {
	p := NewPanicError("op", 42)
	assert.Nil(t, p.Unwrap())
	assert.Equal(t, "panic in op: 42", p.Error())
}
