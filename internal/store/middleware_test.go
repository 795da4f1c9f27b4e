package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/routesync/internal/ir"
)

func tagging(tag string, log *[]string) Middleware {
	return func(api API) func(next DispatchFunc) DispatchFunc {
		return func(next DispatchFunc) DispatchFunc {
			return func(a ir.Action) error {
				*log = append(*log, tag+":"+a.Type)
				return next(a)
			}
		}
	}
}

func TestMiddleware_Order(t *testing.T) {
	var log []string
	s := newTestStore(t, counterReducer, WithMiddleware(tagging("outer", &log), tagging("inner", &log)))

	require.NoError(t, s.Dispatch(ir.Action{Type: "inc"}))
	assert.Equal(t, []string{"outer:inc", "inner:inc"}, log)
	assert.Equal(t, 1, s.GetState())
}

func TestMiddleware_InitBypassesChain(t *testing.T) {
	var log []string
	newTestStore(t, counterReducer, WithMiddleware(tagging("mw", &log)))
	assert.Empty(t, log)
}

func TestMiddleware_CanSwallowAndRedispatch(t *testing.T) {
	swallow := func(api API) func(next DispatchFunc) DispatchFunc {
		return func(next DispatchFunc) DispatchFunc {
			return func(a ir.Action) error {
				if a.Type == "double" {
					if err := api.Dispatch(ir.Action{Type: "inc"}); err != nil {
						return err
					}
					return api.Dispatch(ir.Action{Type: "inc"})
				}
				return next(a)
			}
		}
	}
	s := newTestStore(t, counterReducer, WithMiddleware(swallow))

	require.NoError(t, s.Dispatch(ir.Action{Type: "double"}))
	assert.Equal(t, 2, s.GetState())
	assert.Equal(t, int64(2), s.DispatchCount())
}

func TestMiddleware_ErrorPropagates(t *testing.T) {
	boom := errors.New("rejected")
	reject := func(API) func(next DispatchFunc) DispatchFunc {
		return func(DispatchFunc) DispatchFunc {
			return func(ir.Action) error { return boom }
		}
	}
	s := newTestStore(t, counterReducer, WithMiddleware(reject))

	assert.ErrorIs(t, s.Dispatch(ir.Action{Type: "inc"}), boom)
	assert.Equal(t, 0, s.GetState())
}
