package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/presenter/http/render"
	"github.com/omni/retryables-monitor/retryables"
)

type ctxKey int

const (
	rollupCfgCtxKey ctxKey = iota
	txHashCtxKey
	messageIndexCtxKey
	ticketsFilterCtxKey
)

const (
	defaultTicketsLimit = 100
	maxTicketsLimit     = 1000
)

var (
	ErrUnknownRollup    = errors.New("unknown rollup")
	ErrInvalidParameter = errors.New("invalid parameter")
)

type TicketsFilter struct {
	Status    entity.TicketStatus
	OlderThan *time.Duration
	Limit     uint
}

// GetRollupConfigMiddleware resolves the rollup from the rollupID url param or the rollup query param.
// When only one rollup is configured, it is used by default.
func GetRollupConfigMiddleware(rollups map[string]*config.RollupConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rollupID := chi.URLParam(r, "rollupID")
			if rollupID == "" {
				rollupID = r.URL.Query().Get("rollup")
			}
			if rollupID == "" && len(rollups) == 1 {
				for id := range rollups {
					rollupID = id
				}
			}

			rollupCfg, ok := rollups[rollupID]
			if !ok || rollupCfg == nil {
				render.Error(w, r, render.NewError(http.StatusNotFound, fmt.Errorf("%w: %q", ErrUnknownRollup, rollupID)))
				return
			}

			ctx := context.WithValue(r.Context(), rollupCfgCtxKey, rollupCfg)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RollupConfig(ctx context.Context) *config.RollupConfig {
	if cfg, ok := ctx.Value(rollupCfgCtxKey).(*config.RollupConfig); ok {
		return cfg
	}
	return nil
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %q is not a 32-byte hex string", ErrInvalidParameter, s)
	}
	return common.BytesToHash(b), nil
}

// GetHashMiddleware parses a 32-byte hash url param under the given name.
func GetHashMiddleware(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hash, err := parseHash(chi.URLParam(r, param))
			if err != nil {
				render.Error(w, r, render.NewError(http.StatusBadRequest, err))
				return
			}

			ctx := context.WithValue(r.Context(), txHashCtxKey, hash)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Hash(ctx context.Context) common.Hash {
	if hash, ok := ctx.Value(txHashCtxKey).(common.Hash); ok {
		return hash
	}
	return common.Hash{}
}

// GetMessageIndexMiddleware parses the optional message index from the url or the index query param.
func GetMessageIndexMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		indexStr := chi.URLParam(r, "index")
		if indexStr == "" {
			indexStr = r.URL.Query().Get("index")
			if indexStr == "" {
				next.ServeHTTP(w, r)
				return
			}
		}

		index, err := strconv.Atoi(indexStr)
		if err != nil {
			render.Error(w, r, render.NewError(http.StatusBadRequest, fmt.Errorf("%w: failed to parse index: %v", ErrInvalidParameter, err)))
			return
		}

		ctx := context.WithValue(r.Context(), messageIndexCtxKey, index)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func MessageIndex(ctx context.Context) *int {
	if index, ok := ctx.Value(messageIndexCtxKey).(int); ok {
		return &index
	}
	return nil
}

func GetTicketsFilterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := &TicketsFilter{
			Status: entity.TicketStatusCreated,
			Limit:  defaultTicketsLimit,
		}

		if statusStr := query.Get("status"); statusStr != "" {
			status, err := retryables.ParseStatus(statusStr)
			if err != nil {
				render.Error(w, r, render.NewError(http.StatusBadRequest, err))
				return
			}
			filter.Status = entity.TicketStatus(status.String())
		}

		if olderThanStr := query.Get("older_than"); olderThanStr != "" {
			olderThan, err := time.ParseDuration(olderThanStr)
			if err != nil {
				render.Error(w, r, render.NewError(http.StatusBadRequest, fmt.Errorf("%w: failed to parse older_than: %v", ErrInvalidParameter, err)))
				return
			}
			if filter.Status != entity.TicketStatusCreated {
				render.Error(w, r, render.NewError(http.StatusBadRequest, fmt.Errorf("%w: older_than is supported only for created tickets", ErrInvalidParameter)))
				return
			}
			filter.OlderThan = &olderThan
		}

		if limitStr := query.Get("limit"); limitStr != "" {
			limit, err := strconv.ParseUint(limitStr, 10, 32)
			if err != nil || limit == 0 || limit > maxTicketsLimit {
				render.Error(w, r, render.NewError(http.StatusBadRequest, fmt.Errorf("%w: limit should be between 1 and %d", ErrInvalidParameter, maxTicketsLimit)))
				return
			}
			filter.Limit = uint(limit)
		}

		ctx := context.WithValue(r.Context(), ticketsFilterCtxKey, filter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetTicketsFilter(ctx context.Context) *TicketsFilter {
	if filter, ok := ctx.Value(ticketsFilterCtxKey).(*TicketsFilter); ok {
		return filter
	}
	return &TicketsFilter{Status: entity.TicketStatusCreated, Limit: defaultTicketsLimit}
}
