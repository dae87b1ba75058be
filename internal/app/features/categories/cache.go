// internal/app/features/categories/cache.go
package categories

import (
	"net/http"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/categorycache"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/gates"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/response"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
)

type cacheView struct {
	Entries   []categorycache.Entry `json:"entries"`
	FetchedAt time.Time             `json:"fetched_at"`
}

// ServeCache handles GET /categories/cache: the id to value mapping
// permission checks currently use.
func (h *Handler) ServeCache(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAdmin(w, r); !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "category cache")
	defer cancel()

	entries, err := h.Resolver.Get(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load category cache failed", err, "")
		return
	}
	response.OK(w, cacheView{Entries: entries, FetchedAt: h.Resolver.FetchedAt()})
}

// HandleRefresh handles POST /categories/cache/refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAdmin(w, r); !g.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "category cache refresh")
	defer cancel()

	entries, err := h.Resolver.Refresh(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "refresh category cache failed", err, "")
		return
	}
	response.OK(w, cacheView{Entries: entries, FetchedAt: h.Resolver.FetchedAt()})
}
