package feed

import (
	"net/http"

	"github.com/BitGladiator/Vistagram/internal/shared/httpx"
	"github.com/BitGladiator/Vistagram/internal/shared/jwt"
)

type Handler struct {
	svc             Service
	defaultPageSize int
}

func NewHandler(s Service, defaultPageSize int) *Handler {
	return &Handler{svc: s, defaultPageSize: defaultPageSize}
}

// Protected: home feed of the current viewer.
func (h *Handler) GetHomeFeed(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	page := httpx.QueryInt(r, "page", 1)
	limit := httpx.QueryInt(r, "limit", h.defaultPageSize)
	fp, err := h.svc.HomeFeed(r.Context(), uid, page, limit)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, fp, http.StatusOK)
	return nil
}

// Protected: explore feed of the current viewer.
func (h *Handler) GetExploreFeed(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	page := httpx.QueryInt(r, "page", 1)
	limit := httpx.QueryInt(r, "limit", h.defaultPageSize)
	fp, err := h.svc.ExploreFeed(r.Context(), uid, page, limit)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, fp, http.StatusOK)
	return nil
}

// Public: a user's own post feed. A bearer token, when present, only adds the
// viewer's like state; the cached payload is shared.
func (h *Handler) GetUserFeed(w http.ResponseWriter, r *http.Request) error {
	subject := r.PathValue("user_id")
	page := httpx.QueryInt(r, "page", 1)
	limit := httpx.QueryInt(r, "limit", h.defaultPageSize)

	viewer := ""
	if tok := httpx.BearerToken(r); tok != "" {
		if uid, err := jwt.Parse(tok); err == nil {
			viewer = uid
		}
	}

	fp, err := h.svc.UserFeed(r.Context(), viewer, subject, page, limit)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, fp, http.StatusOK)
	return nil
}

// Protected: force-clear the caller's own cached feeds, masking invalidation
// latency after local actions.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) error {
	uid, err := httpx.UserFromCtx(r)
	if err != nil {
		return err
	}
	if err := h.svc.ClearViewerCache(r.Context(), uid); err != nil {
		return err
	}
	httpx.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	return nil
}
