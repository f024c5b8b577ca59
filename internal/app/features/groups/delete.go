// internal/app/features/groups/delete.go
package groups

import (
	"net/http"

	"github.com/dalemusser/directory/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"go.uber.org/zap"
)

// HandleDelete removes the group after unlinking every member, so no
// person is left pointing at a missing group.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	gid, ok := h.groupID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "group delete")
	defer cancel()

	if err := h.Members.Unlink(ctx, gid); err != nil {
		h.ErrLog.LogServerError(w, r, "unlink group members", err, "A database error occurred.", "/admin/groups")
		return
	}
	n, err := h.Groups.Delete(ctx, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete group", err, "A database error occurred.", "/admin/groups")
		return
	}
	if n == 0 {
		h.Log.Warn("delete: group already gone", zap.String("group_id", gid.Hex()))
	} else {
		h.Audit.GroupDeleted(ctx, r, gid)
	}

	http.Redirect(w, r, httpnav.ResolveBackURL(r, "/admin/groups"), http.StatusSeeOther)
}
