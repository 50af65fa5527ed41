// internal/app/features/admin/dashboard.go
package admin

import (
	"net/http"

	metricsstore "github.com/dalemusser/codeswitch/internal/app/store/metrics"
	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/dalemusser/codeswitch/internal/app/system/jsonio"
	"github.com/dalemusser/codeswitch/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type dashboardResponse struct {
	metricsstore.Counts
	AdminName string `json:"admin_name"`
}

// Dashboard returns site-wide counts.
// GET /admin/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, h.DB, h.now().UTC())

	name := "Admin"
	if u, ok := auth.CurrentUser(r); ok && u.Name != "" {
		name = u.Name
	}
	h.Log.Debug("admin dashboard served", zap.String("admin", name))
	jsonio.OK(w, dashboardResponse{Counts: counts, AdminName: name})
}
