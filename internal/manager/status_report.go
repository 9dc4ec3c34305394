package manager

import (
	"context"

	"airouter/pkg/types"
)

// Status probes every backend and reports its readiness and load.
func (m *Manager) Status(ctx context.Context) types.StatusResponse {
	resp := types.StatusResponse{Ready: true, Backends: make([]types.BackendStatus, 0, len(m.order))}
	for i, s := range m.order {
		st := types.BackendStatus{
			Name:        s.name,
			Type:        s.typ,
			Ready:       true,
			Inflight:    len(s.genCh),
			MaxInflight: cap(s.genCh),
		}
		if s.queueCh != nil {
			st.Queued = len(s.queueCh) - len(s.genCh)
			if st.Queued < 0 {
				st.Queued = 0
			}
		}
		if err := m.handles[i].Ready(ctx); err != nil {
			st.Ready = false
			st.Error = err.Error()
			resp.Ready = false
		}
		resp.Backends = append(resp.Backends, st)
	}
	return resp
}
