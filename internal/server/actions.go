package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/peopledesk/peopledesk/internal/httputil"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// decodeAction decodes an action body. Bodies whose fields are all optional
// may be omitted.
func decodeAction(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := httputil.DecodeJSON(r, v)
	if err == nil || (optional && errors.Is(err, httputil.ErrEmptyBody)) {
		return true
	}
	httputil.RespondErrorf(w, r, http.StatusBadRequest, "invalid request body: %v", err)
	return false
}

func requireField(w http.ResponseWriter, r *http.Request, name, value string) bool {
	if strings.TrimSpace(value) != "" {
		return true
	}
	httputil.RespondErrorf(w, r, http.StatusBadRequest, "%s is required", name)
	return false
}

func (s *Server) handleProjectComplete(w http.ResponseWriter, r *http.Request) {
	respondItem(w, r, http.StatusOK, s.svc.Projects.Complete(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleRoomStatus(w http.ResponseWriter, r *http.Request) {
	var req types.StatusRequest
	if !decodeAction(w, r, &req, false) || !requireField(w, r, "status", req.Status) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.MeetingRooms.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status))
}

func (s *Server) handleRoomBookings(w http.ResponseWriter, r *http.Request) {
	p, _, err := parseListParams(r, s.cfg.MaxPageLimit)
	if err != nil {
		httputil.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p.OrderBy, p.Ascending = "start_time", true
	respondList(w, r, p, s.svc.RoomBookings.ListByRoom(r.Context(), chi.URLParam(r, "id"), &p))
}

func (s *Server) handleBookingCancel(w http.ResponseWriter, r *http.Request) {
	var req types.CancelRequest
	if !decodeAction(w, r, &req, true) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.RoomBookings.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason))
}

func (s *Server) handleEquipmentSafetyCheck(w http.ResponseWriter, r *http.Request) {
	var req types.SafetyCheckResult
	if !decodeAction(w, r, &req, false) || !requireField(w, r, "result", req.Result) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.Equipment.CompleteSafetyCheck(r.Context(), chi.URLParam(r, "id"), req))
}

func (s *Server) handleEquipmentReturn(w http.ResponseWriter, r *http.Request) {
	var req types.ReturnRequest
	if !decodeAction(w, r, &req, true) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.EquipmentBookings.Return(r.Context(), chi.URLParam(r, "id"), req.Condition, req.Notes))
}

func (s *Server) handleSafetyCheckComplete(w http.ResponseWriter, r *http.Request) {
	var req types.SafetyCheckResult
	if !decodeAction(w, r, &req, false) || !requireField(w, r, "result", req.Result) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.SafetyChecks.Complete(r.Context(), chi.URLParam(r, "id"), req))
}

func (s *Server) handleTravelApprove(w http.ResponseWriter, r *http.Request) {
	var req types.ApproveRequest
	if !decodeAction(w, r, &req, false) || !requireField(w, r, "approved_by", req.ApprovedBy) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.BusinessTravel.Approve(r.Context(), chi.URLParam(r, "id"), req.ApprovedBy))
}

func (s *Server) handleTravelReject(w http.ResponseWriter, r *http.Request) {
	var req types.RejectRequest
	if !decodeAction(w, r, &req, false) || !requireField(w, r, "rejected_by", req.RejectedBy) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.BusinessTravel.Reject(r.Context(), chi.URLParam(r, "id"), req.RejectedBy, req.Reason))
}

func (s *Server) handleTravelComplete(w http.ResponseWriter, r *http.Request) {
	respondItem(w, r, http.StatusOK, s.svc.BusinessTravel.Complete(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleChannelMessages(w http.ResponseWriter, r *http.Request) {
	p, _, err := parseListParams(r, s.cfg.MaxPageLimit)
	if err != nil {
		httputil.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p.OrderBy, p.Ascending = "created_at", true
	respondList(w, r, p, s.svc.ChatMessages.ListByChannel(r.Context(), chi.URLParam(r, "id"), &p))
}

func (s *Server) handleMessageEdit(w http.ResponseWriter, r *http.Request) {
	var req types.EditMessageRequest
	if !decodeAction(w, r, &req, false) || !requireField(w, r, "content", req.Content) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.ChatMessages.Edit(r.Context(), chi.URLParam(r, "id"), req.Content))
}

func (s *Server) handleRequestApprove(w http.ResponseWriter, r *http.Request) {
	var req types.ApproveRequest
	if !decodeAction(w, r, &req, false) || !requireField(w, r, "approved_by", req.ApprovedBy) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.Requests.Approve(r.Context(), chi.URLParam(r, "id"), req.ApprovedBy))
}

func (s *Server) handleRequestReject(w http.ResponseWriter, r *http.Request) {
	var req types.RejectRequest
	if !decodeAction(w, r, &req, true) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.Requests.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason))
}

func (s *Server) handleRequestAssign(w http.ResponseWriter, r *http.Request) {
	var req types.AssignRequest
	if !decodeAction(w, r, &req, false) || !requireField(w, r, "assigned_to", req.AssignedTo) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.Requests.Assign(r.Context(), chi.URLParam(r, "id"), req.AssignedTo))
}

func (s *Server) handleRequestResolve(w http.ResponseWriter, r *http.Request) {
	var req types.ResolveRequest
	if !decodeAction(w, r, &req, false) || !requireField(w, r, "resolution", req.Resolution) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.Requests.Resolve(r.Context(), chi.URLParam(r, "id"), req.Resolution))
}

func (s *Server) handleRequestStatus(w http.ResponseWriter, r *http.Request) {
	var req types.StatusRequest
	if !decodeAction(w, r, &req, false) || !requireField(w, r, "status", req.Status) {
		return
	}
	respondItem(w, r, http.StatusOK, s.svc.Requests.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status))
}
