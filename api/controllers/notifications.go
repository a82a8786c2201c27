package controllers

import (
	"net/http"

	"github.com/avelasquez/taskflow-backend/api/middleware"
	"github.com/avelasquez/taskflow-backend/api/responses"
	"github.com/avelasquez/taskflow-backend/api/validators"
	"github.com/avelasquez/taskflow-backend/internal/notifications"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
	"github.com/avelasquez/taskflow-backend/pkg/logger"
)

// ListGroupedNotifications returns the viewer's bell contents, one entry
// per post group, newest first.
func ListGroupedNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		groups, err := svc.GroupedForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, groups)
	}
}

// MarkAllNotificationsSeen sweeps every unseen notification for the viewer.
func MarkAllNotificationsSeen(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		updated, err := svc.MarkAllSeen(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}

type markGroupSeenRequest struct {
	PostID int64 `json:"post_id" validate:"required,gt=0"`
}

// MarkGroupSeen records a seen marker on a single post group.
func MarkGroupSeen(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		var req markGroupSeenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		svc.MarkGroupSeen(r.Context(), userID, req.PostID)
		responses.WriteSuccess(w, map[string]bool{"seen": true})
	}
}
