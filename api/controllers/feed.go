package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avelasquez/taskflow-backend/api/middleware"
	"github.com/avelasquez/taskflow-backend/api/responses"
	"github.com/avelasquez/taskflow-backend/api/validators"
	"github.com/avelasquez/taskflow-backend/internal/feed"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
	"github.com/avelasquez/taskflow-backend/pkg/logger"
)

const defaultFeedRange = 7 * 24 * time.Hour

// BoardFeed returns the personal and overview feed maps for one board.
func BoardFeed(svc feed.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feed service unavailable"))
			return
		}

		boardID, err := strconv.ParseInt(chi.URLParam(r, "boardId"), 10, 64)
		if err != nil || boardID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "board id must be a positive integer"))
			return
		}

		now := time.Now().UTC()
		from, err := validators.ParseQueryTime(r, "from", now.Add(-defaultFeedRange))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to", now)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GetFeed(r.Context(), feed.Params{
			BoardID:  boardID,
			ViewerID: middleware.UserIDFromContext(r.Context()),
			From:     from,
			To:       to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
