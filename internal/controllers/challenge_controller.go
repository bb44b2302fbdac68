package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/noridevx/wedding-web/internal/dtos"
	"github.com/noridevx/wedding-web/internal/services"
	"github.com/noridevx/wedding-web/internal/utils"
)

type ChallengeController struct {
	sessions *services.SessionManager
}

func NewChallengeController(sessions *services.SessionManager) *ChallengeController {
	return &ChallengeController{sessions: sessions}
}

// -----------------------------------------------------------------------------
// GET /api/v1/challenges
// -----------------------------------------------------------------------------
func (c *ChallengeController) ListChallengesHandler(w http.ResponseWriter, r *http.Request) {
	reg := c.sessions.Get(utils.GetDeviceProfile(r)).Registry
	if err := reg.FetchChallenges(r.Context()); err != nil {
		respondServiceError(w, err, nil)
		return
	}

	list := reg.Challenges()
	utils.RespondWithJSON(w, http.StatusOK, dtos.ChallengesResponse{
		Challenges:     list,
		Incomplete:     services.IncompleteChallenges(list),
		Completed:      services.CompletedChallenges(list),
		Available:      services.AvailableChallenges(list),
		Total:          services.TotalChallenges(list),
		CompletionRate: services.CompletionRate(list),
	})
}

// -----------------------------------------------------------------------------
// GET /api/v1/challenges/random
// -----------------------------------------------------------------------------
func (c *ChallengeController) RandomChallengeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reg := c.sessions.Get(utils.GetDeviceProfile(r)).Registry

	if len(reg.Challenges()) == 0 {
		if err := reg.FetchChallenges(ctx); err != nil {
			respondServiceError(w, err, nil)
			return
		}
	}

	pick := reg.GetRandomChallenge(ctx)
	if pick == nil {
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, "No challenges available", nil,
		)
		return
	}

	resp := dtos.RandomChallengeResponse{Challenge: pick}
	if rec := reg.Device().GetReservedChallenge(ctx); rec != nil && rec.ID == pick.ID {
		resp.Reserved = !reg.Device().IsReservedChallengeExpired(ctx)
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// -----------------------------------------------------------------------------
// POST /api/v1/challenges/reserve
// -----------------------------------------------------------------------------
func (c *ChallengeController) ReserveChallengeHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.ChallengeActionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := mustUUID(req.ChallengeID)

	reg := c.sessions.Get(utils.GetDeviceProfile(r)).Registry
	if err := reg.ReserveChallenge(r.Context(), id); err != nil {
		respondServiceError(w, err, loadedChallenge(reg, id))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ChallengeResponse{Challenge: reg.FindChallenge(id)})
}

// -----------------------------------------------------------------------------
// POST /api/v1/challenges/release
// -----------------------------------------------------------------------------
func (c *ChallengeController) ReleaseChallengeHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.ChallengeActionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := mustUUID(req.ChallengeID)

	reg := c.sessions.Get(utils.GetDeviceProfile(r)).Registry
	if err := reg.ReleaseChallenge(r.Context(), id); err != nil {
		respondServiceError(w, err, loadedChallenge(reg, id))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ChallengeResponse{Challenge: reg.FindChallenge(id)})
}

// -----------------------------------------------------------------------------
// POST /api/v1/challenges/complete
// -----------------------------------------------------------------------------
func (c *ChallengeController) CompleteChallengeHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.CompleteChallengeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := mustUUID(req.ChallengeID)

	reg := c.sessions.Get(utils.GetDeviceProfile(r)).Registry
	if err := reg.CompleteChallenge(r.Context(), id, mustUUID(req.PhotoID), req.CompletedBy); err != nil {
		respondServiceError(w, err, loadedChallenge(reg, id))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ChallengeResponse{Challenge: reg.FindChallenge(id)})
}

// loadedChallenge is the row as this device last saw it, attached to
// failed mutations. It is nil (not a typed nil) when the row is unknown.
func loadedChallenge(reg *services.ChallengeRegistry, id uuid.UUID) any {
	if c := reg.FindChallenge(id); c != nil {
		return c
	}
	return nil
}
