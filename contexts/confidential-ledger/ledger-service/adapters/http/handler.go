package httpadapter

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"aqualedger/contexts/confidential-ledger/ledger-service/application"
	domainerrors "aqualedger/contexts/confidential-ledger/ledger-service/domain/errors"
	"aqualedger/contexts/confidential-ledger/ledger-service/ports"
	httptransport "aqualedger/contexts/confidential-ledger/ledger-service/transport/http"
	"aqualedger/internal/shared/confidential"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// SubmitActionHandler records one submission for the authenticated actor.
// The proof travels base64-encoded on the wire.
func (h Handler) SubmitActionHandler(
	ctx context.Context,
	actorAddress string,
	req httptransport.SubmitActionRequest,
) (httptransport.SubmitActionResponse, error) {
	amount, err := confidential.ParseHandle(req.Amount)
	if err != nil {
		return httptransport.SubmitActionResponse{}, domainerrors.ErrInvalidCiphertext
	}
	proof, err := base64.StdEncoding.DecodeString(req.Proof)
	if err != nil {
		return httptransport.SubmitActionResponse{}, domainerrors.ErrInvalidProof
	}

	result, err := h.Service.Submit(ctx, application.SubmitInput{
		UserAddress: actorAddress,
		Amount:      amount,
		Proof:       proof,
		ActionType:  ports.ActionType(req.ActionType),
		CityCode:    req.CityCode,
	})
	if err != nil {
		return httptransport.SubmitActionResponse{}, err
	}

	resp := httptransport.SubmitActionResponse{Status: "success"}
	resp.Data.SubmissionID = result.Submission.SubmissionID
	resp.Data.Day = result.Submission.Day
	resp.Data.Streak = result.Stats.Streak
	resp.Data.TotalDays = result.Stats.TotalDays
	resp.Data.SubmittedAt = result.Submission.SubmittedAt.UTC().Format(time.RFC3339)
	return resp, nil
}

func (h Handler) GetUserStatsHandler(ctx context.Context, userAddress string) (httptransport.UserStatsResponse, error) {
	stats, err := h.Service.GetUserStats(ctx, userAddress)
	if err != nil {
		return httptransport.UserStatsResponse{}, err
	}
	resp := httptransport.UserStatsResponse{Status: "success"}
	resp.Data.UserAddress = stats.UserAddress
	resp.Data.TotalDays = stats.TotalDays
	resp.Data.Streak = stats.Streak
	resp.Data.LastSubmitDay = stats.LastSubmitDay
	resp.Data.TotalLiters = stats.TotalLiters.String()
	return resp, nil
}

func (h Handler) ListSubmissionsHandler(ctx context.Context, userAddress string) (httptransport.SubmissionListResponse, error) {
	items, err := h.Service.ListSubmissions(ctx, userAddress)
	if err != nil {
		return httptransport.SubmissionListResponse{}, err
	}
	resp := httptransport.SubmissionListResponse{
		Status: "success",
		Data:   make([]httptransport.SubmissionDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, httptransport.SubmissionDTO{
			SubmissionID: item.SubmissionID,
			Day:          item.Day,
			ActionType:   uint8(item.ActionType),
			ActionName:   item.ActionType.String(),
			CityCode:     item.CityCode,
			Amount:       item.Amount.String(),
			SubmittedAt:  item.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}
