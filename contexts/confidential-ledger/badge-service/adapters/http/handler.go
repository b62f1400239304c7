package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"aqualedger/contexts/confidential-ledger/badge-service/application"
	domainerrors "aqualedger/contexts/confidential-ledger/badge-service/domain/errors"
	"aqualedger/contexts/confidential-ledger/badge-service/ports"
	httptransport "aqualedger/contexts/confidential-ledger/badge-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) ClaimBadgeHandler(
	ctx context.Context,
	actorAddress string,
	req httptransport.ClaimBadgeRequest,
) (httptransport.ClaimBadgeResponse, error) {
	result, err := h.Service.ClaimBadge(ctx, actorAddress, ports.BadgeLevel(req.Level))
	if err != nil {
		return httptransport.ClaimBadgeResponse{}, err
	}
	resp := httptransport.ClaimBadgeResponse{Status: "success"}
	resp.Data.UserAddress = result.Claim.UserAddress
	resp.Data.Level = uint8(result.Claim.Level)
	resp.Data.LevelName = result.Claim.Level.Name()
	resp.Data.Highest = uint8(result.Badge.Highest)
	resp.Data.ClaimedAt = result.Claim.ClaimedAt.UTC().Format(time.RFC3339)
	return resp, nil
}

func (h Handler) RevokeBadgeHandler(
	ctx context.Context,
	actorAddress string,
	req httptransport.RevokeBadgeRequest,
) (httptransport.RevokeBadgeResponse, error) {
	badge, err := h.Service.RevokeBadge(ctx, actorAddress, req.UserAddress, ports.BadgeLevel(req.Level))
	if err != nil {
		return httptransport.RevokeBadgeResponse{}, err
	}
	resp := httptransport.RevokeBadgeResponse{Status: "success"}
	resp.Data.UserAddress = badge.UserAddress
	resp.Data.Level = req.Level
	resp.Data.Highest = uint8(badge.Highest)
	return resp, nil
}

func (h Handler) GetUserBadgeHandler(ctx context.Context, userAddress string) (httptransport.UserBadgeResponse, error) {
	level, err := h.Service.GetUserBadge(ctx, userAddress)
	if err != nil {
		return httptransport.UserBadgeResponse{}, err
	}
	resp := httptransport.UserBadgeResponse{Status: "success"}
	resp.Data.UserAddress = userAddress
	resp.Data.Level = uint8(level)
	resp.Data.LevelName = level.Name()
	return resp, nil
}

func (h Handler) EligibilityHandler(ctx context.Context, userAddress string) (httptransport.EligibilityResponse, error) {
	levels := []ports.BadgeLevel{ports.LevelWaterDrop, ports.LevelWaterHero, ports.LevelAquaGuardian}
	resp := httptransport.EligibilityResponse{
		Status: "success",
		Data:   make([]httptransport.EligibilityEntryDTO, 0, len(levels)),
	}
	for _, level := range levels {
		eligible, err := h.Service.IsEligible(ctx, userAddress, level)
		if err != nil {
			return httptransport.EligibilityResponse{}, err
		}
		claimed, err := h.Service.HasClaimed(ctx, userAddress, level)
		if err != nil {
			return httptransport.EligibilityResponse{}, err
		}
		resp.Data = append(resp.Data, httptransport.EligibilityEntryDTO{
			Level:     uint8(level),
			LevelName: level.Name(),
			Threshold: level.Threshold(),
			Eligible:  eligible,
			Claimed:   claimed,
		})
	}
	return resp, nil
}

func (h Handler) BadgeNameHandler(_ context.Context, level uint8) (httptransport.BadgeNameResponse, error) {
	badgeLevel := ports.BadgeLevel(level)
	if level != 0 && !badgeLevel.Valid() {
		return httptransport.BadgeNameResponse{}, domainerrors.ErrInvalidLevel
	}
	resp := httptransport.BadgeNameResponse{Status: "success"}
	resp.Data.Level = level
	resp.Data.Name = badgeLevel.Name()
	return resp, nil
}
