package handlers

import (
	"github.com/fatflowers/repricer/internal/app/service/consent"
	"github.com/fatflowers/repricer/internal/app/service/pricechange"
	"github.com/fatflowers/repricer/internal/app/service/reconciler"
	"github.com/fatflowers/repricer/internal/app/service/statistics"
	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/response"
)

// RespOK is a generic envelope for endpoints returning no specific data, and for errors.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespApplyPriceChange struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ApplyPriceChangeResponse `json:"data"`
}

type RespListSubscriptionChanges struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    pricechange.ListResponse `json:"data"`
}

type RespSubscriptionPriceChange struct {
	Code    response.APIResponseCode       `json:"code"`
	Message string                         `json:"message"`
	Data    models.SubscriptionPriceChange `json:"data"`
}

type RespConsentPreview struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    consent.Preview          `json:"data"`
}

type RespResolveConsent struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    consent.ResolveResult    `json:"data"`
}

type RespReconcileReport struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    reconciler.Report        `json:"data"`
}

type RespPriceChangeStatistic struct {
	Code    response.APIResponseCode                `json:"code"`
	Message string                                  `json:"message"`
	Data    statistics.PriceChangeStatisticResponse `json:"data"`
}
