package economy

import (
	"context"

	"timberline/core/logging"
)

const (
	// EventResourceYield is emitted when a harvested entity pays out its yield.
	EventResourceYield logging.EventType = "economy.resource_yield"
	// EventResourceDeposited is emitted when a worker transfers inventory into a building.
	EventResourceDeposited logging.EventType = "economy.resource_deposited"
	// EventResourceAdded is emitted when inventory is credited to the global
	// pool at the fallback deposit point instead of a building.
	EventResourceAdded logging.EventType = "economy.resource_added"
	// EventDepositRejected is emitted when a building accepts none of an offered deposit.
	EventDepositRejected logging.EventType = "economy.deposit_rejected"
)

// ResourceYieldPayload describes the payout from a destroyed harvestable.
type ResourceYieldPayload struct {
	ResourceType string `json:"resourceType"`
	Amount       int    `json:"amount"`
	Credited     int    `json:"credited,omitempty"`
}

// ResourceDepositedPayload describes a completed building deposit.
type ResourceDepositedPayload struct {
	ResourceType string `json:"resourceType"`
	Offered      int    `json:"offered"`
	Accepted     int    `json:"accepted"`
}

// ResourceAddedPayload describes a fallback-point deposit.
type ResourceAddedPayload struct {
	ResourceType string `json:"resourceType"`
	Amount       int    `json:"amount"`
}

// DepositRejectedPayload describes why a deposit transferred nothing.
type DepositRejectedPayload struct {
	ResourceType string `json:"resourceType"`
	Reason       string `json:"reason"`
}

// ResourceYield publishes a yield payout event.
func ResourceYield(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ResourceYieldPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventResourceYield,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}

// ResourceDeposited publishes a building deposit event.
func ResourceDeposited(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload ResourceDepositedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventResourceDeposited,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}

// ResourceAdded publishes a fallback deposit event.
func ResourceAdded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ResourceAddedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventResourceAdded,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}

// DepositRejected publishes a rejected deposit event.
func DepositRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DepositRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDepositRejected,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}
