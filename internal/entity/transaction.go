package entity

import (
	"time"

	"github.com/google/uuid"
)

// TransactionLine is one persisted item of a transaction.
type TransactionLine struct {
	InventoryItemID *uuid.UUID `json:"inventory_item_id,omitempty"`
	Name            string     `json:"name"`
	Quantity        float64    `json:"quantity"`
	Unit            string     `json:"unit"`
	UnitPrice       float64    `json:"unit_price"`
	TotalPrice      float64    `json:"total_price"`
}

// TransactionRecord represents a stored ledger entry for data transfer between layers.
type TransactionRecord struct {
	ID              uuid.UUID         `json:"id"`
	OwnerID         uuid.UUID         `json:"owner_id"`
	TransactionType string            `json:"transaction_type"`
	TxDate          time.Time         `json:"tx_date"`
	TotalAmount     float64           `json:"total_amount"`
	CustomerName    *string           `json:"customer_name,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	PaymentStatus   string            `json:"payment_status"`
	Confidence      string            `json:"confidence"`
	NeedsReview     bool              `json:"needs_review"`
	Strategy        string            `json:"strategy"`
	ModelName       *string           `json:"model_name,omitempty"`
	Language        string            `json:"language"`
	RawText         string            `json:"raw_text"`
	Items           []TransactionLine `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
}
