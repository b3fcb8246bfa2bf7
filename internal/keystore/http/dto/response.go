package dto

import (
	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
)

// KeystoreResponse is the public representation of a keystore config.
type KeystoreResponse struct {
	ID          string `json:"id"`
	Controller  string `json:"controller"`
	KMSModule   string `json:"kmsModule"`
	Sequence    uint64 `json:"sequence"`
	ReferenceID string `json:"referenceId,omitempty"`
	MeterID     string `json:"meterId,omitempty"`
}

// UpdateKeystoreResponse is returned after a successful keystore config update.
type UpdateKeystoreResponse struct {
	Success bool             `json:"success"`
	Config  KeystoreResponse `json:"config"`
}

// ListKeystoresResponse wraps the keystore configs returned by a find.
type ListKeystoresResponse struct {
	Data []KeystoreResponse `json:"data"`
}

// StorageUsageResponse reports the storage a meter is charged for.
type StorageUsageResponse struct {
	MeterID string `json:"meterId"`
	Usage   Usage  `json:"usage"`
}

// Usage holds the storage usage counters of a meter.
type Usage struct {
	Storage   int64 `json:"storage"`
	Keystores int   `json:"keystores"`
	Keys      int64 `json:"keys"`
}

// MapConfigToResponse converts a keystore config into its response shape.
func MapConfigToResponse(config keystoreDomain.KeystoreConfig) KeystoreResponse {
	return KeystoreResponse{
		ID:          config.ID,
		Controller:  config.Controller,
		KMSModule:   config.KMSModule,
		Sequence:    config.Sequence,
		ReferenceID: config.ReferenceID,
		MeterID:     config.MeterID,
	}
}

// MapRecordsToListResponse converts keystore records into a list response.
func MapRecordsToListResponse(records []*keystoreDomain.KeystoreRecord) ListKeystoresResponse {
	data := make([]KeystoreResponse, 0, len(records))
	for _, record := range records {
		data = append(data, MapConfigToResponse(record.Config))
	}
	return ListKeystoresResponse{Data: data}
}

// MapStorageUsageToResponse converts a storage usage into its response shape.
func MapStorageUsageToResponse(usage *keystoreDomain.StorageUsage) StorageUsageResponse {
	return StorageUsageResponse{
		MeterID: usage.MeterID,
		Usage: Usage{
			Storage:   usage.Storage,
			Keystores: usage.Keystores,
			Keys:      usage.Keys,
		},
	}
}
