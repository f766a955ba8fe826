package dto

import (
	"time"

	"github.com/ougirez/volstat/internal/domain"
)

// ExportRequest is checked by the exporter so a missing period gets its own message.
type ExportRequest struct {
	Region string `query:"region"`
	Month  int    `query:"month"`
	Year   int    `query:"year"`
}

type SessionPathRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

type FilePathRequest struct {
	ID string `param:"id" validate:"required"`
}

type SnapshotResponse struct {
	Success bool             `json:"success"`
	Data    *domain.Snapshot `json:"data"`
	Message string           `json:"message,omitempty"`
}

type UploadSessionResponse struct {
	ID     string      `json:"id"`
	Status interface{} `json:"status"`
}

type FilesResponse struct {
	Success bool                         `json:"success"`
	Data    []*domain.UploadedFileRecord `json:"data"`
	Count   int                          `json:"count"`
}

type FileResponse struct {
	Success bool                        `json:"success"`
	Data    *domain.UploadedFileDetails `json:"data"`
}

// DeleteFileResponse answers both file and region deletes.
type DeleteFileResponse struct {
	Success      bool                       `json:"success"`
	Message      string                     `json:"message"`
	LastModified *time.Time                 `json:"lastModified,omitempty"`
	Removed      []*domain.RegionStatistics `json:"removed,omitempty"`
}

type MeResponse struct {
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	Permissions []string    `json:"permissions"`
}
