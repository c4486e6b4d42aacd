package handler

import (
	"errors"
	"net/http"

	"devdecks-backend/internal/model"
	"devdecks-backend/internal/orchestrator"
	"devdecks-backend/internal/provider"
	"devdecks-backend/internal/service"
	"devdecks-backend/internal/storage"
	"devdecks-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

var badRequestErrors = []error{
	orchestrator.ErrEmptyPrompt,
	model.ErrUnknownKey,
	model.ErrInvalidValue,
	model.ErrUnknownElementType,
	provider.ErrUnknownModel,
	provider.ErrInvalidAspectRatio,
	service.ErrUnknownTemplate,
	service.ErrInvalidMode,
	service.ErrNoTextSelected,
	storage.ErrInvalidData,
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrBusy), errors.Is(err, storage.ErrProjectExists):
		return http.StatusConflict
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithFields(logger.Fields{"path": c.FullPath()}).Errorf("request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
