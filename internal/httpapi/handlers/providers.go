package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ha583/cuddly-chainsaw/internal/ai"
	"github.com/ha583/cuddly-chainsaw/internal/store/redisstore"
)

func (h *Handler) ListProviders(c *gin.Context) {
	ok(c, gin.H{"providers": ai.Catalog()})
}

func (h *Handler) ListProviderModels(c *gin.Context) {
	providerID := c.Param("provider_id")
	if !h.Registry.Known(providerID) {
		fail(c, http.StatusNotFound, 40005, "unknown provider")
		return
	}

	ok(c, gin.H{
		"provider": providerID,
		"models":   h.modelsFor(c.Request.Context(), providerID),
	})
}

// modelsFor returns the model list for a provider, served from redis when a
// fresh copy exists. Failures degrade to the static catalog, never an error.
func (h *Handler) modelsFor(ctx context.Context, providerID string) []ai.Model {
	cacheKey := "models:" + providerID

	if h.Redis != nil {
		var cached []ai.Model
		err := h.Redis.GetJSON(ctx, cacheKey, &cached)
		if err == nil && len(cached) > 0 {
			return cached
		}
		if err != nil && !errors.Is(err, redisstore.ErrMiss) {
			log.Printf("[modelsFor] cache read failed provider=%s err=%v", providerID, err)
		}
	}

	models, err := h.Registry.FetchModels(ctx, providerID)
	if err != nil || len(models) == 0 {
		return ai.StaticModels(providerID)
	}

	if h.Redis != nil {
		if err := h.Redis.SetJSON(ctx, cacheKey, models, h.Cfg.ModelCacheTTL); err != nil {
			log.Printf("[modelsFor] cache write failed provider=%s err=%v", providerID, err)
		}
	}
	return models
}
