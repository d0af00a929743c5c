package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ha583/cuddly-chainsaw/internal/ai"
	"github.com/ha583/cuddly-chainsaw/internal/chat"
	"github.com/ha583/cuddly-chainsaw/internal/common"
	"github.com/ha583/cuddly-chainsaw/internal/config"
	"github.com/ha583/cuddly-chainsaw/internal/docs"
	"github.com/ha583/cuddly-chainsaw/internal/httpapi/middleware"
	"github.com/ha583/cuddly-chainsaw/internal/store/rabbitmq"
	"github.com/ha583/cuddly-chainsaw/internal/store/redisstore"
)

type Handler struct {
	DB       *gorm.DB
	Cfg      config.Config
	Redis    *redisstore.Store
	Rabbit   *rabbitmq.Publisher
	Registry *ai.Registry
	Repo     *chat.Repo
	ChatMgr  *chat.Manager
	Docs     *docs.Processor
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, rabbit *rabbitmq.Publisher) *Handler {
	repo := chat.NewRepo(db)
	search := ai.NewSearchClient(cfg.SearchURL, cfg.SearchToken)
	registry := BuildRegistry(cfg, search)

	searcher := NewRegistrySearcher(registry, cfg.DefaultProvider)
	mgr := chat.NewManager(repo, registry, searcher, cfg.DefaultProvider, cfg.ChatContextWindowSize)

	return &Handler{
		DB:       db,
		Cfg:      cfg,
		Redis:    rds,
		Rabbit:   rabbit,
		Registry: registry,
		Repo:     repo,
		ChatMgr:  mgr,
		Docs:     docs.NewProcessor(cfg.GroqBaseURL, cfg.GroqAPIKey),
	}
}

// BuildRegistry wires one factory per vendor; provider selection everywhere
// else is a registry lookup.
func BuildRegistry(cfg config.Config, search *ai.SearchClient) *ai.Registry {
	reg := ai.NewRegistry()

	reg.Register(ai.ProviderGroq, func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = ai.ResolveDefaultModel(ai.ProviderGroq)
		}
		return ai.NewGroqProvider(cfg.GroqBaseURL, cfg.GroqAPIKey, m), nil
	})

	reg.Register(ai.ProviderOpenRouter, func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = ai.ResolveDefaultModel(ai.ProviderOpenRouter)
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName, search), nil
	})

	reg.Register(ai.ProviderHelpingAI, func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = ai.ResolveDefaultModel(ai.ProviderHelpingAI)
		}
		return ai.NewHelpingAIProvider(cfg.HelpingAIBaseURL, cfg.HelpingAIAPIKey, m), nil
	})

	return reg
}

// RegistrySearcher resolves web context through whichever registered provider
// exposes the search capability, preferring the configured default.
type RegistrySearcher struct {
	registry *ai.Registry
	prefer   string
}

func NewRegistrySearcher(registry *ai.Registry, prefer string) *RegistrySearcher {
	return &RegistrySearcher{registry: registry, prefer: prefer}
}

func (s *RegistrySearcher) SearchWeb(ctx context.Context, query string) (string, error) {
	order := []string{s.prefer, ai.ProviderOpenRouter, ai.ProviderGroq, ai.ProviderHelpingAI}
	seen := make(map[string]bool)
	for _, id := range order {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		p, err := s.registry.Get(ctx, id, ai.ResolveDefaultModel(id))
		if err != nil {
			continue
		}
		if ws, ok := p.(ai.WebSearcher); ok {
			return ws.SearchWeb(ctx, query)
		}
	}
	return "", ai.ErrSearchUnavailable
}

func ok(c *gin.Context, data any) {
	common.OK(c, data)
}

func fail(c *gin.Context, httpStatus int, code int, msg string) {
	common.Fail(c, httpStatus, code, msg)
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return 0, false
	}
	id, castOK := v.(uint64)
	return id, castOK
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
