package ai

import (
	"context"
	"errors"
	"testing"
)

type fixedProvider struct {
	reply string
}

func (p *fixedProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	_ = ctx
	_ = messages
	return p.reply, nil
}

type failingLister struct {
	fixedProvider
}

func (p *failingLister) ListModels(ctx context.Context) ([]Model, error) {
	_ = ctx
	return nil, errors.New("vendor endpoint down")
}

type emptyLister struct {
	fixedProvider
}

func (p *emptyLister) ListModels(ctx context.Context) ([]Model, error) {
	_ = ctx
	return nil, nil
}

func TestRegistry_GetNormalizesName(t *testing.T) {
	reg := NewRegistry()
	reg.Register("Fake", func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		_ = model
		return &fixedProvider{reply: "ok"}, nil
	})

	if !reg.Known("  FAKE ") {
		t.Fatalf("expected normalized lookup to succeed")
	}
	p, err := reg.Get(context.Background(), " fake ", "m")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p == nil {
		t.Fatalf("expected provider")
	}

	if _, err := reg.Get(context.Background(), "missing", "m"); err == nil {
		t.Fatalf("expected error for unregistered provider")
	}
}

func TestFetchModels_FallsBackToStaticOnError(t *testing.T) {
	reg := NewRegistry()
	reg.Register(ProviderGroq, func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		_ = model
		return &failingLister{}, nil
	})

	models, err := reg.FetchModels(context.Background(), ProviderGroq)
	if err != nil {
		t.Fatalf("fetch models: %v", err)
	}
	static := StaticModels(ProviderGroq)
	if len(models) != len(static) {
		t.Fatalf("expected static fallback (%d models), got %d", len(static), len(models))
	}
}

func TestFetchModels_FallsBackToStaticOnEmptyList(t *testing.T) {
	reg := NewRegistry()
	reg.Register(ProviderGroq, func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		_ = model
		return &emptyLister{}, nil
	})

	models, err := reg.FetchModels(context.Background(), ProviderGroq)
	if err != nil {
		t.Fatalf("fetch models: %v", err)
	}
	if len(models) == 0 {
		t.Fatalf("expected static fallback, got empty list")
	}
}

func TestFetchModels_NonListerUsesStatic(t *testing.T) {
	reg := NewRegistry()
	reg.Register(ProviderHelpingAI, func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		_ = model
		return &fixedProvider{}, nil
	})

	models, err := reg.FetchModels(context.Background(), ProviderHelpingAI)
	if err != nil {
		t.Fatalf("fetch models: %v", err)
	}
	if len(models) == 0 {
		t.Fatalf("expected static models for non-listing provider")
	}
}
