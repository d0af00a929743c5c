package chat

import "sync"

// AnalysisContext holds the document/vision extraction results consumed by
// prompt assembly. Each orchestrator owns its own instance, so analysis from
// one conversation cannot leak into another. The contents carry over across
// turns until Clear is called.
type AnalysisContext struct {
	mu       sync.Mutex
	vision   string
	document string
}

func (a *AnalysisContext) SetVision(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vision = s
}

func (a *AnalysisContext) SetDocument(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.document = s
}

func (a *AnalysisContext) Snapshot() Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Analysis{Vision: a.vision, Document: a.document}
}

func (a *AnalysisContext) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vision, a.document = "", ""
}
