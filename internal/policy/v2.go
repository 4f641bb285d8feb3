package policy

import "go.uber.org/zap"

// V2 keeps the v1 decisions under its own version tag
type V2 struct {
	base *V1
}

// NewV2 creates a v2 policy
func NewV2(history HistoryPort, logger *zap.Logger) *V2 {
	return &V2{base: NewV1(history, logger)}
}

// Version returns the policy version
func (p *V2) Version() string {
	return VersionV2
}

// Decide delegates to v1
func (p *V2) Decide(req Request) Decision {
	return p.base.Decide(req)
}
