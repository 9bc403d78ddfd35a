// Package domain holds admin transport types
package domain

import (
	"scamwatch/internal/core/signature"
)

// DomainInput adds or checks a denylisted host
type DomainInput struct {
	Host string `json:"host" validate:"required,min=3"`
}

// DomainList is the denylist snapshot
type DomainList struct {
	Domains []string `json:"domains"`
	Count   int      `json:"count"`
}

// MessageInput appends a reference message to the corpus
type MessageInput struct {
	Text     string   `json:"text" validate:"required,min=3"`
	Category string   `json:"category" validate:"required"`
	Flags    []string `json:"flags"`
}

// AnalyzeInput scores a single message
type AnalyzeInput struct {
	Text string `json:"text" validate:"required"`
}

// AnalyzeResult is a verdict plus the enforcement decision
type AnalyzeResult struct {
	signature.Verdict
	Flagged bool `json:"flagged"`
}

// Status reports liveness and corpus shape
type Status struct {
	OK       bool   `json:"ok"`
	Service  string `json:"service"`
	Started  string `json:"started"`
	Uptime   int64  `json:"uptime"`
	Messages int    `json:"messages"`
	Domains  int    `json:"domains"`
}
