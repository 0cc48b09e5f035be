// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/videoformat/internal/capabilities"
	"github.com/smazurov/videoformat/internal/ffmpeg"
	"github.com/smazurov/videoformat/internal/format"
	"github.com/smazurov/videoformat/internal/probe"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionData struct {
	Version string `json:"version" example:"1.0.0 (commit abc123, built 2026-01-01, go1.24.11 linux/amd64)" doc:"Build version"`
}

type VersionResponse struct {
	Body VersionData
}

// Capability and option metadata models
type CapabilitiesResponse struct {
	Body *capabilities.Catalog
}

type OptionsData struct {
	Options []ffmpeg.Option `json:"options" doc:"Every format option in synthesis order"`
	Count   int             `json:"count" example:"19" doc:"Number of options"`
}

type OptionsResponse struct {
	Body OptionsData
}

// Render models
type RenderRequestData struct {
	Profile format.Profile    `json:"profile" doc:"Format profile, same shape as the TOML profile files"`
	Source  *probe.SourceInfo `json:"source,omitempty" doc:"Probed source facts used by the finalize rules"`
}

type RenderRequest struct {
	Body RenderRequestData
}

type RenderData struct {
	Args    []string `json:"args" doc:"ffmpeg arguments in synthesis order"`
	Command string   `json:"command" example:"-codec:v libx264 -q:v 1" doc:"Arguments joined for a POSIX shell"`
}

type RenderResponse struct {
	Body RenderData
}
