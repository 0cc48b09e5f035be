package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/videoformat/internal/api/models"
	"github.com/smazurov/videoformat/internal/capabilities"
	"github.com/smazurov/videoformat/internal/ffmpeg"
	"github.com/smazurov/videoformat/internal/format"
	"github.com/smazurov/videoformat/internal/probe"
)

func (s *Server) registerFormatRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/capabilities",
		Summary:     "Capabilities",
		Description: "Get the codecs, pixel formats and filters the engine supports",
		Tags:        []string{"format"},
	}, func(_ context.Context, _ *struct{}) (*models.CapabilitiesResponse, error) {
		if s.catalog == nil {
			return nil, huma.Error503ServiceUnavailable("capability catalog not loaded")
		}
		return &models.CapabilitiesResponse{Body: s.catalog}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-options",
		Method:      http.MethodGet,
		Path:        "/api/options",
		Summary:     "Options",
		Description: "List every format option with its metadata and conflicts",
		Tags:        []string{"format"},
	}, func(_ context.Context, _ *struct{}) (*models.OptionsResponse, error) {
		return &models.OptionsResponse{
			Body: models.OptionsData{
				Options: ffmpeg.AllOptions,
				Count:   len(ffmpeg.AllOptions),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "render-profile",
		Method:        http.MethodPost,
		Path:          "/api/render",
		Summary:       "Render profile",
		Description:   "Validate a format profile, finalize it against the source and synthesize ffmpeg arguments",
		Tags:          []string{"format"},
		DefaultStatus: http.StatusOK,
	}, func(_ context.Context, input *models.RenderRequest) (*models.RenderResponse, error) {
		return s.render(input.Body)
	})
}

func (s *Server) render(req models.RenderRequestData) (*models.RenderResponse, error) {
	// A typed nil would pass the interface nil check
	var catalog format.Catalog = &capabilities.Catalog{}
	if s.catalog != nil {
		catalog = s.catalog
	}

	v, err := req.Profile.NewFormat(catalog)
	if err != nil {
		return nil, formatError(err)
	}

	var src probe.SourceInfo
	if req.Source != nil {
		src = *req.Source
	}
	if err := v.Finalize(src, nil); err != nil {
		return nil, formatError(err)
	}

	args, err := v.Args()
	if err != nil {
		s.logger.Error("Failed to synthesize arguments", "error", err)
		return nil, huma.Error500InternalServerError("failed to synthesize arguments", err)
	}
	return &models.RenderResponse{
		Body: models.RenderData{
			Args:    args,
			Command: ffmpeg.ShellJoin(args),
		},
	}, nil
}

// formatError reports a rejected profile. Option errors keep their
// sentinel so the failure kind shows up in the problem detail.
func formatError(err error) error {
	var optErr *format.OptionError
	if errors.As(err, &optErr) {
		return huma.Error422UnprocessableEntity(err.Error(), &huma.ErrorDetail{
			Message:  optErr.Err.Error(),
			Location: "body.profile",
			Value:    optErr.Value,
		})
	}
	return huma.Error422UnprocessableEntity(err.Error())
}
