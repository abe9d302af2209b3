package resume

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"career-readiness/internal/common/config"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

const documentTextDetection = "DOCUMENT_TEXT_DETECTION"

// Vision OCRs images and PDFs through the Cloud Vision REST API and leaves
// every other format to the fallback extractor.
type Vision struct {
	svc      *vision.Service
	fallback Extractor
}

func NewVision(ctx context.Context, cfg config.GoogleVisionConfig, fallback Extractor) (*Vision, error) {
	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	return newVision(ctx, fallback, opts...)
}

func newVision(ctx context.Context, fallback Extractor, opts ...option.ClientOption) (*Vision, error) {
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	if fallback == nil {
		fallback = PlainText{}
	}
	return &Vision{svc: svc, fallback: fallback}, nil
}

func (v *Vision) Name() string { return "google-vision" }

func (v *Vision) Extract(ctx context.Context, path, contentType string) (string, error) {
	if !IsImage(contentType) && contentType != "application/pdf" {
		return v.fallback.Extract(ctx, path, contentType)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	content := base64.StdEncoding.EncodeToString(data)
	features := []*vision.Feature{{Type: documentTextDetection}}

	if IsImage(contentType) {
		resp, err := v.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
			Requests: []*vision.AnnotateImageRequest{{
				Image:    &vision.Image{Content: content},
				Features: features,
			}},
		}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("vision images:annotate: %w", err)
		}
		return joinImageResponses(resp.Responses)
	}

	resp, err := v.svc.Files.Annotate(&vision.BatchAnnotateFilesRequest{
		Requests: []*vision.AnnotateFileRequest{{
			InputConfig: &vision.InputConfig{Content: content, MimeType: contentType},
			Features:    features,
		}},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("vision files:annotate: %w", err)
	}

	var pages []*vision.AnnotateImageResponse
	for _, f := range resp.Responses {
		pages = append(pages, f.Responses...)
	}
	return joinImageResponses(pages)
}

func joinImageResponses(responses []*vision.AnnotateImageResponse) (string, error) {
	var parts []string
	for _, r := range responses {
		if r == nil {
			continue
		}
		if r.Error != nil && r.Error.Message != "" {
			return "", fmt.Errorf("vision: %s", r.Error.Message)
		}
		if r.FullTextAnnotation != nil && strings.TrimSpace(r.FullTextAnnotation.Text) != "" {
			parts = append(parts, strings.TrimSpace(r.FullTextAnnotation.Text))
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
