package cloudinary

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores submission and assignment artifacts in Cloudinary.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload sends the artifact to Cloudinary and returns a secure URL.
func (s *Service) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	folder := strings.Trim(s.folder, "/")

	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     buildPublicID(name),
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Int("bytes", result.Bytes).Msg("artifact stored")

	return result.SecureURL, nil
}

// Remove deletes a previously stored artifact. The public identifier is
// recovered from the delivery URL returned by Upload.
func (s *Service) Remove(ctx context.Context, fileURL string) error {
	publicID, resourceType, err := parseDeliveryURL(fileURL)
	if err != nil {
		return err
	}

	result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}

	s.logger.Info().Str("public_id", publicID).Str("result", result.Result).Msg("artifact removed")

	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// parseDeliveryURL recovers the public id and resource type from a delivery
// URL of the form /<cloud>/<resource_type>/<delivery_type>/v<n>/<public_id>.
// Raw resources keep their extension as part of the public id.
func parseDeliveryURL(fileURL string) (string, string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid artifact url: %w", err)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 4 {
		return "", "", fmt.Errorf("unrecognized artifact url: %s", fileURL)
	}

	resourceType := segments[1]
	rest := segments[3:]
	if versionSegment.MatchString(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", "", fmt.Errorf("unrecognized artifact url: %s", fileURL)
	}

	publicID := strings.Join(rest, "/")
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, filepath.Ext(publicID))
	}

	return publicID, resourceType, nil
}

func buildPublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "artifact"
	}

	return fmt.Sprintf("%s-%d", base, time.Now().UnixNano())
}
