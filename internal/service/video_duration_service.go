package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"course_authoring_backend/internal/config"
	"course_authoring_backend/internal/util"
	"course_authoring_backend/pkg/logger"
	"course_authoring_backend/pkg/monitoring"
	"course_authoring_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// VideoDurationResolver 查询外部视频平台的时长（秒）
type VideoDurationResolver interface {
	Resolve(ctx context.Context, videoID string) (int, error)
}

// VideoDurationService resolves durations through the YouTube Data API.
// One attempt per call; callers decide what to do with failures.
type VideoDurationService struct {
	mu      sync.RWMutex
	apiKey  string
	baseURL string
	timeout time.Duration
}

func NewVideoDurationService(cfg config.YouTubeConfig) *VideoDurationService {
	return &VideoDurationService{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout(),
	}
}

// SetAPIKey 配置热更新时替换密钥
func (s *VideoDurationService) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

func (s *VideoDurationService) settings() (string, string, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey, s.baseURL, s.timeout
}

func (s *VideoDurationService) Resolve(ctx context.Context, videoID string) (int, error) {
	ctx, span := tracing.Tracer.Start(ctx, "VideoDurationService.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("video.id", videoID))

	seconds, err := s.resolve(ctx, videoID)
	tracing.RecordError(span, err)
	monitoring.VideoLookups.WithLabelValues(lookupOutcome(err)).Inc()
	return seconds, err
}

func (s *VideoDurationService) resolve(ctx context.Context, videoID string) (int, error) {
	apiKey, baseURL, timeout := s.settings()
	if apiKey == "" {
		return 0, fmt.Errorf("%w: youtube api key is not set", util.ErrConfig)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(baseURL))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return 0, fmt.Errorf("%w: init youtube client: %v", util.ErrConfig, err)
	}

	resp, err := svc.Videos.List([]string{"contentDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			logger.Log.Warn("youtube api rejected request",
				zap.String("videoId", videoID),
				zap.Int("status", apiErr.Code),
			)
			return 0, fmt.Errorf("%w: youtube api status %d: %s", util.ErrUpstream, apiErr.Code, strings.TrimSpace(apiErr.Message))
		}
		return 0, fmt.Errorf("%w: youtube api request: %v", util.ErrUpstream, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil {
		return 0, fmt.Errorf("%w: %s", util.ErrNotFound, videoID)
	}
	return util.ParseISODuration(resp.Items[0].ContentDetails.Duration), nil
}

func lookupOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, util.ErrConfig):
		return "config"
	case errors.Is(err, util.ErrNotFound):
		return "not_found"
	default:
		return "upstream"
	}
}
