package service

import (
	"context"
	"errors"
	"fmt"

	"course_authoring_backend/internal/config"
	"course_authoring_backend/internal/model"
	"course_authoring_backend/internal/repository"
	"course_authoring_backend/internal/util"
	"course_authoring_backend/pkg/logger"
	"course_authoring_backend/pkg/monitoring"
	"course_authoring_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type CourseService struct {
	DB          *gorm.DB
	CourseRepo  *repository.CourseRepository
	UserRepo    *repository.UserRepository
	Categories  *CategoryService
	Merger      *LessonResourceMerger
	Durations   VideoDurationResolver
	Idempotency IdempotencyStore
	Cfg         config.IngestionConfig
}

func NewCourseService(
	db *gorm.DB,
	courseRepo *repository.CourseRepository,
	userRepo *repository.UserRepository,
	categories *CategoryService,
	merger *LessonResourceMerger,
	durations VideoDurationResolver,
	idempotency IdempotencyStore,
	cfg config.IngestionConfig,
) *CourseService {
	return &CourseService{
		DB:          db,
		CourseRepo:  courseRepo,
		UserRepo:    userRepo,
		Categories:  categories,
		Merger:      merger,
		Durations:   durations,
		Idempotency: idempotency,
		Cfg:         cfg,
	}
}

// CreateCourse ingests a nested draft for the authenticated subject and
// returns the persisted aggregate with sections and lessons in input order.
// Nothing is written unless the whole graph commits.
func (s *CourseService) CreateCourse(ctx context.Context, subject string, draft *CourseDraft, idempotencyKey string) (*model.Course, error) {
	ctx, span := tracing.Tracer.Start(ctx, "CourseService.CreateCourse")
	defer span.End()

	course, err := s.createCourse(ctx, subject, draft, idempotencyKey)
	tracing.RecordError(span, err)
	if err != nil {
		monitoring.CourseIngestions.WithLabelValues(ingestionOutcome(err)).Inc()
		return nil, err
	}
	span.SetAttributes(attribute.Int64("course.id", int64(course.ID)))
	monitoring.CourseIngestions.WithLabelValues("created").Inc()
	return course, nil
}

func (s *CourseService) createCourse(ctx context.Context, subject string, draft *CourseDraft, idempotencyKey string) (*model.Course, error) {
	if subject == "" {
		return nil, util.ErrUnauthorized
	}

	creator, err := s.UserRepo.FindByExternalID(ctx, subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrActorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", util.ErrPersistence, err)
	}
	profile, err := s.UserRepo.FindProfileByUserID(ctx, creator.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: find creator profile: %v", util.ErrPersistence, err)
	}

	if draft == nil {
		return nil, fmt.Errorf("%w: empty course draft", util.ErrValidation)
	}
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	existing, held, err := s.claim(ctx, subject, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	committed := false
	if held {
		defer func() {
			if !committed {
				s.release(subject, idempotencyKey)
			}
		}()
	}

	course := s.BuildCourseGraph(creator, profile, draft)
	if s.Cfg.BackfillDurations && s.Durations != nil {
		s.backfillDurations(ctx, draft, course)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := s.Categories.WithTx(tx).Resolve(ctx, draft.Category)
		if err != nil {
			return err
		}
		course.CategoryID = category.ID

		if err := s.CourseRepo.WithTx(tx).CreateAggregate(ctx, course); err != nil {
			return fmt.Errorf("%w: create course: %v", util.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, util.ErrPersistence) {
			err = fmt.Errorf("%w: %v", util.ErrPersistence, err)
		}
		return nil, err
	}
	committed = true

	logger.Log.Info("course ingested",
		zap.Uint("courseId", course.ID),
		zap.Uint("creatorId", creator.ID),
		zap.Int("sections", len(course.Sections)),
	)

	if held {
		if err := s.Idempotency.Remember(ctx, subject, idempotencyKey, course.ID); err != nil {
			logger.Log.Warn("failed to remember idempotency key", zap.String("key", idempotencyKey), zap.Error(err))
		}
	}

	reloaded, err := s.CourseRepo.FindAggregate(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload course: %v", util.ErrPersistence, err)
	}
	return reloaded, nil
}

// claim 预占 Idempotency-Key。返回之前创建的课程，或 held=true 表示由本请求持有该 key；
// 存储异常时不做幂等保护
func (s *CourseService) claim(ctx context.Context, subject, key string) (*model.Course, bool, error) {
	if s.Idempotency == nil || key == "" {
		return nil, false, nil
	}
	courseID, reserved, err := s.Idempotency.Reserve(ctx, subject, key)
	if err != nil {
		logger.Log.Warn("idempotency reserve failed", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if reserved {
		return nil, true, nil
	}
	if courseID == 0 {
		return nil, false, util.ErrInProgress
	}
	course, err := s.CourseRepo.FindAggregate(ctx, courseID)
	if err != nil {
		// 记录指向的课程已不存在，重新创建并覆盖
		logger.Log.Warn("idempotent course missing", zap.String("key", key), zap.Uint("courseId", courseID), zap.Error(err))
		return nil, true, nil
	}
	logger.Log.Info("replaying idempotent course ingestion", zap.String("key", key), zap.Uint("courseId", courseID))
	return course, false, nil
}

// release 创建失败时释放 key，调用方可以重试
func (s *CourseService) release(subject, key string) {
	if err := s.Idempotency.Release(context.Background(), subject, key); err != nil {
		logger.Log.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}

// BuildCourseGraph turns a validated draft into an unsaved course aggregate.
// Section and lesson orders are 1-based input positions.
func (s *CourseService) BuildCourseGraph(creator *model.User, profile *model.CreatorProfile, draft *CourseDraft) *model.Course {
	price := 0.0
	if draft.Price != nil {
		price = *draft.Price
	}

	course := &model.Course{
		Title:           draft.Title,
		Slug:            util.Slugify(draft.Title),
		Description:     draft.Description,
		LongDescription: draft.Description,
		Price:           price,
		ThumbnailURL:    draft.ThumbnailURL,
		PreviewVideoURL: draft.PreviewVideoURL,
		Level:           model.DefaultCourseLevel,
		Language:        model.DefaultCourseLanguage,
		Status:          model.DefaultCourseStatus,
		CreatorID:       creator.ID,
		Sections:        make([]model.Section, 0, len(draft.Sections)),
	}
	if profile != nil {
		profileID := profile.ID
		course.CreatorProfileID = &profileID
	}

	for i, sd := range draft.Sections {
		section := model.Section{
			Title:       sd.Title,
			Description: sd.Description,
			Order:       i + 1,
			Lessons:     make([]model.Lesson, 0, len(sd.Lessons)),
		}
		for j, ld := range sd.Lessons {
			section.Lessons = append(section.Lessons, s.Merger.Lesson(ld, j+1))
		}
		course.Sections = append(course.Sections, section)
	}
	return course
}

// backfillDurations 为未提供时长的 YouTube 课时查询时长，失败只记日志
func (s *CourseService) backfillDurations(ctx context.Context, draft *CourseDraft, course *model.Course) {
	concurrency := s.Cfg.BackfillConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i := range draft.Sections {
		for j := range draft.Sections[i].Lessons {
			if draft.Sections[i].Lessons[j].Duration != nil {
				continue
			}
			lesson := &course.Sections[i].Lessons[j]
			videoID := util.ExtractYouTubeID(lesson.VideoURL)
			if videoID == "" {
				continue
			}
			g.Go(func() error {
				seconds, err := s.Durations.Resolve(ctx, videoID)
				if err != nil {
					logger.Log.Warn("duration backfill failed",
						zap.String("videoId", videoID),
						zap.Error(err),
					)
					return nil
				}
				lesson.Duration = seconds
				return nil
			})
		}
	}
	_ = g.Wait()
}

func (s *CourseService) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindAggregate(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find course: %v", util.ErrPersistence, err)
	}
	return course, nil
}

func ingestionOutcome(err error) string {
	switch {
	case errors.Is(err, util.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, util.ErrActorNotFound):
		return "actor_not_found"
	case errors.Is(err, util.ErrValidation):
		return "invalid"
	case errors.Is(err, util.ErrInProgress):
		return "in_progress"
	default:
		return "failed"
	}
}
