package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"course_authoring_backend/internal/config"
	"course_authoring_backend/internal/model"
	"course_authoring_backend/internal/repository"
	"course_authoring_backend/internal/testutil"
	"course_authoring_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeResolver struct {
	mu        sync.Mutex
	durations map[string]int
	calls     []string
}

func (f *fakeResolver) Resolve(_ context.Context, videoID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, videoID)
	if d, ok := f.durations[videoID]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %s", util.ErrNotFound, videoID)
}

// memoryIdempotency 中值为 0 的条目表示处理中
type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]uint
}

func (m *memoryIdempotency) Reserve(_ context.Context, subject, key string) (uint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.keys[subject+":"+key]; ok {
		return id, false, nil
	}
	m.keys[subject+":"+key] = 0
	return 0, true, nil
}

func (m *memoryIdempotency) Remember(_ context.Context, subject, key string, courseID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[subject+":"+key] = courseID
	return nil
}

func (m *memoryIdempotency) Release(_ context.Context, subject, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, subject+":"+key)
	return nil
}

func newTestCourseService(db *gorm.DB, resolver VideoDurationResolver, store IdempotencyStore, cfg config.IngestionConfig) *CourseService {
	return NewCourseService(
		db,
		repository.NewCourseRepository(db),
		repository.NewUserRepository(db),
		NewCategoryService(repository.NewCategoryRepository(db)),
		NewLessonResourceMerger(cfg.DefaultVideoProvider, nil),
		resolver,
		store,
		cfg,
	)
}

func assertNothingPersisted(t *testing.T, db *gorm.DB) {
	t.Helper()
	assert.Zero(t, testutil.CountRows(t, db, &model.Category{}))
	assert.Zero(t, testutil.CountRows(t, db, &model.Course{}))
	assert.Zero(t, testutil.CountRows(t, db, &model.Section{}))
	assert.Zero(t, testutil.CountRows(t, db, &model.Lesson{}))
}

func TestCreateCoursePersistsOrderedGraph(t *testing.T) {
	db := testutil.DB(t)
	user := testutil.CreateUser(t, db, "creator-1")
	profile := testutil.CreateProfile(t, db, user)
	svc := newTestCourseService(db, nil, nil, config.IngestionConfig{})

	price := 19.99
	draft := validDraft()
	draft.Title = "  Go Basics  "
	draft.Price = &price
	draft.Sections[0].Lessons[0].VideoProvider = "vimeo"
	draft.Sections[0].Lessons[0].Resources = map[string]interface{}{"videoProvider": "wistia"}

	course, err := svc.CreateCourse(context.Background(), "creator-1", draft, "")
	require.NoError(t, err)

	assert.Equal(t, "Go Basics", course.Title)
	assert.Equal(t, "go-basics", course.Slug)
	assert.Equal(t, "Learn Go", course.LongDescription)
	assert.Equal(t, 19.99, course.Price)
	assert.Equal(t, model.LevelBeginner, course.Level)
	assert.Equal(t, "en", course.Language)
	assert.Equal(t, model.StatusDraft, course.Status)
	assert.Equal(t, user.ID, course.CreatorID)
	require.NotNil(t, course.CreatorProfileID)
	assert.Equal(t, profile.ID, *course.CreatorProfileID)

	require.NotNil(t, course.Category)
	assert.Equal(t, "programming", course.Category.Slug)
	assert.Equal(t, "Programming", course.Category.Name)

	require.Len(t, course.Sections, 2)
	assert.Equal(t, "A", course.Sections[0].Title)
	assert.Equal(t, 1, course.Sections[0].Order)
	assert.Equal(t, "B", course.Sections[1].Title)
	assert.Equal(t, 2, course.Sections[1].Order)

	require.Len(t, course.Sections[0].Lessons, 1)
	lesson := course.Sections[0].Lessons[0]
	assert.Equal(t, "A1", lesson.Title)
	assert.Equal(t, 1, lesson.Order)
	assert.Equal(t, 0, lesson.Duration)
	assert.Equal(t, "video", lesson.Type)
	assert.Equal(t, "wistia", lesson.Resources["videoProvider"])
	assert.Empty(t, course.Sections[1].Lessons)
}

func TestCreateCourseDefaultsWithoutProfileOrPrice(t *testing.T) {
	db := testutil.DB(t)
	testutil.CreateUser(t, db, "creator-1")
	svc := newTestCourseService(db, nil, nil, config.IngestionConfig{})

	draft := validDraft()
	draft.Sections = nil

	course, err := svc.CreateCourse(context.Background(), "creator-1", draft, "")
	require.NoError(t, err)
	assert.Nil(t, course.CreatorProfileID)
	assert.Zero(t, course.Price)
	assert.Empty(t, course.Sections)
}

func TestCreateCourseUnauthorized(t *testing.T) {
	db := testutil.DB(t)
	svc := newTestCourseService(db, nil, nil, config.IngestionConfig{})

	_, err := svc.CreateCourse(context.Background(), "", validDraft(), "")
	assert.ErrorIs(t, err, util.ErrUnauthorized)
	assertNothingPersisted(t, db)
}

func TestCreateCourseActorNotFound(t *testing.T) {
	db := testutil.DB(t)
	svc := newTestCourseService(db, nil, nil, config.IngestionConfig{})

	_, err := svc.CreateCourse(context.Background(), "ghost", validDraft(), "")
	assert.ErrorIs(t, err, util.ErrActorNotFound)
	assertNothingPersisted(t, db)
}

func TestCreateCourseValidationPersistsNothing(t *testing.T) {
	db := testutil.DB(t)
	testutil.CreateUser(t, db, "creator-1")
	svc := newTestCourseService(db, nil, nil, config.IngestionConfig{})

	draft := validDraft()
	draft.Title = ""

	_, err := svc.CreateCourse(context.Background(), "creator-1", draft, "")
	assert.ErrorIs(t, err, util.ErrValidation)
	assertNothingPersisted(t, db)
}

func TestCreateCourseReusesCategory(t *testing.T) {
	db := testutil.DB(t)
	testutil.CreateUser(t, db, "creator-1")
	svc := newTestCourseService(db, nil, nil, config.IngestionConfig{})
	ctx := context.Background()

	first, err := svc.CreateCourse(ctx, "creator-1", validDraft(), "")
	require.NoError(t, err)
	second, err := svc.CreateCourse(ctx, "creator-1", validDraft(), "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.CategoryID, second.CategoryID)
	// slug 不要求唯一
	assert.Equal(t, first.Slug, second.Slug)
	assert.Equal(t, int64(1), testutil.CountRows(t, db, &model.Category{}))
	assert.Equal(t, int64(2), testutil.CountRows(t, db, &model.Course{}))
}

func TestCreateCourseBackfillsDurations(t *testing.T) {
	db := testutil.DB(t)
	testutil.CreateUser(t, db, "creator-1")
	resolver := &fakeResolver{durations: map[string]int{"abc": 212, "xyz": 60}}
	svc := newTestCourseService(db, resolver, nil, config.IngestionConfig{
		BackfillDurations:   true,
		BackfillConcurrency: 2,
	})

	explicit := 5
	draft := validDraft()
	draft.Sections[0].Lessons = []LessonDraft{
		{Title: "L1", VideoURL: "https://youtu.be/abc"},
		{Title: "L2", VideoURL: "https://www.youtube.com/watch?v=xyz", Duration: &explicit},
		{Title: "L3", VideoURL: "https://www.youtube.com/watch?v=gone"},
		{Title: "L4", VideoURL: "https://vimeo.com/1"},
	}

	course, err := svc.CreateCourse(context.Background(), "creator-1", draft, "")
	require.NoError(t, err)

	lessons := course.Sections[0].Lessons
	require.Len(t, lessons, 4)
	for i, l := range lessons {
		assert.Equal(t, i+1, l.Order)
	}
	assert.Equal(t, 212, lessons[0].Duration)
	assert.Equal(t, 5, lessons[1].Duration)
	assert.Equal(t, 0, lessons[2].Duration)
	assert.Equal(t, 0, lessons[3].Duration)
	assert.ElementsMatch(t, []string{"abc", "gone"}, resolver.calls)
}

func TestCreateCourseBackfillDisabled(t *testing.T) {
	db := testutil.DB(t)
	testutil.CreateUser(t, db, "creator-1")
	resolver := &fakeResolver{durations: map[string]int{"abc": 212}}
	svc := newTestCourseService(db, resolver, nil, config.IngestionConfig{})

	draft := validDraft()
	draft.Sections[0].Lessons[0].VideoURL = "https://youtu.be/abc"

	course, err := svc.CreateCourse(context.Background(), "creator-1", draft, "")
	require.NoError(t, err)
	assert.Equal(t, 0, course.Sections[0].Lessons[0].Duration)
	assert.Empty(t, resolver.calls)
}

func TestCreateCourseIdempotentReplay(t *testing.T) {
	db := testutil.DB(t)
	testutil.CreateUser(t, db, "creator-1")
	testutil.CreateUser(t, db, "creator-2")
	store := &memoryIdempotency{keys: map[string]uint{}}
	svc := newTestCourseService(db, nil, store, config.IngestionConfig{})
	ctx := context.Background()

	first, err := svc.CreateCourse(ctx, "creator-1", validDraft(), "req-1")
	require.NoError(t, err)
	replayed, err := svc.CreateCourse(ctx, "creator-1", validDraft(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, replayed.ID)
	assert.Equal(t, int64(1), testutil.CountRows(t, db, &model.Course{}))

	// 不同 subject 的相同 key 不会命中
	other, err := svc.CreateCourse(ctx, "creator-2", validDraft(), "req-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateCourseRejectsKeyInProgress(t *testing.T) {
	db := testutil.DB(t)
	testutil.CreateUser(t, db, "creator-1")
	store := &memoryIdempotency{keys: map[string]uint{"creator-1:req-1": 0}}
	svc := newTestCourseService(db, nil, store, config.IngestionConfig{})

	_, err := svc.CreateCourse(context.Background(), "creator-1", validDraft(), "req-1")
	require.ErrorIs(t, err, util.ErrInProgress)
	assertNothingPersisted(t, db)
	assert.Contains(t, store.keys, "creator-1:req-1")
}

func TestCreateCourseConcurrentSameKeyCreatesOnce(t *testing.T) {
	db := testutil.DB(t)
	testutil.CreateUser(t, db, "creator-1")
	store := &memoryIdempotency{keys: map[string]uint{}}
	svc := newTestCourseService(db, nil, store, config.IngestionConfig{})

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateCourse(context.Background(), "creator-1", validDraft(), "req-1")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, util.ErrInProgress)
		}
	}
	assert.Equal(t, int64(1), testutil.CountRows(t, db, &model.Course{}))
}

func TestCreateCourseRollsBackOnLessonFailure(t *testing.T) {
	db := testutil.DB(t)
	testutil.CreateUser(t, db, "creator-1")
	store := &memoryIdempotency{keys: map[string]uint{}}
	svc := newTestCourseService(db, nil, store, config.IngestionConfig{})

	err := db.Callback().Create().Before("gorm:create").Register("test:fail_lessons", func(tx *gorm.DB) {
		if tx.Statement.Table == "lessons" {
			_ = tx.AddError(errors.New("boom"))
		}
	})
	require.NoError(t, err)

	_, err = svc.CreateCourse(context.Background(), "creator-1", validDraft(), "req-1")
	require.ErrorIs(t, err, util.ErrPersistence)
	assert.Contains(t, err.Error(), "boom")
	assertNothingPersisted(t, db)
	assert.NotContains(t, store.keys, "creator-1:req-1")
}

func TestBuildCourseGraph(t *testing.T) {
	svc := &CourseService{Merger: NewLessonResourceMerger("", nil)}
	creator := &model.User{BaseModel: model.BaseModel{ID: 7}}

	course := svc.BuildCourseGraph(creator, nil, validDraft())

	assert.Equal(t, uint(7), course.CreatorID)
	assert.Equal(t, "go-basics", course.Slug)
	require.Len(t, course.Sections, 2)
	assert.Equal(t, []int{1, 2}, []int{course.Sections[0].Order, course.Sections[1].Order})
	require.Len(t, course.Sections[0].Lessons, 1)
	assert.Equal(t, 1, course.Sections[0].Lessons[0].Order)
	assert.NotNil(t, course.Sections[1].Lessons)
	assert.Empty(t, course.Sections[1].Lessons)
}

func TestGetCourse(t *testing.T) {
	db := testutil.DB(t)
	testutil.CreateUser(t, db, "creator-1")
	svc := newTestCourseService(db, nil, nil, config.IngestionConfig{})
	ctx := context.Background()

	created, err := svc.CreateCourse(ctx, "creator-1", validDraft(), "")
	require.NoError(t, err)

	got, err := svc.GetCourse(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	require.Len(t, got.Sections, 2)

	_, err = svc.GetCourse(ctx, created.ID+100)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}
