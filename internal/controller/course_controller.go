package controller

import (
	"course_authoring_backend/internal/service"
	"course_authoring_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type CourseController struct {
	CourseService   *service.CourseService
	CategoryService *service.CategoryService
}

func NewCourseController(courseService *service.CourseService, categoryService *service.CategoryService) *CourseController {
	return &CourseController{CourseService: courseService, CategoryService: categoryService}
}

// @Summary 导入课程草稿
// @Description 一次性创建课程及其有序章节和课时，分类不存在时自动创建
// @Tags 课程
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "幂等键"
// @Param course body service.CourseDraft true "课程草稿"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var draft service.CourseDraft
	if err := ctx.ShouldBindJSON(&draft); err != nil {
		util.BadRequest(ctx, "invalid course payload: "+err.Error())
		return
	}

	course, err := c.CourseService.CreateCourse(
		ctx.Request.Context(),
		util.GetSubject(ctx),
		&draft,
		ctx.GetHeader(IdempotencyKeyHeader),
	)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, course)
}

// @Summary 获取课程详情
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := util.ParseID(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "invalid id")
		return
	}

	course, err := c.CourseService.GetCourse(ctx.Request.Context(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary 分类列表
// @Tags 课程
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Category}
// @Router /categories [get]
func (c *CourseController) ListCategories(ctx *gin.Context) {
	categories, err := c.CategoryService.List(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}
