package controller

import (
	"course_authoring_backend/internal/service"
	"course_authoring_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VideoController struct {
	Durations service.VideoDurationResolver
}

func NewVideoController(durations service.VideoDurationResolver) *VideoController {
	return &VideoController{Durations: durations}
}

type VideoDurationResponse struct {
	VideoID  string `json:"videoId"`
	Duration int    `json:"duration"`
}

// @Summary 查询视频时长
// @Description 通过视频平台接口查询时长（秒）
// @Tags 视频
// @Produce json
// @Param videoId query string true "视频ID"
// @Success 200 {object} util.Response{data=VideoDurationResponse}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /videos/duration [get]
func (c *VideoController) GetDuration(ctx *gin.Context) {
	videoID := ctx.Query("videoId")
	if videoID == "" {
		util.BadRequest(ctx, "videoId is required")
		return
	}

	seconds, err := c.Durations.Resolve(ctx.Request.Context(), videoID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, VideoDurationResponse{VideoID: videoID, Duration: seconds})
}
