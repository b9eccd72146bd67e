package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// MediaHandler 发帖前的媒体暂存接口。照片和视频互斥，
// 真正落库发生在发帖时
type MediaHandler struct {
	staging *services.StagingStore
	// 音频转视频的外部转换器，部署方注入；缺省时音频上传报 invalid
	converter services.AudioConverter
}

func NewMediaHandler(staging *services.StagingStore, converter services.AudioConverter) *MediaHandler {
	return &MediaHandler{staging: staging, converter: converter}
}

// readUpload 读 multipart 表单里的单个文件
func readUpload(c *gin.Context, field string) ([]byte, string, string, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "missing_field", "message": field + " file is required"})
		return nil, "", "", false
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": "cannot open upload"})
		return nil, "", "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": "cannot read upload"})
		return nil, "", "", false
	}
	return data, file.Header.Get("Content-Type"), file.Filename, true
}

func (h *MediaHandler) UploadPhoto(c *gin.Context) {
	data, contentType, name, ok := readUpload(c, "photo")
	if !ok {
		return
	}
	result, err := h.staging.StagePhoto(CurrentUser(c).ID, data, contentType, name)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *MediaHandler) DeletePhoto(c *gin.Context) {
	filename := c.Param("filename")
	if err := h.staging.DeletePhoto(CurrentUser(c).ID, filename); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MediaHandler) UploadVideo(c *gin.Context) {
	data, contentType, name, ok := readUpload(c, "video")
	if !ok {
		return
	}

	// 时长和尺寸由客户端探测后随表单提交，服务端按配置兜底校验
	duration, _ := strconv.ParseFloat(c.PostForm("duration"), 64)
	width, _ := strconv.Atoi(c.PostForm("width"))
	height, _ := strconv.Atoi(c.PostForm("height"))

	video, err := h.staging.StageVideo(CurrentUser(c).ID, data, contentType, name, services.VideoMeta{
		Duration: duration,
		Width:    width,
		Height:   height,
	})
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, video)
}

// UploadAudio 音频连同封面图交给转换器混流成视频，再走视频暂存
func (h *MediaHandler) UploadAudio(c *gin.Context) {
	audio, _, _, ok := readUpload(c, "audio")
	if !ok {
		return
	}
	cover, _, _, ok := readUpload(c, "cover")
	if !ok {
		return
	}

	video, err := h.staging.StageAudio(CurrentUser(c).ID, audio, cover, h.converter)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, video)
}

func (h *MediaHandler) DeleteVideo(c *gin.Context) {
	if err := h.staging.DeleteVideo(CurrentUser(c).ID); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List 当前暂存区内容
func (h *MediaHandler) List(c *gin.Context) {
	photos, video := h.staging.Peek(CurrentUser(c).ID)

	names := make([]string, 0, len(photos))
	for _, p := range photos {
		names = append(names, p.Filename)
	}
	resp := gin.H{"photos": names}
	if video != nil {
		resp["video"] = video.Filename
	}
	c.JSON(http.StatusOK, resp)
}

// Clear 清空暂存区
func (h *MediaHandler) Clear(c *gin.Context) {
	h.staging.Clear(CurrentUser(c).ID)
	c.Status(http.StatusNoContent)
}
