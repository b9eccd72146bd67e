package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/Sergecodes/rmusiclines-sub000/internal/config"
	"github.com/Sergecodes/rmusiclines-sub000/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// StagedPhoto 暂存照片：字节留在内存里，发帖时才落盘
type StagedPhoto struct {
	Filename string
	Mimetype string
	Data     []byte
	Width    int
	Height   int
}

// StagedVideo 暂存视频：文件已写进临时目录
type StagedVideo struct {
	Filename string
	Mimetype string
	Path     string // 临时目录下的绝对路径
	URL      string
	Duration float64
	Width    int
	Height   int
}

// PhotoResult 照片上传的返回值
type PhotoResult struct {
	Filename  string `json:"filename"`
	Thumbnail string `json:"thumbnail"` // base64 JPEG
	Mimetype  string `json:"mimetype"`
}

// VideoMeta 视频元信息，由外部探测器（转码服务）给出
type VideoMeta struct {
	Duration float64
	Width    int
	Height   int
}

// AudioConverter 音频转视频的外部协作者：压缩音频并与封面图混流
type AudioConverter interface {
	Convert(audio []byte, cover []byte) (video []byte, meta VideoMeta, err error)
}

// userBuffer 单个用户的暂存区。照片列表和视频槽互斥
type userBuffer struct {
	mu     sync.Mutex
	photos []StagedPhoto
	video  *StagedVideo
}

// StagingStore 按用户隔离的媒体暂存。进程内状态，重启即丢（尽力而为）
type StagingStore struct {
	cfg     config.Config
	mu      sync.Mutex
	buffers map[uint]*userBuffer
}

func NewStagingStore(cfg config.Config) *StagingStore {
	return &StagingStore{
		cfg:     cfg,
		buffers: make(map[uint]*userBuffer),
	}
}

// buffer 取到用户的暂存区，没有就建一个
func (s *StagingStore) buffer(userID uint) *userBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buffers[userID]
	if !ok {
		b = &userBuffer{}
		s.buffers[userID] = b
	}
	return b
}

var photoContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

var videoContentTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
}

// StagePhoto 校验、解码、生成缩略图并压入照片队列
func (s *StagingStore) StagePhoto(userID uint, data []byte, contentType, origName string) (*PhotoResult, error) {
	if !photoContentTypes[contentType] {
		return nil, ErrInvalid
	}
	if int64(len(data)) > s.cfg.MaxPhotoBytes {
		return nil, ErrLargeFile
	}
	if !utils.ExtMatchesContentType(origName, contentType) {
		return nil, ErrCorruptFile
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrCorruptFile
	}
	// 声明的类型必须与真实编码一致
	if format == "jpeg" {
		format = "jpg"
	}
	if format != utils.CanonicalExt(contentType) {
		return nil, ErrCorruptFile
	}

	thumb, err := s.thumbnail(img)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	filename := fmt.Sprintf("%s.%s", uuid.NewString(), utils.CanonicalExt(contentType))
	photo := StagedPhoto{
		Filename: filename,
		Mimetype: contentType,
		Data:     data,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}

	b := s.buffer(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.video != nil {
		return nil, ErrConflictingMedia
	}
	if len(b.photos) >= s.cfg.MaxPhotosPerPost {
		return nil, ErrMaxPhotosAttained
	}
	b.photos = append(b.photos, photo)

	return &PhotoResult{
		Filename:  filename,
		Thumbnail: thumb,
		Mimetype:  contentType,
	}, nil
}

// DeletePhoto 按文件名删除第一张匹配的暂存照片
func (s *StagingStore) DeletePhoto(userID uint, filename string) error {
	b := s.buffer(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.photos {
		if p.Filename == filename {
			b.photos = append(b.photos[:i], b.photos[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// StageVideo 校验后把视频写进临时目录并占住视频槽
func (s *StagingStore) StageVideo(userID uint, data []byte, contentType, origName string, meta VideoMeta) (*StagedVideo, error) {
	if !videoContentTypes[contentType] {
		return nil, ErrInvalid
	}
	if int64(len(data)) > s.cfg.MaxVideoBytes {
		return nil, ErrLargeFile
	}
	if !utils.ExtMatchesContentType(origName, contentType) {
		return nil, ErrCorruptFile
	}
	if meta.Duration > s.cfg.MaxVideoSeconds {
		return nil, ErrLargeFile
	}
	if meta.Width < s.cfg.MinVideoDimension || meta.Height < s.cfg.MinVideoDimension ||
		meta.Width > s.cfg.MaxVideoDimension || meta.Height > s.cfg.MaxVideoDimension {
		return nil, ErrInvalid
	}

	b := s.buffer(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.photos) > 0 {
		return nil, ErrConflictingMedia
	}
	if b.video != nil {
		return nil, ErrConflictingMedia
	}

	filename := fmt.Sprintf("%s.%s", uuid.NewString(), utils.CanonicalExt(contentType))
	if err := os.MkdirAll(s.cfg.TmpDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(s.cfg.TmpDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}

	video := &StagedVideo{
		Filename: filename,
		Mimetype: contentType,
		Path:     path,
		URL:      "tmp/" + filename,
		Duration: meta.Duration,
		Width:    meta.Width,
		Height:   meta.Height,
	}
	b.video = video
	return video, nil
}

// StageAudio 先由转换器压缩混流成视频，再走视频暂存路径
func (s *StagingStore) StageAudio(userID uint, audio []byte, cover []byte, converter AudioConverter) (*StagedVideo, error) {
	if converter == nil {
		return nil, ErrInvalid
	}
	videoData, meta, err := converter.Convert(audio, cover)
	if err != nil {
		return nil, ErrCorruptFile
	}
	return s.StageVideo(userID, videoData, "video/mp4", "converted.mp4", meta)
}

// DeleteVideo 清空视频槽并移除临时文件
func (s *StagingStore) DeleteVideo(userID uint) error {
	b := s.buffer(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.video == nil {
		return ErrNotFound
	}
	_ = os.Remove(b.video.Path)
	b.video = nil
	return nil
}

// Peek 读取当前暂存内容的快照（发帖事务用）
func (s *StagingStore) Peek(userID uint) (photos []StagedPhoto, video *StagedVideo) {
	b := s.buffer(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	photos = append(photos, b.photos...)
	video = b.video
	return photos, video
}

// Clear 发帖成功后清空暂存区
func (s *StagingStore) Clear(userID uint) {
	b := s.buffer(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.photos = nil
	b.video = nil
}

// thumbnail 生成受限于配置边长的 JPEG 缩略图，返回 base64
func (s *StagingStore) thumbnail(img image.Image) (string, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	max := s.cfg.ThumbnailMaxSize
	if max <= 0 {
		max = 128
	}
	// 等比缩放到最长边不超过 max
	if w > max || h > max {
		if w >= h {
			h = h * max / w
			w = max
		} else {
			w = w * max / h
			h = max
		}
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
