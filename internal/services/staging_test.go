package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newStagingStore(t *testing.T) *StagingStore {
	cfg := testConfig()
	cfg.TmpDir = t.TempDir()
	cfg.MediaRoot = t.TempDir()
	return NewStagingStore(cfg)
}

func TestStagePhotoValidation(t *testing.T) {
	s := newStagingStore(t)
	data := makePNG(t, 10, 8)

	// 不支持的类型
	_, err := s.StagePhoto(1, data, "image/webp", "a.webp")
	assert.ErrorIs(t, err, ErrInvalid)

	// 扩展名与声明类型不符
	_, err = s.StagePhoto(1, data, "image/png", "a.jpg")
	assert.ErrorIs(t, err, ErrCorruptFile)

	// 声明 JPEG 实为 PNG
	_, err = s.StagePhoto(1, data, "image/jpeg", "a.jpg")
	assert.ErrorIs(t, err, ErrCorruptFile)

	// 解码失败
	_, err = s.StagePhoto(1, []byte("not an image"), "image/png", "a.png")
	assert.ErrorIs(t, err, ErrCorruptFile)

	res, err := s.StagePhoto(1, data, "image/png", "a.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.Mimetype)
	assert.NotEmpty(t, res.Thumbnail)

	photos, video := s.Peek(1)
	require.Len(t, photos, 1)
	assert.Nil(t, video)
	assert.Equal(t, 10, photos[0].Width)
	assert.Equal(t, 8, photos[0].Height)
}

func TestStagePhotoSizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.TmpDir = t.TempDir()
	cfg.MaxPhotoBytes = 16
	s := NewStagingStore(cfg)

	_, err := s.StagePhoto(1, makePNG(t, 10, 10), "image/png", "a.png")
	assert.ErrorIs(t, err, ErrLargeFile)
}

func TestStagePhotoCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.TmpDir = t.TempDir()
	cfg.MaxPhotosPerPost = 2
	s := NewStagingStore(cfg)
	data := makePNG(t, 4, 4)

	_, err := s.StagePhoto(1, data, "image/png", "a.png")
	require.NoError(t, err)
	_, err = s.StagePhoto(1, data, "image/png", "b.png")
	require.NoError(t, err)
	_, err = s.StagePhoto(1, data, "image/png", "c.png")
	assert.ErrorIs(t, err, ErrMaxPhotosAttained)

	// 其他用户不受影响
	_, err = s.StagePhoto(2, data, "image/png", "d.png")
	assert.NoError(t, err)
}

func TestDeletePhoto(t *testing.T) {
	s := newStagingStore(t)
	res, err := s.StagePhoto(1, makePNG(t, 4, 4), "image/png", "a.png")
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeletePhoto(1, "missing.png"), ErrNotFound)
	require.NoError(t, s.DeletePhoto(1, res.Filename))
	photos, _ := s.Peek(1)
	assert.Empty(t, photos)
}

func TestStageVideoValidation(t *testing.T) {
	s := newStagingStore(t)
	data := []byte("fake mp4 bytes")
	meta := VideoMeta{Duration: 60, Width: 640, Height: 480}

	_, err := s.StageVideo(1, data, "video/avi", "a.avi", meta)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.StageVideo(1, data, "video/mp4", "a.mov", meta)
	assert.ErrorIs(t, err, ErrCorruptFile)

	// 超时长
	_, err = s.StageVideo(1, data, "video/mp4", "a.mp4", VideoMeta{Duration: 9999, Width: 640, Height: 480})
	assert.ErrorIs(t, err, ErrLargeFile)

	// 尺寸越界
	_, err = s.StageVideo(1, data, "video/mp4", "a.mp4", VideoMeta{Duration: 60, Width: 8, Height: 480})
	assert.ErrorIs(t, err, ErrInvalid)

	video, err := s.StageVideo(1, data, "video/mp4", "a.mp4", meta)
	require.NoError(t, err)
	assert.FileExists(t, video.Path)

	onDisk, err := os.ReadFile(video.Path)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
}

func TestPhotoVideoExclusive(t *testing.T) {
	s := newStagingStore(t)
	data := []byte("fake mp4 bytes")
	meta := VideoMeta{Duration: 60, Width: 640, Height: 480}

	// 已有照片 → 拒绝视频
	_, err := s.StagePhoto(1, makePNG(t, 4, 4), "image/png", "a.png")
	require.NoError(t, err)
	_, err = s.StageVideo(1, data, "video/mp4", "a.mp4", meta)
	assert.ErrorIs(t, err, ErrConflictingMedia)

	// 已有视频 → 拒绝照片和第二个视频
	_, err = s.StageVideo(2, data, "video/mp4", "a.mp4", meta)
	require.NoError(t, err)
	_, err = s.StagePhoto(2, makePNG(t, 4, 4), "image/png", "b.png")
	assert.ErrorIs(t, err, ErrConflictingMedia)
	_, err = s.StageVideo(2, data, "video/mp4", "b.mp4", meta)
	assert.ErrorIs(t, err, ErrConflictingMedia)
}

func TestDeleteVideoRemovesTmpFile(t *testing.T) {
	s := newStagingStore(t)
	video, err := s.StageVideo(1, []byte("fake"), "video/mp4", "a.mp4",
		VideoMeta{Duration: 60, Width: 640, Height: 480})
	require.NoError(t, err)

	require.NoError(t, s.DeleteVideo(1))
	assert.NoFileExists(t, video.Path)
	assert.ErrorIs(t, s.DeleteVideo(1), ErrNotFound)

	// 槽清空后可以换成照片
	_, err = s.StagePhoto(1, makePNG(t, 4, 4), "image/png", "a.png")
	assert.NoError(t, err)
}

// fakeConverter 测试用的音频转换器
type fakeConverter struct {
	fail bool
}

func (f fakeConverter) Convert(audio, cover []byte) ([]byte, VideoMeta, error) {
	if f.fail {
		return nil, VideoMeta{}, assert.AnError
	}
	return []byte("converted video"), VideoMeta{Duration: 120, Width: 720, Height: 720}, nil
}

func TestStageAudio(t *testing.T) {
	s := newStagingStore(t)

	_, err := s.StageAudio(1, []byte("mp3"), []byte("cover"), nil)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.StageAudio(1, []byte("mp3"), []byte("cover"), fakeConverter{fail: true})
	assert.ErrorIs(t, err, ErrCorruptFile)

	video, err := s.StageAudio(1, []byte("mp3"), []byte("cover"), fakeConverter{})
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", video.Mimetype)
	assert.EqualValues(t, 120, video.Duration)
}

func TestClearStaging(t *testing.T) {
	s := newStagingStore(t)
	_, err := s.StagePhoto(1, makePNG(t, 4, 4), "image/png", "a.png")
	require.NoError(t, err)

	s.Clear(1)
	photos, video := s.Peek(1)
	assert.Empty(t, photos)
	assert.Nil(t, video)
}
