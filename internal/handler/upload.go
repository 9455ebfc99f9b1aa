package handler

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

const defaultMaxUploadMB = 10

func maxUploadBytes() int64 {
	maxMB := defaultMaxUploadMB
	if config.GlobalConfig != nil && config.GlobalConfig.Upload.MaxSizeMB > 0 {
		maxMB = config.GlobalConfig.Upload.MaxSizeMB
	}
	return int64(maxMB) << 20
}

func uploadDir() string {
	if config.GlobalConfig != nil && config.GlobalConfig.Upload.Dir != "" {
		return config.GlobalConfig.Upload.Dir
	}
	return "./uploads"
}

// readImageUpload reads and validates a multipart image field. It returns
// the raw bytes and the lowercased file extension.
func readImageUpload(c *gin.Context, field string) ([]byte, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", apperrors.New(apperrors.ErrUploadInvalid, "缺少图片文件: "+field)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExts[ext] {
		return nil, "", apperrors.New(apperrors.ErrUploadInvalid, "不支持的图片格式, 仅支持 jpg/jpeg/png/webp")
	}
	if fileHeader.Size > maxUploadBytes() {
		return nil, "", apperrors.New(apperrors.ErrUploadInvalid, "图片超过大小限制")
	}

	data, err := readAll(fileHeader)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrUploadInvalid, "读取图片失败")
	}
	return data, ext, nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// saveImageUpload persists image bytes under the upload dir and returns the
// public URL path, e.g. /uploads/meal/<uuid>.png.
func saveImageUpload(subdir string, data []byte, ext string) (string, error) {
	dir := filepath.Join(uploadDir(), subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternalServer, "创建上传目录失败")
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternalServer, "保存图片失败")
	}
	return "/uploads/" + subdir + "/" + name, nil
}
