package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG 디코더 등록
	_ "image/png"  // PNG 디코더 등록
	"math"
	"net/http"
	"strings"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// ErrEmptyImage - 비어 있는 이미지 입력
var ErrEmptyImage = errors.New("empty image data")

// DecodeBase64Image - base64 문자열을 바이너리로 변환 ("data:image/png;base64," 접두사 허용)
func DecodeBase64Image(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL")
		}
		s = s[idx+1:]
	}
	if s == "" {
		return nil, ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}

// DetectMIME - 바이너리 시그니처로 MIME 타입 판별
func DetectMIME(data []byte) string {
	return http.DetectContentType(data)
}

// IsSupportedImage - 업로드 허용 포맷 (PNG, JPEG, WebP)
func IsSupportedImage(mime string) bool {
	switch mime {
	case "image/png", "image/jpeg", "image/webp":
		return true
	}
	return false
}

// DecodeImage - PNG/JPEG/WebP 디코딩
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}

	if DetectMIME(data) == "image/webp" {
		img, err := webp.Decode(bytes.NewReader(data), &decoder.Options{})
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode WebP: %w", err)
		}
		return img, "webp", nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// EncodeWebP - 이미지를 손실 WebP로 인코딩
func EncodeWebP(img image.Image, quality float32) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}
	return buf.Bytes(), nil
}

// ThumbnailSize - 긴 변이 maxSize가 되도록 비율 유지한 크기 (확대하지 않음)
func ThumbnailSize(width, height, maxSize int) (int, int) {
	if width <= 0 || height <= 0 || maxSize <= 0 {
		return 0, 0
	}
	if width <= maxSize && height <= maxSize {
		return width, height
	}

	scale := math.Min(float64(maxSize)/float64(width), float64(maxSize)/float64(height))
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	return max(w, 1), max(h, 1)
}

// Thumbnail - 갤러리용 축소 이미지
func Thumbnail(src image.Image, maxSize int) image.Image {
	b := src.Bounds()
	w, h := ThumbnailSize(b.Dx(), b.Dy(), maxSize)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	return ResizeImage(src, w, h)
}

// ResizeImage - 이미지를 지정된 크기로 resize (비율 유지하며 fit, 남는 영역은 투명)
func ResizeImage(src image.Image, targetWidth, targetHeight int) image.Image {
	srcBounds := src.Bounds()
	srcWidth := srcBounds.Dx()
	srcHeight := srcBounds.Dy()

	scaleX := float64(targetWidth) / float64(srcWidth)
	scaleY := float64(targetHeight) / float64(srcHeight)
	scale := math.Min(scaleX, scaleY)

	newWidth := int(math.Round(float64(srcWidth) * scale))
	newHeight := int(math.Round(float64(srcHeight) * scale))
	newWidth = min(newWidth, targetWidth)
	newHeight = min(newHeight, targetHeight)

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))

	// 중앙 정렬
	xOffset := (targetWidth - newWidth) / 2
	yOffset := (targetHeight - newHeight) / 2

	// Nearest Neighbor
	for y := 0; y < newHeight; y++ {
		for x := 0; x < newWidth; x++ {
			srcX := min(int(float64(x)/scale), srcWidth-1)
			srcY := min(int(float64(y)/scale), srcHeight-1)
			dst.Set(x+xOffset, y+yOffset, src.At(srcBounds.Min.X+srcX, srcBounds.Min.Y+srcY))
		}
	}

	return dst
}
