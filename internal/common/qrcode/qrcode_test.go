// Package qrcode 二维码生成单元测试
package qrcode

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePNG(t *testing.T) {
	t.Run("默认尺寸生成有效PNG", func(t *testing.T) {
		gen := NewGenerator()
		data, err := gen.GeneratePNG("DO20260103153000ABCD1234")
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 256, img.Bounds().Dx())
	})

	t.Run("自定义尺寸", func(t *testing.T) {
		gen := NewGenerator(WithSize(128))
		data, err := gen.GeneratePNG("DO20260103153000ABCD1234")
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 128, img.Bounds().Dx())
	})

	t.Run("空内容报错", func(t *testing.T) {
		gen := NewGenerator()
		_, err := gen.GeneratePNG("")
		assert.Error(t, err)
	})
}

func TestGenerateDataURL(t *testing.T) {
	gen := NewGenerator(WithRecoveryLevel(High))
	dataURL, err := gen.GenerateDataURL("DO20260103153000ABCD1234")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestWriteToWriter(t *testing.T) {
	gen := NewGenerator()
	var buf bytes.Buffer
	require.NoError(t, gen.WriteToWriter("DO20260103153000ABCD1234", &buf))

	_, err := png.Decode(&buf)
	assert.NoError(t, err)
}

func TestRecoveryLevels(t *testing.T) {
	for _, level := range []RecoveryLevel{Low, Medium, High, Highest} {
		gen := NewGenerator(WithRecoveryLevel(level))
		_, err := gen.GeneratePNG("DO20260103153000ABCD1234")
		require.NoError(t, err)
	}
}
