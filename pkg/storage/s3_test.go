package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAttachmentType(t *testing.T) {
	assert.True(t, ValidateAttachmentType("image/jpeg", "foto.jpg"))
	assert.True(t, ValidateAttachmentType("application/pdf", "cotacao.pdf"))
	assert.True(t, ValidateAttachmentType("", "foto.PNG"))
	assert.True(t, ValidateAttachmentType("image/png", "sem-extensao"))

	assert.False(t, ValidateAttachmentType("video/mp4", "video.mp4"))
	assert.False(t, ValidateAttachmentType("application/zip", "arquivo.zip"))
	assert.False(t, ValidateAttachmentType("", "script.exe"))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeForFilename("foto.JPEG"))
	assert.Equal(t, "application/pdf", ContentTypeForFilename("doc.pdf"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("arquivo.xyz"))
}

func TestAttachmentKey(t *testing.T) {
	key := AttachmentKey("order-1", "att-1", "Foto Final.JPG")
	assert.Equal(t, "orders/order-1/att-1.jpg", key)
}
