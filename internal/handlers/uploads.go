package handlers

import (
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// maxUploadSize caps individual picture and document uploads at 10 MiB.
const maxUploadSize = 10 << 20

// readUpload buffers a multipart file and returns its content and extension.
func readUpload(header *multipart.FileHeader) ([]byte, string, error) {
	file, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		return nil, "", err
	}

	ext := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	if ext == "" {
		ext = "bin"
	}
	return data, strings.ToLower(ext), nil
}
