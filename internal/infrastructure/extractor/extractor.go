// Package extractor turns stored blobs into plain text.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/core/ports"
)

type Service struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Service {
	return &Service{storage: storage}
}

// Extract reads the blob and dispatches on its file extension. Anything
// that is not a known binary format is treated as UTF-8 text.
func (s *Service) Extract(ctx context.Context, blobPath string) (string, error) {
	reader, err := s.storage.Open(ctx, blobPath)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", domain.WrapError(domain.ErrStorage, "read blob "+blobPath, err)
	}

	switch strings.ToLower(path.Ext(blobPath)) {
	case ".pdf":
		return extractPDF(data)
	case ".xlsx":
		return extractXLSX(data)
	default:
		return extractPlainText(data)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func extractXLSX(data []byte) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer workbook.Close()

	var sb strings.Builder
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("blob is not valid utf-8 text")
	}
	return strings.TrimSpace(string(data)), nil
}
