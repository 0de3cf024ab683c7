package services

import (
	"errors"
	"fmt"
)

// EncodingError is returned when the survey export is not valid UTF-8.
// No sections are returned alongside it.
type EncodingError struct {
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("survey export is not valid UTF-8 (first invalid byte at offset %d)", e.Offset)
}

// TemplateNotFoundError is returned by the report exporter when the template
// workbook does not exist.
type TemplateNotFoundError struct {
	Path string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("report template not found: %s", e.Path)
}

// ErrReportCapacity means the summary needs more rows than the template
// reserves between the first category row and the total row.
var ErrReportCapacity = errors.New("report rows exceed template capacity")
