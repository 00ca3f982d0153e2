package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/formcraft-backend/internal/logger"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	responsesSheet = "Responses"
	exportTimeFmt  = "Jan 02, 2006 15:04"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ExportFile is a generated workbook ready to be sent.
type ExportFile struct {
	Name string
	Data []byte
}

// ExportService builds spreadsheet exports of form responses.
type ExportService struct {
	forms *FormService
	store SubmissionStore
	log   zerolog.Logger
}

func NewExportService(forms *FormService, store SubmissionStore, log zerolog.Logger) *ExportService {
	return &ExportService{forms: forms, store: store, log: logger.Component(log, "export_service")}
}

// ExportResponses writes every response of a form into one sheet, oldest
// first. Each question gets its own column in form order.
func (s *ExportService) ExportResponses(ctx context.Context, formID uuid.UUID) (ExportFile, error) {
	form, err := s.forms.Get(ctx, formID)
	if err != nil {
		return ExportFile{}, err
	}
	subs, err := s.store.ListAllByForm(ctx, formID)
	if err != nil {
		return ExportFile{}, transient("list submissions", err)
	}

	data, err := buildResponsesWorkbook(form, subs)
	if err != nil {
		return ExportFile{}, err
	}

	s.log.Info().
		Str("form_id", formID.String()).
		Int("rows", len(subs)).
		Msg("Responses exported")

	return ExportFile{Name: exportFileName(form), Data: data}, nil
}

func buildResponsesWorkbook(form model.Form, subs []model.Submission) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", responsesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{"Submission ID", "Submitted At", "Name", "Email"}
	for _, field := range form.Fields {
		header = append(header, field.Question)
	}
	if err := f.SetSheetRow(responsesSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(responsesSheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(responsesSheet, "A", lastCol, 24); err != nil {
		return nil, fmt.Errorf("set width: %w", err)
	}

	for i, sub := range subs {
		row := []interface{}{
			sub.ID.String(),
			sub.SubmittedAt.Format(exportTimeFmt),
			sub.SubmitterName,
			sub.SubmitterEmail,
		}
		for _, field := range form.Fields {
			row = append(row, answerCell(sub.Answers[field.ID]))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(responsesSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// answerCell flattens an answer into spreadsheet text. Numbers stay the
// strings the learner typed.
func answerCell(a model.Answer) string {
	switch {
	case a.File != nil:
		return a.File.Name
	case a.Choices != nil:
		return strings.Join(a.Choices, ", ")
	default:
		return a.Text
	}
}

func exportFileName(form model.Form) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(form.Title, "_"), "_")
	if name == "" {
		name = "form"
	}
	return name + "_responses.xlsx"
}
