package api

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"statement-extraction-service/internal/models"
	"statement-extraction-service/internal/validate"
	pkgerrors "statement-extraction-service/pkg/errors"
	"statement-extraction-service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// TransactionPayload is one reconstructed record in the API response
type TransactionPayload struct {
	TransactionDate string          `json:"transaction_date"`
	Narrative       string          `json:"narrative"`
	Amount          decimal.Decimal `json:"amount"`
	Balance         decimal.Decimal `json:"balance"`
}

// ExtractResponse is the JSON body returned by POST /api/v1/extract
type ExtractResponse struct {
	Success      bool                 `json:"success"`
	RequestID    string               `json:"request_id"`
	FileName     string               `json:"file_name"`
	Currency     string               `json:"currency"`
	Count        int                  `json:"count"`
	Transactions []TransactionPayload `json:"transactions"`
	Validation   *validate.Summary    `json:"validation,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// HealthResponse is the JSON body returned by GET /api/v1/health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// Version is stamped by the build; the serve command overrides it.
var Version = "dev"

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleExtract accepts a multipart statement upload in the "file" field,
// with an optional "bank" field hinting the issuer, and returns the
// reconstructed transactions. The upload is staged to a temporary file
// for the extractor and removed afterwards.
func (s *Server) handleExtract(c *fiber.Ctx) error {
	requestID, _ := c.Locals("request_id").(string)
	log := s.logger.WithField("request_id", requestID)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return s.fail(c, fiber.StatusBadRequest, requestID, "no file uploaded; use form field 'file'")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".pdf" && ext != ".txt" {
		return s.fail(c, fiber.StatusBadRequest, requestID, "only .pdf and .txt statements are supported")
	}

	tmp, err := os.CreateTemp("", "statement-*"+ext)
	if err != nil {
		log.WithError(err).Error("Failed to stage upload")
		return s.fail(c, fiber.StatusInternalServerError, requestID, "failed to stage upload")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveFile(fileHeader, tmpPath); err != nil {
		log.WithError(err).Error("Failed to save upload")
		return s.fail(c, fiber.StatusInternalServerError, requestID, "failed to save upload")
	}

	// Optional issuer hint, e.g. bank=pnb forces the PNB layout parser.
	bankHint := c.FormValue("bank")

	outcome, err := s.processor.ProcessFileWithHint(c.Context(), tmpPath, bankHint)
	if err != nil {
		log.WithError(err).Error("Extraction failed")
		return s.fail(c, statusFor(err), requestID, userMessage(err))
	}

	response := ExtractResponse{
		Success:      true,
		RequestID:    requestID,
		FileName:     fileHeader.Filename,
		Currency:     outcome.Currency.Code,
		Count:        len(outcome.Records),
		Transactions: toPayload(outcome.Records),
	}
	if outcome.Validation != nil {
		response.Validation = outcome.Validation.Summary
	}

	log.WithFields(logger.Fields{
		"file":    fileHeader.Filename,
		"records": response.Count,
	}).Info("Extraction request completed")

	return c.JSON(response)
}

func (s *Server) fail(c *fiber.Ctx, status int, requestID, message string) error {
	return c.Status(status).JSON(ExtractResponse{
		Success:   false,
		RequestID: requestID,
		Error:     message,
	})
}

// statusFor maps the error taxonomy onto HTTP statuses: bad input is the
// client's fault, everything else is ours
func statusFor(err error) int {
	if extractorErr, ok := pkgerrors.AsExtractorError(err); ok {
		switch extractorErr.Category {
		case pkgerrors.CategoryFile, pkgerrors.CategoryExtraction,
			pkgerrors.CategoryParse, pkgerrors.CategoryValidation:
			return fiber.StatusUnprocessableEntity
		}
	}
	return fiber.StatusInternalServerError
}

// userMessage extracts the upload-safe message and suggestion, dropping
// stack traces and internal context
func userMessage(err error) string {
	if extractorErr, ok := pkgerrors.AsExtractorError(err); ok {
		msg := extractorErr.Message
		if extractorErr.Suggestion != "" {
			msg += "; " + extractorErr.Suggestion
		}
		return msg
	}
	return err.Error()
}

func toPayload(records []*models.TransactionRecord) []TransactionPayload {
	payload := make([]TransactionPayload, 0, len(records))
	for _, r := range records {
		payload = append(payload, TransactionPayload{
			TransactionDate: r.DateString(),
			Narrative:       r.Narrative,
			Amount:          r.Amount,
			Balance:         r.Balance,
		})
	}
	return payload
}
