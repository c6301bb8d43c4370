/**
 * @description
 * This file contains the HTTP handlers for the paylater-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as
 * the bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfa/paylater-service/internal/app"
	"github.com/transfa/paylater-service/internal/domain"
	"github.com/transfa/paylater-service/internal/store"
)

// PayLaterHandlers holds the application service that handlers will use.
type PayLaterHandlers struct {
	service *app.Service
}

// NewPayLaterHandlers creates a new instance of PayLaterHandlers.
func NewPayLaterHandlers(service *app.Service) *PayLaterHandlers {
	return &PayLaterHandlers{service: service}
}

// submitApplicationRequest is the JSON body accepted by the submission endpoint.
// date_of_birth uses YYYY-MM-DD.
type submitApplicationRequest struct {
	FullName         string              `json:"full_name"`
	NationalIDNumber string              `json:"national_id_number"`
	DateOfBirth      string              `json:"date_of_birth"`
	Address          string              `json:"address"`
	PhoneNumber      string              `json:"phone_number"`
	EmploymentStatus *string             `json:"employment_status,omitempty"`
	MonthlyIncome    decimal.NullDecimal `json:"monthly_income,omitempty"`
}

// applicationResponse is returned after a successful submission.
type applicationResponse struct {
	ID        string        `json:"id"`
	Status    domain.Status `json:"status"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

// orderEligibilityRequest is the payload of the internal order-gate endpoint.
type orderEligibilityRequest struct {
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// SubmitApplicationHandler handles Pay Later application submissions.
func (h *PayLaterHandlers) SubmitApplicationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	var req submitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=submit_application outcome=reject reason=invalid_json err=%v", err)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	submission, err := buildSubmission(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	application, err := h.service.SubmitApplication(r.Context(), userID, submission)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateApplication):
			h.writeError(w, http.StatusConflict, "A Pay Later application already exists for this user.")
		case errors.Is(err, store.ErrDuplicateNationalID):
			h.writeError(w, http.StatusConflict, "An application with this national ID number already exists.")
		case errors.Is(err, app.ErrInvalidSubmission):
			h.writeError(w, http.StatusBadRequest, "Submission is missing required KYC fields.")
		case errors.Is(err, app.ErrSubmissionRateLimit):
			h.writeError(w, http.StatusTooManyRequests, "Too many submission attempts. Please try again later.")
		default:
			log.Printf("level=error component=api endpoint=submit_application outcome=failed user_id=%s err=%v", userID, err)
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	log.Printf("level=info component=api endpoint=submit_application outcome=accepted user_id=%s application_id=%s", userID, application.ID)
	h.writeJSON(w, http.StatusCreated, applicationResponse{
		ID:        application.ID.String(),
		Status:    application.Status,
		Message:   "Application submitted. Credit check in progress.",
		CreatedAt: application.CreatedAt,
	})
}

// GetApplicationStatusHandler returns the eligibility summary for the caller's
// application. It reflects the SUBMITTED_KYC status immediately after a
// submission returns, before the asynchronous check has necessarily run.
func (h *PayLaterHandlers) GetApplicationStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	summary, err := h.service.GetApplicationStatus(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrApplicationNotFound) {
			h.writeError(w, http.StatusNotFound, "No Pay Later application found for this user.")
			return
		}
		log.Printf("level=error component=api endpoint=application_status user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// OrderEligibilityHandler is the internal endpoint the order subsystem calls at
// order-creation time. It is read-only and never mutates the application.
func (h *PayLaterHandlers) OrderEligibilityHandler(w http.ResponseWriter, r *http.Request) {
	var req orderEligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.UserID == uuid.Nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.EvaluateOrderEligibility(r.Context(), req.UserID, req.TotalAmount)
	if err != nil {
		if errors.Is(err, app.ErrInvalidOrderAmount) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("level=error component=api endpoint=order_eligibility user_id=%s err=%v", req.UserID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func buildSubmission(req submitApplicationRequest) (domain.KYCSubmission, error) {
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return domain.KYCSubmission{}, fmt.Errorf("invalid date_of_birth, expected YYYY-MM-DD")
	}
	return domain.KYCSubmission{
		FullName:         req.FullName,
		NationalIDNumber: req.NationalIDNumber,
		DateOfBirth:      dob,
		Address:          req.Address,
		PhoneNumber:      req.PhoneNumber,
		EmploymentStatus: req.EmploymentStatus,
		MonthlyIncome:    req.MonthlyIncome,
	}, nil
}

func (h *PayLaterHandlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

func (h *PayLaterHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"detail": message})
}
